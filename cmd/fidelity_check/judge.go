package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resume-agent/internal/llm"
)

// judgeResponse es la evaluacion del juez en JSON.
type judgeResponse struct {
	Reasoning     string `json:"reasoning"`
	FidelityScore int    `json:"fidelity_score"`
	HelpfulScore  int    `json:"helpful_score"`
}

const judgeSystemPrompt = "You are a strict reviewer that checks whether a resume assistant kept every fact from the source resume and the user's corrections. Answer only with JSON."

func evaluateReply(ctx context.Context, judge llm.Client, sc Scenario, reply string) (judgeResponse, error) {
	missing := missingFacts(reply, sc.RequiredFacts)
	leaked := leakedFacts(reply, sc.ForbiddenFacts)

	prompt := buildJudgePrompt(sc, reply, missing, leaked)
	raw, err := judge.Complete(ctx, llm.CompletionRequest{
		System:   judgeSystemPrompt,
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return judgeResponse{}, err
	}

	jsonStr := extractFirstJSONObject(raw)
	if jsonStr == "" {
		return judgeResponse{}, fmt.Errorf("judge returned non-json: %q", raw)
	}

	var jr judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &jr); err != nil {
		return judgeResponse{}, fmt.Errorf("parse judge json: %w (raw=%q)", err, jsonStr)
	}

	jr.FidelityScore = clamp1to5(jr.FidelityScore)
	jr.HelpfulScore = clamp1to5(jr.HelpfulScore)

	// Un hecho corregido que reaparece es falla dura, diga lo que diga el juez.
	if len(leaked) > 0 && jr.FidelityScore > 2 {
		jr.FidelityScore = 2
	}
	return jr, nil
}

func buildJudgePrompt(sc Scenario, reply string, missing, leaked []string) string {
	var sb strings.Builder
	sb.WriteString("SOURCE RESUME:\n---\n")
	sb.WriteString(sc.Resume)
	sb.WriteString("\n---\n\n")
	if len(sc.Turns) > 0 {
		sb.WriteString("USER MESSAGES:\n")
		for _, t := range sc.Turns {
			sb.WriteString("- " + t + "\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("ASSISTANT FINAL REPLY:\n---\n")
	sb.WriteString(reply)
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("Heuristics: missing_required=%q, corrected_facts_repeated=%q\n\n", missing, leaked))
	sb.WriteString("Score fidelity_score (1-5, 5 = no invented or changed facts) and helpful_score (1-5).\n")
	sb.WriteString(`Respond as {"reasoning": "...", "fidelity_score": n, "helpful_score": n}`)
	return sb.String()
}

// missingFacts devuelve los hechos obligatorios que no aparecen en la respuesta.
func missingFacts(reply string, required []string) []string {
	lower := strings.ToLower(reply)
	var out []string
	for _, f := range required {
		if !strings.Contains(lower, strings.ToLower(f)) {
			out = append(out, f)
		}
	}
	return out
}

// leakedFacts devuelve los hechos ya corregidos que la respuesta repite.
func leakedFacts(reply string, forbidden []string) []string {
	lower := strings.ToLower(reply)
	var out []string
	for _, f := range forbidden {
		if strings.Contains(lower, strings.ToLower(f)) {
			out = append(out, f)
		}
	}
	return out
}

func clamp1to5(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}
