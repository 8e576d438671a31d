package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"resume-agent/internal/config"
	"resume-agent/internal/document"
	"resume-agent/internal/llm"
	"resume-agent/internal/repository"
	"resume-agent/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

// Scenario sube un CV, envia los turnos y evalua la ultima respuesta.
type Scenario struct {
	Name           string
	Resume         string
	Turns          []string
	RequiredFacts  []string
	ForbiddenFacts []string
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	llmClient := llm.NewAnthropicClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.LLMModel, cfg.MaxTokens, cfg.LLMTimeout, logger)
	svc := service.NewResumeSessionService(
		repository.NewMemorySessionRepository(0, 0),
		document.FileExtractor{},
		service.NewResumeAgent(llmClient),
		service.NewPhraseDetector(),
		nil,
		logger,
	)

	scenarios := []Scenario{
		{
			Name:   "Nombre de empresa exacto",
			Resume: "Jane Doe\nSenior Data Analyst, Dentsu Americas (2019-2023)\nB.S. Statistics, Georgia State University",
			Turns: []string{
				"Rewrite my experience section for a Data Scientist role.",
			},
			RequiredFacts:  []string{"Dentsu Americas"},
			ForbiddenFacts: []string{"Dentsu International", "University of Georgia"},
		},
		{
			Name:   "Correccion del usuario",
			Resume: "John Smith\nSoftware Engineer, Initech (2018-2022)\nM.S. Computer Science, Georgia Tech",
			Turns: []string{
				"Actually, I never worked at Initech, it was Initrode.",
				"Now write a one-line summary of my experience.",
			},
			RequiredFacts:  []string{"Initrode"},
			ForbiddenFacts: []string{"Initech"},
		},
	}

	var totalFid, totalHelp, evaluated int
	for _, sc := range scenarios {
		fmt.Printf("%s[Escenario]%s %s\n", colorCyan, colorReset, sc.Name)

		up, err := svc.Upload(ctx, []byte(sc.Resume), "resume.txt")
		if err != nil {
			log.Printf("upload: %v", err)
			continue
		}

		var reply string
		for _, turn := range sc.Turns {
			reply, err = svc.Chat(ctx, up.SessionID, turn)
			if err != nil {
				break
			}
		}
		if err != nil {
			log.Printf("chat: %v", err)
			continue
		}

		jr, err := evaluateReply(ctx, llmClient, sc, reply)
		if err != nil {
			log.Printf("judge: %v", err)
			continue
		}

		color := colorGreen
		if jr.FidelityScore <= 2 {
			color = colorRed
		}
		fmt.Printf("%sFidelity %d/5%s  Helpful %d/5\n", color, jr.FidelityScore, colorReset, jr.HelpfulScore)
		fmt.Printf("Razonamiento: %s\n%s\n", jr.Reasoning, strings.Repeat("-", 40))

		totalFid += jr.FidelityScore
		totalHelp += jr.HelpfulScore
		evaluated++
	}

	if evaluated == 0 {
		log.Fatal("no scenario could be evaluated")
	}
	fmt.Printf("Promedio: fidelity %.2f, helpful %.2f\n",
		float64(totalFid)/float64(evaluated), float64(totalHelp)/float64(evaluated))
}
