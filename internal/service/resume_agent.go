package service

import (
	"context"

	"resume-agent/internal/domain"
	"resume-agent/internal/llm"
)

// ResumeAgent envia los prompts al LLM con la persona del revisor y devuelve el texto tal cual.
type ResumeAgent struct {
	llmClient llm.Client
	prompts   PromptBuilder
}

func NewResumeAgent(llmClient llm.Client) *ResumeAgent {
	return &ResumeAgent{llmClient: llmClient}
}

func (a *ResumeAgent) AnalyzeResume(ctx context.Context, resumeText string) (string, error) {
	return a.complete(ctx, a.prompts.AnalysisMessages(resumeText))
}

// Chat continua la conversacion. history es el transcript previo, sin el mensaje actual.
func (a *ResumeAgent) Chat(ctx context.Context, message string, history []domain.Message, resumeText *string, corrections []string) (string, error) {
	return a.complete(ctx, a.prompts.ChatMessages(message, history, resumeText, corrections))
}

func (a *ResumeAgent) ChatStream(ctx context.Context, message string, history []domain.Message, resumeText *string, corrections []string) (<-chan llm.StreamChunk, error) {
	return a.llmClient.Stream(ctx, llm.CompletionRequest{
		System:   ExpertSystemPrompt,
		Messages: a.prompts.ChatMessages(message, history, resumeText, corrections),
	})
}

func (a *ResumeAgent) SuggestImprovements(ctx context.Context, resumeText, targetRole, targetCompany string) (string, error) {
	return a.complete(ctx, a.prompts.ImprovementMessages(resumeText, targetRole, targetCompany))
}

func (a *ResumeAgent) RewriteSection(ctx context.Context, sectionText, sectionType, extraContext string) (string, error) {
	return a.complete(ctx, a.prompts.RewriteMessages(sectionText, sectionType, extraContext))
}

func (a *ResumeAgent) complete(ctx context.Context, messages []llm.Message) (string, error) {
	return a.llmClient.Complete(ctx, llm.CompletionRequest{
		System:   ExpertSystemPrompt,
		Messages: messages,
	})
}
