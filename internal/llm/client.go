package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured se devuelve cuando no hay API key para el proveedor.
var ErrNotConfigured = errors.New("ANTHROPIC_API_KEY not configured")

// Message es un turno role/content tal como lo espera el proveedor.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest agrupa lo que viaja en cada llamada al LLM.
type CompletionRequest struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// StreamChunk es un fragmento de texto incremental. Err marca el final con error.
type StreamChunk struct {
	Text string
	Err  error
}

// Client define la interfaz para generar respuestas con un LLM.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
}
