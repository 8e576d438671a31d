package repository

import (
	"context"
	"errors"

	"resume-agent/internal/domain"
)

// ErrSessionNotFound se devuelve cuando el id no corresponde a ninguna sesion.
var ErrSessionNotFound = errors.New("session not found")

// ResumeSessionRepository define el contrato de persistencia para sesiones de revision de CV.
type ResumeSessionRepository interface {
	// GetOrCreate es idempotente: repetir el id devuelve la misma sesion (mismo CreatedAt).
	GetOrCreate(ctx context.Context, id string) (domain.Session, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	// Delete no falla si la sesion no existe.
	Delete(ctx context.Context, id string) error
}
