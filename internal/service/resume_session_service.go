package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resume-agent/internal/document"
	"resume-agent/internal/domain"
	"resume-agent/internal/llm"
	"resume-agent/internal/repository"
)

var (
	// ErrNoResume indica que la sesion existe pero todavia no tiene CV.
	ErrNoResume = errors.New("no resume uploaded for this session")
	// ErrInvalidInput cubre campos obligatorios vacios.
	ErrInvalidInput = errors.New("invalid input")
)

// UploadArchiver guarda el archivo original subido. Es opcional.
type UploadArchiver interface {
	Archive(ctx context.Context, sessionID, filename string, content []byte) (string, error)
}

type UploadResult struct {
	SessionID       string
	ResumeText      string
	InitialAnalysis string
}

type SessionInfo struct {
	SessionID    string
	HasResume    bool
	MessageCount int
	CreatedAt    time.Time
}

// ResumeSessionService orquesta subida, chat y sugerencias sobre el store de sesiones.
// Todas las mutaciones de una misma sesion pasan por un lock por id.
type ResumeSessionService struct {
	repo      repository.ResumeSessionRepository
	extractor document.Extractor
	agent     *ResumeAgent
	detector  CorrectionDetector
	archive   UploadArchiver
	logger    *zap.Logger
	locks     *keyedMutex
	newID     func() string
}

func NewResumeSessionService(
	repo repository.ResumeSessionRepository,
	extractor document.Extractor,
	agent *ResumeAgent,
	detector CorrectionDetector,
	archive UploadArchiver,
	logger *zap.Logger,
) *ResumeSessionService {
	if detector == nil {
		detector = NewPhraseDetector()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeSessionService{
		repo:      repo,
		extractor: extractor,
		agent:     agent,
		detector:  detector,
		archive:   archive,
		logger:    logger,
		locks:     newKeyedMutex(),
		newID:     uuid.NewString,
	}
}

// Upload extrae el texto, crea una sesion nueva y guarda el analisis inicial como primer mensaje.
func (s *ResumeSessionService) Upload(ctx context.Context, content []byte, filename string) (UploadResult, error) {
	if filename == "" {
		filename = "resume.txt"
	}
	resumeText, err := s.extractor.Extract(content, filename)
	if err != nil {
		return UploadResult{}, err
	}

	sessionID := s.newID()
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	// La sesion solo se persiste si el analisis sale bien.
	session := domain.NewSession(sessionID)
	session.SetResume(resumeText)

	analysis, err := s.agent.AnalyzeResume(ctx, resumeText)
	if err != nil {
		return UploadResult{}, fmt.Errorf("analyze resume: %w", err)
	}
	session.AppendMessage(domain.RoleAssistant, analysis)

	if err := s.repo.Save(ctx, session); err != nil {
		return UploadResult{}, fmt.Errorf("save session: %w", err)
	}

	if s.archive != nil {
		key, err := s.archive.Archive(ctx, sessionID, filename, content)
		if err != nil {
			s.logger.Warn("upload archive failed", zap.String("session_id", sessionID), zap.Error(err))
		} else {
			s.logger.Debug("upload archived", zap.String("session_id", sessionID), zap.String("key", key))
		}
	}

	return UploadResult{
		SessionID:       sessionID,
		ResumeText:      resumeText,
		InitialAnalysis: analysis,
	}, nil
}

// Chat agrega el turno del usuario y la respuesta del agente. Si el LLM falla, el mensaje
// del usuario (y la correccion detectada) quedan igualmente en la sesion.
func (s *ResumeSessionService) Chat(ctx context.Context, sessionID, message string) (string, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, history, err := s.beginTurn(ctx, sessionID, message)
	if err != nil {
		return "", err
	}

	reply, err := s.agent.Chat(ctx, message, history, session.ResumeText, session.Corrections)
	if err != nil {
		s.saveAfterFailure(ctx, session)
		return "", fmt.Errorf("agent chat: %w", err)
	}

	session.AppendMessage(domain.RoleAssistant, reply)
	if err := s.repo.Save(ctx, session); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return reply, nil
}

// ChatStream es Chat con respuesta incremental. El lock de la sesion se mantiene hasta que el
// stream termina; la respuesta completa se guarda solo si el stream cierra sin error.
func (s *ResumeSessionService) ChatStream(ctx context.Context, sessionID, message string) (<-chan llm.StreamChunk, error) {
	unlock := s.locks.Lock(sessionID)

	session, history, err := s.beginTurn(ctx, sessionID, message)
	if err != nil {
		unlock()
		return nil, err
	}

	upstream, err := s.agent.ChatStream(ctx, message, history, session.ResumeText, session.Corrections)
	if err != nil {
		s.saveAfterFailure(ctx, session)
		unlock()
		return nil, fmt.Errorf("agent stream: %w", err)
	}

	out := make(chan llm.StreamChunk)
	go func() {
		defer unlock()
		defer close(out)

		var sb strings.Builder
		for chunk := range upstream {
			select {
			case out <- chunk:
			case <-ctx.Done():
				s.saveAfterFailure(ctx, session)
				return
			}
			if chunk.Err != nil {
				s.logger.Error("chat stream failed", zap.String("session_id", sessionID), zap.Error(chunk.Err))
				s.saveAfterFailure(ctx, session)
				return
			}
			sb.WriteString(chunk.Text)
		}

		if ctx.Err() != nil {
			s.saveAfterFailure(ctx, session)
			return
		}
		session.AppendMessage(domain.RoleAssistant, sb.String())
		if err := s.repo.Save(ctx, session); err != nil {
			s.logger.Error("save streamed reply failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	return out, nil
}

// Improve pide sugerencias para un rol objetivo sobre el CV de la sesion.
func (s *ResumeSessionService) Improve(ctx context.Context, sessionID, targetRole, targetCompany string) (string, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !session.HasResume() || *session.ResumeText == "" {
		return "", ErrNoResume
	}
	if strings.TrimSpace(targetRole) == "" {
		return "", fmt.Errorf("%w: target_role is required", ErrInvalidInput)
	}

	suggestions, err := s.agent.SuggestImprovements(ctx, *session.ResumeText, targetRole, targetCompany)
	if err != nil {
		return "", fmt.Errorf("suggest improvements: %w", err)
	}
	return suggestions, nil
}

// Rewrite no toca ninguna sesion.
func (s *ResumeSessionService) Rewrite(ctx context.Context, sectionText, sectionType, extraContext string) (string, error) {
	if strings.TrimSpace(sectionText) == "" || strings.TrimSpace(sectionType) == "" {
		return "", fmt.Errorf("%w: section_text and section_type are required", ErrInvalidInput)
	}
	rewritten, err := s.agent.RewriteSection(ctx, sectionText, sectionType, extraContext)
	if err != nil {
		return "", fmt.Errorf("rewrite section: %w", err)
	}
	return rewritten, nil
}

func (s *ResumeSessionService) Info(ctx context.Context, sessionID string) (SessionInfo, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{
		SessionID:    session.ID,
		HasResume:    session.HasResume(),
		MessageCount: len(session.Messages),
		CreatedAt:    session.CreatedAt,
	}, nil
}

func (s *ResumeSessionService) Delete(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.repo.Delete(ctx, sessionID)
}

// beginTurn carga (o crea) la sesion, registra la correccion si aplica y agrega el mensaje del usuario.
// Devuelve el historial previo al mensaje.
func (s *ResumeSessionService) beginTurn(ctx context.Context, sessionID, message string) (domain.Session, []domain.Message, error) {
	session, err := s.repo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return domain.Session{}, nil, fmt.Errorf("get session: %w", err)
	}

	if s.detector.IsCorrection(message) {
		session.AppendCorrection(message)
		s.logger.Info("user correction detected",
			zap.String("session_id", sessionID),
			zap.String("message", truncateRunes(message, 100)),
		)
	}

	history := append([]domain.Message(nil), session.Messages...)
	session.AppendMessage(domain.RoleUser, message)
	return session, history, nil
}

func (s *ResumeSessionService) saveAfterFailure(ctx context.Context, session domain.Session) {
	if err := s.repo.Save(context.WithoutCancel(ctx), session); err != nil {
		s.logger.Error("save session after failure", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
