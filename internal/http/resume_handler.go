package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resume-agent/internal/document"
	"resume-agent/internal/repository"
	"resume-agent/internal/service"
)

const resumePreviewRunes = 500

// ResumeHandler expone las operaciones de sesion bajo /api.
type ResumeHandler struct {
	logger         *zap.Logger
	sessions       *service.ResumeSessionService
	maxUploadBytes int64
}

func NewResumeHandler(logger *zap.Logger, sessions *service.ResumeSessionService, maxUploadBytes int64) *ResumeHandler {
	return &ResumeHandler{
		logger:         logger,
		sessions:       sessions,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload maneja POST /api/upload (multipart, campo "file").
func (h *ResumeHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			abortDetail(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		h.logger.Warn("invalid upload request", zap.Error(err))
		abortDetail(c, http.StatusBadRequest, "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "Failed to process resume")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("read uploaded file failed", zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "Failed to process resume")
		return
	}

	res, err := h.sessions.Upload(c.Request.Context(), content, fileHeader.Filename)
	if err != nil {
		if errors.Is(err, document.ErrInvalidDocument) {
			h.logger.Warn("invalid resume document", zap.String("filename", fileHeader.Filename), zap.Error(err))
			abortDetail(c, http.StatusBadRequest, documentDetail(err))
			return
		}
		h.logger.Error("upload error", zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "Failed to process resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":       res.SessionID,
		"message":          "Resume uploaded and analyzed successfully",
		"resume_text":      previewText(res.ResumeText, resumePreviewRunes),
		"initial_analysis": res.InitialAnalysis,
	})
}

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

// Chat maneja POST /api/chat.
func (h *ResumeHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		abortDetail(c, http.StatusBadRequest, "invalid request")
		return
	}

	reply, err := h.sessions.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("chat error", zap.String("session_id", req.SessionID), zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "Failed to get response")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":   reply,
		"session_id": req.SessionID,
	})
}

// ChatStream maneja POST /api/chat/stream con Server-Sent Events.
// Eventos: "message" por fragmento, "done" al terminar, "error" si el proveedor falla.
func (h *ResumeHandler) ChatStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat stream request", zap.Error(err))
		abortDetail(c, http.StatusBadRequest, "invalid request")
		return
	}

	ctx := c.Request.Context()
	chunks, err := h.sessions.ChatStream(ctx, req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("chat stream error", zap.String("session_id", req.SessionID), zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "Failed to get response")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-chunks:
			if !ok {
				c.SSEvent("done", gin.H{"session_id": req.SessionID})
				c.Writer.Flush()
				return
			}
			if chunk.Err != nil {
				c.SSEvent("error", gin.H{"detail": "Failed to get response"})
				c.Writer.Flush()
				return
			}
			c.SSEvent("message", gin.H{"text": chunk.Text})
			c.Writer.Flush()
		}
	}
}

// SessionInfo maneja GET /api/session/:id.
func (h *ResumeHandler) SessionInfo(c *gin.Context) {
	info, err := h.sessions.Info(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			abortDetail(c, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("session info error", zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "Failed to get session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    info.SessionID,
		"has_resume":    info.HasResume,
		"message_count": info.MessageCount,
		"created_at":    info.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// Improve maneja POST /api/improve?session_id=&target_role=&target_company=.
func (h *ResumeHandler) Improve(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		abortDetail(c, http.StatusBadRequest, "session_id is required")
		return
	}

	suggestions, err := h.sessions.Improve(c.Request.Context(), sessionID, c.Query("target_role"), c.Query("target_company"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			abortDetail(c, http.StatusNotFound, "Session not found")
		case errors.Is(err, service.ErrNoResume):
			abortDetail(c, http.StatusBadRequest, "No resume uploaded for this session")
		case errors.Is(err, service.ErrInvalidInput):
			abortDetail(c, http.StatusBadRequest, "target_role is required")
		default:
			h.logger.Error("improve error", zap.String("session_id", sessionID), zap.Error(err))
			abortDetail(c, http.StatusInternalServerError, "Failed to get suggestions")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Rewrite maneja POST /api/rewrite. No usa sesion.
func (h *ResumeHandler) Rewrite(c *gin.Context) {
	var req struct {
		SectionText string `json:"section_text"`
		SectionType string `json:"section_type"`
		Context     string `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid rewrite request", zap.Error(err))
		abortDetail(c, http.StatusBadRequest, "invalid request")
		return
	}

	rewritten, err := h.sessions.Rewrite(c.Request.Context(), req.SectionText, req.SectionType, req.Context)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			abortDetail(c, http.StatusBadRequest, "section_text and section_type are required")
			return
		}
		h.logger.Error("rewrite error", zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "Failed to rewrite section")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rewritten": rewritten})
}

// DeleteSession maneja DELETE /api/session/:id. Es idempotente.
func (h *ResumeHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("delete session error", zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// documentDetail arma el mensaje publico de un documento invalido ("Failed to parse PDF: ...").
func documentDetail(err error) string {
	var parseErr *document.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Sprintf("Failed to parse %s: %v", parseErr.Format, parseErr.Err)
	}
	var unsupported *document.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return "Unsupported file format: " + unsupported.Filename
	}
	return err.Error()
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// previewText corta a n runas y agrega "..." solo si el texto era mas largo.
func previewText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
