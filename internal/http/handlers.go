package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-agent/internal/config"
)

// Root maneja GET / con metadata del servicio.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    config.AppName,
		"version": config.AppVersion,
		"status":  "running",
		"endpoints": gin.H{
			"upload":  "POST /api/upload - Upload resume for analysis",
			"chat":    "POST /api/chat - Chat with the resume agent",
			"stream":  "POST /api/chat/stream - Chat with streamed reply (SSE)",
			"improve": "POST /api/improve - Get targeted improvements",
			"rewrite": "POST /api/rewrite - Rewrite a resume section",
			"session": "GET /api/session/{id} - Get session info",
		},
	})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
