package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resume-agent/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
// jwtSvc nil deja /api sin autenticacion; limiter nil no limita.
func NewRouter(
	logger *zap.Logger,
	resumeH *ResumeHandler,
	jwtSvc *service.JWTService,
	limiter service.RateLimiter,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(corsOrigins), jsonContentTypeMiddleware())

	r.GET("/", Root)
	r.GET("/health", Health)

	api := r.Group("/api")
	if jwtSvc != nil {
		api.Use(JWTAuthMiddleware(jwtSvc))
	}
	api.GET("/session/:id", resumeH.SessionInfo)
	api.DELETE("/session/:id", resumeH.DeleteSession)

	// Rutas que llaman al LLM.
	llmRoutes := api.Group("")
	if limiter != nil {
		llmRoutes.Use(rateLimitMiddleware(limiter))
	}
	llmRoutes.POST("/upload", resumeH.Upload)
	llmRoutes.POST("/chat", resumeH.Chat)
	llmRoutes.POST("/chat/stream", resumeH.ChatStream)
	llmRoutes.POST("/improve", resumeH.Improve)
	llmRoutes.POST("/rewrite", resumeH.Rewrite)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// rateLimitMiddleware limita por subject del token si hay auth, si no por IP.
func rateLimitMiddleware(limiter service.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if claims, ok := GetAuthClaims(c); ok && claims.Subject != "" {
			key = "sub:" + claims.Subject
		}
		if !limiter.Allow(key) {
			abortDetail(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
// El endpoint SSE lo sobreescribe.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
