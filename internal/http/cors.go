package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// corsMiddleware responde preflights y agrega headers CORS para los origenes permitidos.
// "*" acepta cualquier origen; las credenciales solo se habilitan para origenes explicitos.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		explicit := false
		for _, o := range allowedOrigins {
			if o == "*" {
				allowed = true
			}
			if origin != "" && o == origin {
				allowed = true
				explicit = true
			}
		}

		if allowed && origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
			if explicit {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
