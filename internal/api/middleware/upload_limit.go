package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
)

// UploadLimit rejects bodies larger than maxMB. A declared Content-Length
// over the limit fails at once; other bodies are cut off while reading.
func UploadLimit(maxMB int) gin.HandlerFunc {
	maxBytes := int64(maxMB) * 1024 * 1024
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			status, msg := apperr.Status(apperr.SizeLimitExceeded(maxMB))
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
