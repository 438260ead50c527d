package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/auth"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

const HeaderTableID = "X-Table-Id"

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(token string) (auth.AccessClaims, error)
}

// Auth requires a valid bearer token and stores its subject as the user id.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": constants.ErrTokenMissing})
			return
		}

		claims, err := tokens.ParseAccessToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": constants.ErrTokenInvalid})
			return
		}
		c.Set(constants.ContextKeyUserID, claims.Subject)
		c.Next()
	}
}

// TableID requires X-Table-Id between MinTableID and MaxTableID.
func TableID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderTableID))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": constants.ErrTableIDRequired})
			return
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": constants.ErrTableIDNotNumber})
			return
		}
		if id < constants.MinTableID || id > constants.MaxTableID {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": constants.ErrTableIDOutOfRange})
			return
		}
		c.Set(constants.ContextKeyTableID, id)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside Auth.
func UserID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUserID)
}

// GetTableID returns the table selected by TableID, or 0.
func GetTableID(c *gin.Context) int {
	return c.GetInt(constants.ContextKeyTableID)
}
