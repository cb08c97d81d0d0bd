package auth

import (
	"context"
	"net/http"
	"strings"

	"bizdash/internal/httpx"
	"bizdash/pkg/logger"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// Verifier turns a bearer token into the caller's stable user id.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// verified subject for handlers.
func Middleware(verifier Verifier, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "No authorization header",
				"code":  httpx.ErrorCodeUnauthenticated,
			})
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil || userID == "" {
			log.Warn("rejected bearer token", logger.Field{Key: "path", Value: c.FullPath()}, logger.Err(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid user token",
				"code":  httpx.ErrorCodeUnauthenticated,
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the subject stored by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// SetUserID is used by tests and internal callers that authenticate by
// other means.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}
