package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionAuthorizer resolves a bearer session token to a user id.
type SessionAuthorizer interface {
	Authorize(token string) (string, error)
}

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:   msg,
		TraceID: GetTraceID(c),
	})
}

// RequireAuth validates the "Authorization: Bearer <token>" header and stores
// the session's user id under UserIDKey.
func RequireAuth(authorizer SessionAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "Invalid Token!")
			return
		}

		userID, err := authorizer.Authorize(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "Invalid Token!")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
