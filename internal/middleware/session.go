package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/lms-backend/internal/response"
	"github.com/stemsi/lms-backend/internal/service"
)

// SessionChecker reports whether a token's JTI is still the user's active session.
type SessionChecker interface {
	ValidateSession(ctx context.Context, userID int, jti string) error
}

// CheckSession rejects tokens whose JTI is no longer the active session in
// Redis (logged out, or replaced by a newer login).
func CheckSession(sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := sessions.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			if !errors.Is(err, service.ErrSessionInvalid) {
				_ = c.Error(err)
			}
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
