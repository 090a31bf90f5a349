package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/response"
)

// RequireCapability checks that the caller's role grants the capability.
func RequireCapability(capability model.Capability) gin.HandlerFunc {
	return RequireAnyCapability(capability)
}

// RequireAnyCapability checks that the caller's role grants at least one of
// the capabilities.
func RequireAnyCapability(capabilities ...model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, want := range capabilities {
			if claims.Role.Can(want) {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}
