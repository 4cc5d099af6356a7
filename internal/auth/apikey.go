package auth

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/your-org/liftlog/internal/apperr"
)

const headerName = "X-API-Key"

// APIKeyMiddleware validates the API key from the X-API-Key header. It
// guards the identity provider hook. If apiKey is empty, the check is off.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(headerName)
		if provided == "" {
			_ = c.Error(apperr.Unauthenticated("missing API key"))
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			_ = c.Error(apperr.PermissionDenied("invalid API key"))
			c.Abort()
			return
		}

		c.Next()
	}
}
