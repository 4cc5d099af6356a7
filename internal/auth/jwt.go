package auth

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/your-org/liftlog/internal/apperr"
)

const (
	contextUIDKey  = "liftlog.uid"
	contextNameKey = "liftlog.name"
)

// Claims are the identity provider's token claims. The subject is the uid.
type Claims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// BearerMiddleware resolves the caller from an HS256 bearer token. Requests
// without a token pass through anonymously; a token that is present but
// invalid or expired is rejected as unauthenticated.
func BearerMiddleware(secret, issuer string) gin.HandlerFunc {
	var opts []jwt.ParserOption
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			_ = c.Error(apperr.Unauthenticated("malformed authorization header"))
			c.Abort()
			return
		}

		claims := &Claims{}
		parsed, err := parser.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			if secret == "" {
				return nil, fmt.Errorf("no signing secret configured")
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			_ = c.Error(apperr.Wrap(apperr.CodeUnauthenticated, "invalid or expired token", err))
			c.Abort()
			return
		}

		c.Set(contextUIDKey, claims.Subject)
		c.Set(contextNameKey, claims.Name)
		c.Next()
	}
}

// RequireUser rejects requests that carry no caller identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			_ = c.Error(apperr.FailedPrecondition("sign in required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's uid.
func UserID(c *gin.Context) (string, bool) {
	uid := c.GetString(contextUIDKey)
	return uid, uid != ""
}

// UserName returns the display name from the caller's token, if any.
func UserName(c *gin.Context) string {
	return c.GetString(contextNameKey)
}
