package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

const roleAdmin = "admin"

// principal is the authenticated caller extracted from the bearer token.
type principal struct {
	UserID string
	Role   string
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// authRequired verifies the bearer token and stores the principal on the
// request context. Tokens are HS256 signed with the shared secret.
func authRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respond(c, http.StatusUnauthorized, nil, "missing bearer token")
			c.Abort()
			return
		}

		claims := &accessClaims{}
		parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			respond(c, http.StatusUnauthorized, nil, "invalid token")
			c.Abort()
			return
		}

		c.Set(principalKey, principal{UserID: claims.Subject, Role: claims.Role})
		c.Next()
	}
}

// adminRequired must run after authRequired.
func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentPrincipal(c).Role != roleAdmin {
			respond(c, http.StatusForbidden, nil, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return principal{}
	}
	p, _ := v.(principal)
	return p
}
