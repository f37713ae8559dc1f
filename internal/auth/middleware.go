package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey = "claims"
	tokenKey  = "token"
)

// UserAuth enforces bearer JWT tokens signed with HS256 and rejects tokens
// revoked by logout.
func UserAuth(signingKey, issuer string, denylist Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		if denylist != nil {
			revoked, err := denylist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Printf("denylist check failed: %v", err)
			} else if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "token revoked"})
				return
			}
		}
		c.Set(claimsKey, claims)
		c.Set(tokenKey, tokenStr)
		c.Next()
	}
}

// ClaimsFrom extracts the authenticated claims set by UserAuth.
func ClaimsFrom(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

// TokenFrom extracts the raw bearer token set by UserAuth.
func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}
