package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxUserClaims = "skillswap_user_claims"

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(h, "Bearer "), true
}

// RequireUserToken rejects requests without a valid Bearer session token
// and stores the claims for UserClaimsFromCtx.
func RequireUserToken(tokens *UserTokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer user token required"})
			return
		}
		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid user token"})
			return
		}
		c.Set(ctxUserClaims, claims)
		c.Next()
	}
}

// OptionalUserToken stores claims when a valid token is present and lets
// anonymous requests through.
func OptionalUserToken(tokens *UserTokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if claims, err := tokens.Verify(tokenStr); err == nil {
				c.Set(ctxUserClaims, claims)
			}
		}
		c.Next()
	}
}

// UserClaimsFromCtx returns the claims stored by the middleware, or nil.
func UserClaimsFromCtx(c *gin.Context) *UserTokenClaims {
	v, _ := c.Get(ctxUserClaims)
	claims, _ := v.(*UserTokenClaims)
	return claims
}
