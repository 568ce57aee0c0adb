package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken extracts the raw token from an "Authorization: Bearer" header.
func BearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// RequireBearer rejects requests without a bearer token and stashes the raw
// token for the handler. Verification happens in the identity service.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":      "unauthorized",
					"message":   "Missing or invalid Authorization header",
					"requestId": c.GetString(CtxRequestID),
				},
			})
			return
		}

		c.Set(CtxAccessToken, raw)
		c.Next()
	}
}

func AccessTokenFrom(c *gin.Context) string {
	return c.GetString(CtxAccessToken)
}
