package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Maclenn77/ticha/models"
)

// Auth returns API-key middleware. A key arrives either as an X-API-Key
// header or as a bearer token; an empty key list disables the check.
func Auth(apiKeys []string) gin.HandlerFunc {
	if len(apiKeys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			unauthorized(c, "missing API key: send X-API-Key or Authorization: Bearer <key>")
			return
		}
		if !keyMatches(apiKeys, key) {
			unauthorized(c, "invalid API key")
			return
		}

		// The rate limiter downstream buckets by this.
		c.Set("api_key", key)
		c.Next()
	}
}

// requestKey pulls the API key out of the request, X-API-Key first.
func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// keyMatches checks key against every configured key without early exit, so
// comparison timing does not depend on match position.
func keyMatches(apiKeys []string, key string) bool {
	ok := false
	for _, candidate := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			ok = true
		}
	}
	return ok
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ScrapeAPIResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
