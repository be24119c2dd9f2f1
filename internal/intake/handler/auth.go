package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-API-Key"

// APIKeyAuth returns a Gin middleware that checks the X-API-Key header
// against the configured allow-list. Keys are compared as SHA-256 digests in
// constant time so neither key length nor matching prefix length leaks
// through response timing. A missing, empty, or unknown key gets the same
// 401 body.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	digests := make([][32]byte, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		digests = append(digests, sha256.Sum256([]byte(k)))
	}

	return func(c *gin.Context) {
		presented := sha256.Sum256([]byte(c.GetHeader(apiKeyHeader)))

		ok := false
		for _, d := range digests {
			if subtle.ConstantTimeCompare(presented[:], d[:]) == 1 {
				ok = true
			}
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing API key",
			})
			return
		}
		c.Next()
	}
}
