package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoCache disables client and proxy caching, used on endpoints whose
// responses must always reflect the latest store state.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
