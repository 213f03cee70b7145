package response

import "github.com/gin-gonic/gin"

// The public API speaks the flat JSON contract the exam clients expect:
// mutations answer {"success": true, ...} and failures answer
// {"error": "..."} with an HTTP status carrying the taxonomy
// (400 validation, 404 not found, 405 method, 500 storage).

// Err sends a flat error body with the given status.
func Err(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// ErrDetails sends a flat error body with an extra details field,
// used where the storage backend supplied a message worth surfacing.
func ErrDetails(c *gin.Context, status int, msg, details string) {
	c.JSON(status, gin.H{"error": msg, "details": details})
}

// OK sends {"success": true} for mutations with no further payload.
func OK(c *gin.Context) {
	c.JSON(200, gin.H{"success": true})
}
