package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation ID on requests and responses so
// log lines from one submission attempt can be tied together across retries.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key holding the request's ID.
const RequestIDKey = "requestID"

// RequestIDMiddleware honors a caller-supplied ID and mints one otherwise,
// echoing it back on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}
