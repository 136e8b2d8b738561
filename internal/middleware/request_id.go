package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"group-order-service/internal/observability"
)

// RequestID ensures every request carries a request id, propagated from the
// X-Request-Id header or freshly generated, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := observability.RequestIDFromRequest(c.Request)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}
