package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-api/helpers"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with the incoming X-Request-ID or a new uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(helpers.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
