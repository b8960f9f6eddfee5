package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout bounds each request with a deadline carried on the request
// context, so repository calls inherit it. Handlers surface the resulting
// context.DeadlineExceeded through the error middleware, which answers 504.
// The middleware never writes the response itself, so a slow handler never
// races a competing writer.
func Timeout(duration time.Duration) gin.HandlerFunc {
	if duration <= 0 {
		duration = 30 * time.Second
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), duration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
