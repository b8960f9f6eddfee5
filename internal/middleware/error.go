package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
)

// ErrorHandler converts errors attached to the context into the standard
// response envelope. Unknown errors are masked as 500s; their detail goes
// to the log, not the client.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		lastErr := c.Errors.Last().Err
		status := apperrors.StatusOf(lastErr)

		if status >= 500 {
			log.ZL.Error().
				Err(lastErr).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("request failed")
		}

		if !c.Writer.Written() {
			c.JSON(status, handler.NewErrorResponse(apperrors.MessageOf(lastErr)))
		}
	}
}
