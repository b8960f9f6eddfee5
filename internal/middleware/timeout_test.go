package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/pkg/logger"
)

func timeoutEngine(d time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewLogger(&logger.Config{Output: io.Discard})

	engine := gin.New()
	engine.Use(ErrorHandler(log), Timeout(d))
	engine.GET("/slow", func(c *gin.Context) {
		ctx := c.Request.Context()
		select {
		case <-ctx.Done():
			handler.Error(c, ctx.Err())
		case <-time.After(time.Second):
			c.JSON(http.StatusOK, handler.NewMessageResponse("done"))
		}
	})
	engine.GET("/fast", func(c *gin.Context) {
		c.JSON(http.StatusOK, handler.NewMessageResponse("done"))
	})
	return engine
}

func TestTimeoutAnswers504(t *testing.T) {
	engine := timeoutEngine(5 * time.Millisecond)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "request timeout")
}

func TestTimeoutLeavesFastRequestsAlone(t *testing.T) {
	engine := timeoutEngine(time.Second)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
