package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Error hands err to the error middleware, which maps it to a status and
// writes the envelope.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseUUIDParam parses a path parameter as a UUID, writing a 400 itself
// when the value is malformed.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
