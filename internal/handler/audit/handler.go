package audit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/middleware"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service *audit.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/activity", h.authMW.RequirePermission(model.PermActivityRead), h.List)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.ActivityFilters{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if uid := c.Query("user_id"); uid != "" {
		id, err := uuid.Parse(uid)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user_id"))
			return
		}
		filters.UserID = id
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.DateFrom = t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.DateTo = t
		}
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entries, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}
