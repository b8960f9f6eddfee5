package inventory

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/middleware"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/inventory"
)

type Handler struct {
	service *inventory.Service
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service *inventory.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	items := r.Group("/inventory")
	{
		items.POST("", h.authMW.RequirePermission(model.PermInventoryWrite), h.Create)
		items.GET("", h.authMW.RequirePermission(model.PermInventoryRead), h.List)
		items.GET("/stats", h.authMW.RequirePermission(model.PermInventoryRead), h.Stats)
		items.GET("/low-stock", h.authMW.RequirePermission(model.PermInventoryRead), h.LowStock)
		items.GET("/expiring", h.authMW.RequirePermission(model.PermInventoryRead), h.Expiring)
		items.GET("/:id", h.authMW.RequirePermission(model.PermInventoryRead), h.Get)
		items.PUT("/:id", h.authMW.RequirePermission(model.PermInventoryWrite), h.Update)
		items.DELETE("/:id", h.authMW.RequirePermission(model.PermInventoryWrite), h.Delete)
		items.PATCH("/:id/stock", h.authMW.RequirePermission(model.PermInventoryWrite), h.AdjustStock)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	item, err := h.service.Create(c.Request.Context(), &req, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(item))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(item))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	item, err := h.service.Update(c.Request.Context(), id, &req, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(item))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("inventory item deleted"))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.InventoryFilters{
		Category: model.InventoryCategory(c.Query("category")),
		Search:   c.Query("search"),
	}
	if active := c.Query("active"); active != "" {
		val := active == "true"
		filters.Active = &val
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	items, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	item, err := h.service.AdjustStock(c.Request.Context(), id, &req, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(item))
}

func (h *Handler) LowStock(c *gin.Context) {
	items, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) Expiring(c *gin.Context) {
	within := 30 * 24 * time.Hour
	if days := c.Query("days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid days"))
			return
		}
		within = time.Duration(d) * 24 * time.Hour
	}

	items, err := h.service.ListExpiring(c.Request.Context(), within)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
