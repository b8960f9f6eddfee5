package patient

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/middleware"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/patient"
)

// 10 MB cap on uploaded documents.
const maxDocumentSize = 10 << 20

type Handler struct {
	service *patient.Service
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service *patient.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.authMW.RequirePermission(model.PermPatientsWrite), h.Create)
		patients.GET("", h.authMW.RequirePermission(model.PermPatientsRead), h.List)
		patients.GET("/stats", h.authMW.RequirePermission(model.PermPatientsRead), h.Stats)
		patients.GET("/:id", h.authMW.RequirePermission(model.PermPatientsRead), h.Get)
		patients.PUT("/:id", h.authMW.RequirePermission(model.PermPatientsWrite), h.Update)
		patients.DELETE("/:id", h.authMW.RequirePermission(model.PermPatientsWrite), h.Delete)

		patients.POST("/:id/records", h.authMW.RequirePermission(model.PermRecordsWrite), h.AddRecord)
		patients.GET("/:id/records", h.authMW.RequirePermission(model.PermRecordsRead), h.ListRecords)
		patients.GET("/:id/records/:recordId", h.authMW.RequirePermission(model.PermRecordsRead), h.GetRecord)
		patients.GET("/:id/records/:recordId/document", h.authMW.RequirePermission(model.PermRecordsRead), h.DownloadDocument)
		patients.POST("/:id/documents", h.authMW.RequirePermission(model.PermRecordsWrite), h.UploadDocument)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Create(c.Request.Context(), &req, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, &req, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
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
	c.JSON(http.StatusOK, handler.NewMessageResponse("patient deleted"))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.PatientFilters{
		Search:     c.Query("search"),
		BloodGroup: c.Query("blood_group"),
	}
	if active := c.Query("active"); active != "" {
		val := active == "true"
		filters.Active = &val
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patients, total, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{
		Items: patients,
		Total: total,
		Page:  filters.Page,
	}))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) AddRecord(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	record, err := h.service.CreateRecord(c.Request.Context(), id, &req, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(record))
}

func (h *Handler) ListRecords(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	filters := &model.RecordFilters{
		Type: model.RecordType(c.Query("type")),
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

	records, err := h.service.ListRecords(c.Request.Context(), id, filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

func (h *Handler) GetRecord(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "recordId")
	if !ok {
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), id, recordID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(record))
}

// UploadDocument accepts a multipart upload and stores it as a document
// record on the patient.
func (h *Handler) UploadDocument(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("document file is required"))
		return
	}
	if fileHeader.Size > maxDocumentSize {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("document exceeds size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read document"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read document"))
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}

	record, err := h.service.AttachDocument(c.Request.Context(), id, title,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(record))
}

func (h *Handler) DownloadDocument(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "recordId")
	if !ok {
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), id, recordID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if len(record.Document) == 0 {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("record has no document"))
		return
	}

	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+record.DocumentName+`"`)
	c.Data(http.StatusOK, contentType, record.Document)
}
