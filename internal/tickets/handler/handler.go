package handler

import (
	"net/http"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/plants"
	"ecoguard_backend/internal/tickets/service"
	"ecoguard_backend/internal/tickets/transport"
	"ecoguard_backend/platform/httpkit"
	"ecoguard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidTicketID  = "ID de ticket inválido"
	msgInvalidAreaID    = "area_id inválido"
	msgInvalidCompanyID = "empresa_id inválido"
	msgValidationFailed = "Falha na validação"
	msgPhotoRequired    = "foto é obrigatória"
	msgInvalidPhoto     = "Foto inválida"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/pode-criar", h.CanCreate)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/mensagem", h.AddMessage)
	rg.PUT("/:id/status", h.UpdateStatus)
	rg.POST("/:id/upload-foto", h.UploadPhoto)
	rg.POST("/:id/analise-area", h.AnalyzeArea)
	rg.GET("/:id/relatorio", h.Report)
}

func (h *Handler) validate(c *gin.Context, req any) bool {
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.List(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CanCreate handles GET /api/tickets/pode-criar?empresa_id=
func (h *Handler) CanCreate(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("empresa_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCompanyID, nil)
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.CanCreate(c.Request.Context(), actor, companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidTicketID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidTicketID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.Delete(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddMessage handles POST /api/tickets/:id/mensagem (mensagem, tipo)
func (h *Handler) AddMessage(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidTicketID)
	if !ok {
		return
	}
	req := transport.MessageRequest{
		Message: httpkit.FormOrQuery(c, "mensagem"),
		Kind:    httpkit.FormOrQuery(c, "tipo"),
	}
	if !h.validate(c, req) {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.AddMessage(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateStatus handles PUT /api/tickets/:id/status (status, etapa)
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidTicketID)
	if !ok {
		return
	}
	req := transport.StatusRequest{
		Status: httpkit.FormOrQuery(c, "status"),
		Stage:  httpkit.FormOrQuery(c, "etapa"),
	}
	if !h.validate(c, req) {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.UpdateStatus(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UploadPhoto handles POST /api/tickets/:id/upload-foto (multipart: area_id, foto)
func (h *Handler) UploadPhoto(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidTicketID)
	if !ok {
		return
	}
	areaID, err := uuid.Parse(httpkit.FormOrQuery(c, "area_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAreaID, nil)
		return
	}
	header, err := c.FormFile("foto")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgPhotoRequired, nil)
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}

	file, err := header.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidPhoto, nil)
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.svc.UploadPhoto(c.Request.Context(), actor, id, areaID, plants.FileUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AnalyzeArea handles POST /api/tickets/:id/analise-area (area_id, situacao, observacao?)
func (h *Handler) AnalyzeArea(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidTicketID)
	if !ok {
		return
	}
	areaID, err := uuid.Parse(httpkit.FormOrQuery(c, "area_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAreaID, nil)
		return
	}
	req := transport.VerdictRequest{AreaID: areaID, Verdict: httpkit.FormOrQuery(c, "situacao")}
	if note := httpkit.FormOrQuery(c, "observacao"); note != "" {
		req.Note = &note
	}
	if !h.validate(c, req) {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.AnalyzeArea(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Report handles GET /api/tickets/:id/relatorio
func (h *Handler) Report(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidTicketID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	html, err := h.svc.Report(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
