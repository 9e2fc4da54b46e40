package handler

import (
	"net/http"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/inspections/service"
	"ecoguard_backend/internal/inspections/transport"
	"ecoguard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidInspectionID = "ID de inspeção inválido"
	msgInvalidItemID       = "ID de item inválido"
	msgInvalidCompanyID    = "empresa_id inválido"
	msgInvalidPlanID       = "planta_id inválido"
	msgAnswerRequired      = "resposta é obrigatória"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/items", h.ListItems)
	rg.PUT("/:id/items/:item_id", h.Answer)
	rg.GET("/:id/items/:item_id/foto", h.ItemPhotoURL)
	rg.POST("/:id/complete", h.Complete)
}

// Create handles POST /api/inspecoes?empresa_id=&planta_id=
func (h *Handler) Create(c *gin.Context) {
	companyID, err := uuid.Parse(httpkit.FormOrQuery(c, "empresa_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCompanyID, nil)
		return
	}
	planID, err := uuid.Parse(httpkit.FormOrQuery(c, "planta_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidPlanID, nil)
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.Create(c.Request.Context(), actor, companyID, planID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List handles GET /api/inspecoes?empresa_id=
func (h *Handler) List(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("empresa_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCompanyID, nil)
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.List(c.Request.Context(), actor, companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidInspectionID)
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

func (h *Handler) ListItems(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidInspectionID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.ListItems(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Answer handles PUT /api/inspecoes/:id/items/:item_id
// (multipart: resposta, observacao?, foto?)
func (h *Handler) Answer(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidInspectionID)
	if !ok {
		return
	}
	itemID, ok := httpkit.ParseUUIDParam(c, "item_id", msgInvalidItemID)
	if !ok {
		return
	}
	answer := httpkit.FormOrQuery(c, "resposta")
	if answer == "" {
		httpkit.Error(c, http.StatusBadRequest, msgAnswerRequired, nil)
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}

	req := transport.AnswerRequest{Answer: answer}
	if note := httpkit.FormOrQuery(c, "observacao"); note != "" {
		req.Note = &note
	}
	if header, err := c.FormFile("foto"); err == nil {
		file, err := header.Open()
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "Foto inválida", nil)
			return
		}
		defer func() { _ = file.Close() }()
		req.Photo = &transport.Photo{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      file,
		}
	}

	result, err := h.svc.Answer(c.Request.Context(), actor, id, itemID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ItemPhotoURL(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidInspectionID)
	if !ok {
		return
	}
	itemID, ok := httpkit.ParseUUIDParam(c, "item_id", msgInvalidItemID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.ItemPhotoURL(c.Request.Context(), actor, id, itemID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Complete handles POST /api/inspecoes/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidInspectionID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.Complete(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
