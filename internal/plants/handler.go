package plants

import (
	"net/http"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/platform/httpkit"
	"ecoguard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "Requisição inválida"
	msgValidationFailed = "Falha na validação"
	msgInvalidPlanID    = "ID de planta inválido"
	msgInvalidAreaID    = "ID de área inválido"
	msgInvalidCompanyID = "empresa_id inválido"
	msgFileRequired     = "Arquivo é obrigatório"
)

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(plans, areas *gin.RouterGroup) {
	plans.POST("", h.Upload)
	plans.GET("", h.List)
	plans.GET("/:id", h.Get)
	plans.GET("/:id/arquivo", h.FileURL)
	plans.POST("/:id/areas", h.AddArea)
	plans.GET("/:id/areas", h.ListAreas)
	areas.GET("/:id/foto-cliente", h.AreaPhotoURL)
}

// Upload handles POST /api/plantas (multipart: empresa_id, nome, arquivo)
func (h *Handler) Upload(c *gin.Context) {
	companyID, err := uuid.Parse(httpkit.FormOrQuery(c, "empresa_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCompanyID, nil)
		return
	}
	header, err := c.FormFile("arquivo")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgFileRequired, nil)
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}

	file, err := header.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgFileRequired, nil)
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.svc.Upload(c.Request.Context(), actor, companyID, httpkit.FormOrQuery(c, "nome"), FileUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List handles GET /api/plantas?empresa_id=
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
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidPlanID)
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

func (h *Handler) FileURL(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidPlanID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.FileURL(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddArea handles POST /api/plantas/:id/areas (gestor)
func (h *Handler) AddArea(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidPlanID)
	if !ok {
		return
	}
	var req CreateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.AddArea(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) ListAreas(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidPlanID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.ListAreas(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AreaPhotoURL handles GET /api/areas/:id/foto-cliente
func (h *Handler) AreaPhotoURL(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidAreaID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.AreaPhotoURL(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
