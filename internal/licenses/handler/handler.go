package handler

import (
	"net/http"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/licenses/service"
	"ecoguard_backend/internal/licenses/transport"
	"ecoguard_backend/platform/httpkit"
	"ecoguard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest     = "Requisição inválida"
	msgValidationFailed   = "Falha na validação"
	msgInvalidLicenseID   = "ID de licença inválido"
	msgInvalidConditionID = "ID de condicionante inválido"
	msgInvalidCompanyID   = "empresa_id inválido"
	msgFileRequired       = "Arquivo é obrigatório"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(licenses, conditions *gin.RouterGroup) {
	licenses.GET("", h.List)
	licenses.POST("", h.Create)
	licenses.GET("/indicadores/dashboard", h.Indicators)
	licenses.GET("/:id", h.Get)
	licenses.PUT("/:id", h.Update)
	licenses.DELETE("/:id", h.Delete)
	licenses.POST("/:id/documento", h.UploadDocument)
	licenses.GET("/:id/documento", h.DocumentURL)
	licenses.GET("/:id/condicionantes", h.ListConditions)
	licenses.POST("/:id/condicionantes", h.CreateCondition)
	conditions.PUT("/:id", h.UpdateCondition)
	conditions.DELETE("/:id", h.DeleteCondition)
}

func bindJSON[T any](c *gin.Context, val *validator.Validator) (T, bool) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	if err := val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return req, false
	}
	return req, true
}

// optionalCompanyID reads ?empresa_id, which is optional on listings.
func optionalCompanyID(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("empresa_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCompanyID, nil)
		return nil, false
	}
	return &id, true
}

// List handles GET /api/licencas?empresa_id=
func (h *Handler) List(c *gin.Context) {
	companyID, ok := optionalCompanyID(c)
	if !ok {
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

// Indicators handles GET /api/licencas/indicadores/dashboard?empresa_id=
func (h *Handler) Indicators(c *gin.Context) {
	companyID, ok := optionalCompanyID(c)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.Indicators(c.Request.Context(), actor, companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	req, ok := bindJSON[transport.LicenseRequest](c, h.val)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.Create(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidLicenseID)
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

func (h *Handler) Update(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidLicenseID)
	if !ok {
		return
	}
	req, ok := bindJSON[transport.LicenseRequest](c, h.val)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidLicenseID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.OK(c, gin.H{"message": "Licença excluída"})
}

// UploadDocument handles POST /api/licencas/:id/documento (multipart: arquivo)
func (h *Handler) UploadDocument(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidLicenseID)
	if !ok {
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

	result, err := h.svc.UploadDocument(c.Request.Context(), actor, id, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DocumentURL(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidLicenseID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.DocumentURL(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListConditions(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidLicenseID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.ListConditions(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CreateCondition(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidLicenseID)
	if !ok {
		return
	}
	req, ok := bindJSON[transport.ConditionRequest](c, h.val)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.CreateCondition(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateCondition handles PUT /api/condicionantes/:id
func (h *Handler) UpdateCondition(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidConditionID)
	if !ok {
		return
	}
	req, ok := bindJSON[transport.ConditionRequest](c, h.val)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.UpdateCondition(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteCondition handles DELETE /api/condicionantes/:id
func (h *Handler) DeleteCondition(c *gin.Context) {
	id, ok := httpkit.ParseUUIDParam(c, "id", msgInvalidConditionID)
	if !ok {
		return
	}
	actor, ok := access.MustGetActor(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteCondition(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.OK(c, gin.H{"message": "Condicionante excluída"})
}
