package checklist

import (
	"context"
	"strings"

	"ecoguard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type lister interface {
	List(ctx context.Context, areaType string) ([]Item, error)
}

type Handler struct {
	repo lister
}

func NewHandler(repo lister) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/checklist?tipo_area=
func (h *Handler) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context(), strings.TrimSpace(c.Query("tipo_area")))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}
