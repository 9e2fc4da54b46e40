package users

import (
	"context"
	"net/http"

	"ecoguard_backend/platform/httpkit"
	"ecoguard_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type store interface {
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	repo store
	log  *logger.Logger
}

func NewHandler(repo store, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// List returns every known user (gestor only).
// GET /api/admin/users
func (h *Handler) List(c *gin.Context) {
	result, err := h.repo.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a user with all their companies' data (gestor only).
// DELETE /api/admin/users/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "ID de usuário inválido", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if identity.UserID() == id {
		httpkit.Error(c, http.StatusBadRequest, "Não é possível excluir o próprio usuário", nil)
		return
	}

	if httpkit.HandleError(c, h.repo.Delete(c.Request.Context(), id)) {
		return
	}
	h.log.Info("user deleted", "user_id", id, "by", identity.Email())
	httpkit.OK(c, gin.H{"message": "Usuário excluído"})
}
