package alerts

import (
	"context"
	"strconv"

	"ecoguard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
)

type historyReader interface {
	ListHistory(ctx context.Context, limit int) ([]Dispatch, error)
}

type Handler struct {
	sweeper Sweeper
	history historyReader
}

func NewHandler(sweeper Sweeper, history historyReader) *Handler {
	return &Handler{sweeper: sweeper, history: history}
}

// Sweep handles POST /api/alertas/verificar. The sweep outlives a client
// disconnect: markers are written before the emails go out.
func (h *Handler) Sweep(c *gin.Context) {
	result, err := h.sweeper.Sweep(context.WithoutCancel(c.Request.Context()))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History handles GET /api/alertas/historico?limit=
func (h *Handler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxHistoryLimit)
		}
	}
	result, err := h.history.ListHistory(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	if result == nil {
		result = []Dispatch{}
	}
	httpkit.OK(c, result)
}
