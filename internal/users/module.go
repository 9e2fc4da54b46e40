package users

import (
	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	repo    *Repository
	handler *Handler
}

func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	return &Module{repo: repo, handler: NewHandler(repo, log)}
}

func (m *Module) Name() string {
	return "users"
}

// Repository is shared with modules that record the acting user.
func (m *Module) Repository() *Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Manager.Group("/admin/users")
	group.GET("", m.handler.List)
	group.DELETE("/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)
