package checklist

import (
	"context"

	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	repo    *Repository
	handler *Handler
}

func NewModule(pool *pgxpool.Pool) *Module {
	repo := NewRepository(pool)
	return &Module{repo: repo, handler: NewHandler(repo)}
}

func (m *Module) Name() string {
	return "checklist"
}

// SeedCatalog loads the embedded catalog into storage.
func (m *Module) SeedCatalog(ctx context.Context, log *logger.Logger) error {
	items, err := LoadCatalog()
	if err != nil {
		return err
	}
	inserted, err := m.repo.Seed(ctx, items)
	if err != nil {
		return err
	}
	log.Info("checklist catalog seeded", "items", len(items), "inserted", inserted)
	return nil
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/checklist", m.handler.List)
}

var _ apphttp.Module = (*Module)(nil)
