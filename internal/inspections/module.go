// Package inspections provides the checklist-driven inspection module.
package inspections

import (
	"ecoguard_backend/internal/adapters/storage"
	"ecoguard_backend/internal/events"
	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/internal/inspections/handler"
	"ecoguard_backend/internal/inspections/repository"
	"ecoguard_backend/internal/inspections/service"
	"ecoguard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, companies service.CompanyAccess, plans service.PlanReader, storageSvc storage.StorageService, bucket string, eventBus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), companies, plans, storageSvc, bucket, eventBus, log)
	return &Module{handler: handler.New(svc)}
}

func (m *Module) Name() string {
	return "inspections"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/inspecoes"))
}

var _ apphttp.Module = (*Module)(nil)
