// Package tickets provides the plan mapping workflow between a company's
// client and the managers.
package tickets

import (
	"ecoguard_backend/internal/adapters/storage"
	"ecoguard_backend/internal/events"
	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/internal/tickets/handler"
	"ecoguard_backend/internal/tickets/repository"
	"ecoguard_backend/internal/tickets/service"
	"ecoguard_backend/platform/logger"
	"ecoguard_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	service *service.Service
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, companies service.CompanyAccess, areas service.AreaStore, storageSvc storage.StorageService, evidenceBucket string, eventBus events.Bus, appBaseURL string, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), companies, areas, storageSvc, evidenceBucket, eventBus, appBaseURL, log)
	return &Module{service: svc, handler: handler.New(svc, val)}
}

func (m *Module) Name() string {
	return "tickets"
}

// Service is handed to the plants module, which opens tickets on upload.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/tickets"))
}

var _ apphttp.Module = (*Module)(nil)
