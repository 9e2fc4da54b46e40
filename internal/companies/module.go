package companies

import (
	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *Handler
	service *Service
}

func NewModule(pool *pgxpool.Pool, users UserRecorder, val *validator.Validator) *Module {
	svc := NewService(NewRepository(pool), users)
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "companies"
}

// Service exposes company access checks and owner lookup to other modules.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/empresas"))
}

var _ apphttp.Module = (*Module)(nil)
