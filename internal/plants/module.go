package plants

import (
	"ecoguard_backend/internal/adapters/storage"
	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/platform/logger"
	"ecoguard_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	repo    *Repository
	service *Service
	handler *Handler
}

func NewModule(pool *pgxpool.Pool, companies CompanyAccess, storageSvc storage.StorageService, buckets Buckets, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, companies, storageSvc, buckets, log)
	return &Module{repo: repo, service: svc, handler: NewHandler(svc, val)}
}

func (m *Module) Name() string {
	return "plants"
}

func (m *Module) Service() *Service {
	return m.service
}

// Repository is used by tickets and inspections to read and annotate areas.
func (m *Module) Repository() *Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/plantas"), ctx.Protected.Group("/areas"))
}

var _ apphttp.Module = (*Module)(nil)
