// Package licenses provides the licenses (licenças) and conditions
// (condicionantes) module.
package licenses

import (
	"ecoguard_backend/internal/adapters/storage"
	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/internal/licenses/handler"
	"ecoguard_backend/internal/licenses/repository"
	"ecoguard_backend/internal/licenses/service"
	"ecoguard_backend/platform/validator"

	"github.com/facebookgo/clock"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

func NewModule(pool *pgxpool.Pool, companies service.CompanyAccess, storageSvc storage.StorageService, bucket string, clk clock.Clock, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, companies, storageSvc, bucket, clk)
	return &Module{handler: handler.New(svc, val), repo: repo}
}

func (m *Module) Name() string {
	return "licenses"
}

// Repository feeds the expiry alert sweep.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/licencas"), ctx.Protected.Group("/condicionantes"))
}

var _ apphttp.Module = (*Module)(nil)
