package alerts

import (
	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/platform/logger"

	"github.com/facebookgo/clock"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	scanner *Scanner
	handler *Handler
}

func NewModule(pool *pgxpool.Pool, source LicenseSource, owners OwnerResolver, sender Notifier, clk clock.Clock, cfg ScannerConfig, log *logger.Logger) *Module {
	dedup := NewDedupRepository(pool)
	scanner := NewScanner(source, owners, dedup, sender, clk, cfg, log)
	return &Module{scanner: scanner, handler: NewHandler(scanner, dedup)}
}

func (m *Module) Name() string {
	return "alerts"
}

// Scanner is shared with the in-process runner and the scheduler worker.
func (m *Module) Scanner() *Scanner {
	return m.scanner
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Manager.POST("/alertas/verificar", m.handler.Sweep)
	ctx.Protected.GET("/alertas/historico", m.handler.History)
}

var _ apphttp.Module = (*Module)(nil)
