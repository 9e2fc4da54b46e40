package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecoguard_backend/internal/email"
	"ecoguard_backend/internal/licenses/repository"

	"github.com/gin-gonic/gin"
)

// ctxSender fails like a real transport once its context is done.
type ctxSender struct {
	recordingSender
}

func (s *ctxSender) SendLicenseAlertEmail(ctx context.Context, to string, a email.LicenseAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.recordingSender.SendLicenseAlertEmail(ctx, to, a)
}

func TestManualSweepSurvivesClientDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{licenses: []repository.License{license(now.AddDate(0, 0, 3), 30)}}
	sender := &ctxSender{}
	scanner := newTestScanner(src, sender, now)

	engine := gin.New()
	engine.POST("/alertas/verificar", NewHandler(scanner, &DedupRepository{}).Sweep)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/alertas/verificar", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"alertas_enviados":1`) {
		t.Fatalf("expected one notified license, got %s", rec.Body.String())
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected owner and admin emails, got %+v", sender.sent)
	}
}
