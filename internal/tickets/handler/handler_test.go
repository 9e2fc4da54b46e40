package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ecoguard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	New(nil, validator.New()).RegisterRoutes(engine.Group("/tickets"))
	return engine
}

func TestRequestsRejectedBeforeService(t *testing.T) {
	engine := newEngine()
	id := uuid.NewString()

	cases := []struct {
		name   string
		method string
		target string
	}{
		{"bad ticket id", http.MethodGet, "/tickets/not-a-uuid"},
		{"unknown stage", http.MethodPut, "/tickets/" + id + "/status?etapa=arquivado"},
		{"empty message", http.MethodPost, "/tickets/" + id + "/mensagem?mensagem=%20%20"},
		{"status_change is not user-writable", http.MethodPost, "/tickets/" + id + "/mensagem?mensagem=oi&tipo=status_change"},
		{"bad verdict", http.MethodPost, "/tickets/" + id + "/analise-area?area_id=" + uuid.NewString() + "&situacao=talvez"},
		{"missing area", http.MethodPost, "/tickets/" + id + "/analise-area?situacao=conforme"},
		{"missing company", http.MethodGet, "/tickets/pode-criar"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}
