package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecoguard_backend/platform/httpkit"
	"ecoguard_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeStore struct {
	deleted []uuid.UUID
}

func (f *fakeStore) List(context.Context) ([]Summary, error) { return nil, nil }
func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestDeleteStatementsRemoveChildrenBeforeCompanies(t *testing.T) {
	last := strings.ToLower(deleteUserStatements[len(deleteUserStatements)-1])
	if !strings.Contains(last, "delete from users") {
		t.Fatalf("expected user row to be deleted last, got %q", last)
	}
	companiesIdx := -1
	for i, stmt := range deleteUserStatements {
		if strings.HasPrefix(strings.ToLower(stmt), "delete from companies") {
			companiesIdx = i
		}
	}
	for i, stmt := range deleteUserStatements[:companiesIdx] {
		if !strings.Contains(stmt, "owner_user_id = $1") {
			t.Fatalf("statement %d is not scoped to the user's companies: %q", i, stmt)
		}
	}
}

func TestDeleteRejectsSelfDeletion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeStore{}
	h := NewHandler(store, logger.Discard())
	self := uuid.New()

	engine := gin.New()
	engine.DELETE("/users/:id", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, self)
		c.Set(httpkit.ContextEmailKey, "gestor@x.com")
		c.Next()
	}, h.Delete)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+self.String(), nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	other := uuid.New()
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+other.String(), nil))
	if rec.Code != http.StatusOK || len(store.deleted) != 1 || store.deleted[0] != other {
		t.Fatalf("expected other user deleted, code=%d deleted=%v", rec.Code, store.deleted)
	}
}
