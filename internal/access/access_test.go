package access

import (
	"testing"

	"ecoguard_backend/platform/httpkit"

	"github.com/google/uuid"
)

func TestResolverIsCaseInsensitive(t *testing.T) {
	r := NewResolver([]string{" Aplicativo@SNEngenharia.org ", ""})

	if got := r.RoleOf("aplicativo@snengenharia.org"); got != RoleManager {
		t.Fatalf("expected manager, got %q", got)
	}
	if got := r.RoleOf("cliente@empresa.com.br"); got != RoleClient {
		t.Fatalf("expected client, got %q", got)
	}
	if got := r.RoleOf(""); got != RoleClient {
		t.Fatalf("expected blank email to be a client, got %q", got)
	}
}

func TestFromIdentity(t *testing.T) {
	userID := uuid.New()
	actor := FromIdentity(httpkit.NewIdentity(userID, "g@x.com", "G", string(RoleManager)))
	if !actor.IsManager() || actor.UserID != userID || actor.Email != "g@x.com" {
		t.Fatalf("unexpected actor %+v", actor)
	}
	if FromIdentity(httpkit.NewIdentity(userID, "c@x.com", "C", string(RoleClient))).IsManager() {
		t.Fatal("expected client actor")
	}
}
