package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:     http.StatusNotFound,
		KindValidation:   http.StatusBadRequest,
		KindBadRequest:   http.StatusBadRequest,
		KindConflict:     http.StatusConflict,
		KindForbidden:    http.StatusForbidden,
		KindUnauthorized: http.StatusUnauthorized,
		KindInternal:     http.StatusInternalServerError,
		KindUnknown:      http.StatusBadRequest,
	}
	for kind, want := range cases {
		if got := New(kind, "x").HTTPStatus(); got != want {
			t.Fatalf("kind %d: expected %d, got %d", kind, want, got)
		}
	}
}

func TestGetKindFollowsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("complete inspection: %w", Conflict("already completed"))
	if !Is(err, KindConflict) {
		t.Fatalf("expected wrapped conflict to be detected, got kind %d", GetKind(err))
	}
	if GetKind(fmt.Errorf("plain")) != KindUnknown {
		t.Fatal("expected plain error to have unknown kind")
	}
}
