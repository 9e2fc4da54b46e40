package domain

import (
	"testing"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/platform/apperr"
)

var (
	manager = access.Actor{Email: "gestor@ecoguard.test", Role: access.RoleManager}
	client  = access.Actor{Email: "cliente@acme.test", Role: access.RoleClient}
)

func TestCheckTransitionTable(t *testing.T) {
	cases := []struct {
		name    string
		from    Stage
		to      Stage
		actor   access.Actor
		isOwner bool
		kind    apperr.Kind
	}{
		{"manager opens photo upload", StageMapping, StageClientPhotos, manager, false, apperr.KindUnknown},
		{"client cannot open photo upload", StageMapping, StageClientPhotos, client, true, apperr.KindForbidden},
		{"owner sends to review", StageClientPhotos, StageManagerReview, client, true, apperr.KindUnknown},
		{"other client cannot send to review", StageClientPhotos, StageManagerReview, client, false, apperr.KindForbidden},
		{"manager sends to review", StageClientPhotos, StageManagerReview, manager, false, apperr.KindUnknown},
		{"manager finishes from review", StageManagerReview, StageFinished, manager, false, apperr.KindUnknown},
		{"manager finishes early", StageMapping, StageFinished, manager, false, apperr.KindUnknown},
		{"client cannot finish", StageManagerReview, StageFinished, client, true, apperr.KindForbidden},
		{"skip is illegal", StageMapping, StageManagerReview, manager, false, apperr.KindBadRequest},
		{"backwards is illegal", StageManagerReview, StageClientPhotos, manager, false, apperr.KindBadRequest},
		{"illegal before role", StageMapping, StageManagerReview, client, true, apperr.KindBadRequest},
		{"finished is terminal", StageFinished, StageManagerReview, manager, false, apperr.KindBadRequest},
		{"unknown stage", StageMapping, Stage("arquivado"), manager, false, apperr.KindBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(tc.from, tc.to, tc.actor, tc.isOwner)
			if tc.kind == apperr.KindUnknown {
				if err != nil {
					t.Fatalf("expected transition to be allowed, got %v", err)
				}
				return
			}
			if !apperr.Is(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestPlanChangeDefaultsStatus(t *testing.T) {
	change, err := PlanChange(StageMapping, "", string(StageClientPhotos), manager, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !change.Transition || change.Stage != StageClientPhotos || change.Status != "aguardando_fotos_cliente" {
		t.Fatalf("unexpected change %+v", change)
	}
}

func TestPlanChangeKeepsExplicitStatus(t *testing.T) {
	change, err := PlanChange(StageManagerReview, "aprovado", string(StageFinished), manager, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.Status != "aprovado" || change.Stage != StageFinished {
		t.Fatalf("unexpected change %+v", change)
	}
}

func TestStatusOnlyUpdateIsManagerOnly(t *testing.T) {
	if _, err := PlanChange(StageClientPhotos, "pendente", "", client, true); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	change, err := PlanChange(StageClientPhotos, "pendente", string(StageClientPhotos), manager, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.Transition || change.Stage != StageClientPhotos || change.Status != "pendente" {
		t.Fatalf("unexpected change %+v", change)
	}
}

func TestPlanChangeRequiresSomething(t *testing.T) {
	if _, err := PlanChange(StageMapping, "", "", manager, false); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestDefaultStatusPerStage(t *testing.T) {
	want := map[Stage]string{
		StageMapping:       "aberto",
		StageClientPhotos:  "aguardando_fotos_cliente",
		StageManagerReview: "em_analise",
		StageFinished:      "concluido",
	}
	for stage, status := range want {
		if got := stage.DefaultStatus(); got != status {
			t.Fatalf("%s: got %q want %q", stage, got, status)
		}
	}
}
