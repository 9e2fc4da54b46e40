package repository

import (
	"strings"
	"testing"
)

func TestUpdateStageGuardsCurrentStage(t *testing.T) {
	if !strings.Contains(updateStageQuery, "WHERE id = $1 AND stage = $2") {
		t.Fatalf("stage update must be conditional on the stage that was read")
	}
	if !strings.Contains(updateStageQuery, "WHEN $3 = 'finalizado' THEN now()") {
		t.Fatalf("finishing a ticket must set closed_at")
	}
}

func TestOpenTicketQueryIgnoresFinished(t *testing.T) {
	if !strings.Contains(hasOpenTicketQuery, "stage <> 'finalizado'") {
		t.Fatalf("finished tickets must not block a new one")
	}
}

func TestTouchTicketQueryTargetsOneTicket(t *testing.T) {
	if !strings.Contains(touchTicketQuery, "SET updated_at = now() WHERE id = $1") {
		t.Fatalf("unexpected touch query: %s", touchTicketQuery)
	}
}
