package repository

import (
	"strings"
	"testing"
)

func TestCompletionLocksInspectionRow(t *testing.T) {
	if !strings.HasSuffix(strings.TrimSpace(lockInspectionQuery), "FOR UPDATE") {
		t.Fatalf("expected completion to lock the inspection row: %s", lockInspectionQuery)
	}
}

func TestAlertInsertIsIdempotent(t *testing.T) {
	if !strings.Contains(insertAlertQuery, "ON CONFLICT (inspection_id, inspection_item_id) DO NOTHING") {
		t.Fatalf("expected alert insert to ignore duplicates: %s", insertAlertQuery)
	}
}

func TestAnswerGuardedByInspectionStatus(t *testing.T) {
	if !strings.Contains(answerItemQuery, "s.status = 'em_andamento'") {
		t.Fatalf("expected answer update guarded by status: %s", answerItemQuery)
	}
}

func TestItemsPairAreasWithMatchingChecklist(t *testing.T) {
	for _, fragment := range []string{"c.area_type = a.area_type", "a.plan_id = $2", "c.risk_points"} {
		if !strings.Contains(instantiateItemsQuery, fragment) {
			t.Fatalf("expected %q in item instantiation: %s", fragment, instantiateItemsQuery)
		}
	}
}
