package domain

import (
	"testing"

	"github.com/google/uuid"
)

func items(answers ...Answer) []ScoredItem {
	out := make([]ScoredItem, len(answers))
	for i, a := range answers {
		out[i] = ScoredItem{ItemID: uuid.New(), AreaID: uuid.New(), Criticality: "media", RiskPoints: 10, Answer: a}
	}
	return out
}

func TestScoreExampleInspection(t *testing.T) {
	set := items(AnswerConformant, AnswerConformant, AnswerConformant, AnswerConformant, AnswerNonConformant)
	set[4].RiskPoints = 20
	set[4].Criticality = "alta"
	set[4].Question = "Os resíduos estão armazenados em área coberta?"

	got := Score(set)
	if got.Score != 80 || got.Tier != RiskLow {
		t.Fatalf("expected 80.00/baixo, got %.2f/%s", got.Score, got.Tier)
	}
	if got.Total != 5 || got.Conformant != 4 || got.NonConformant != 1 {
		t.Fatalf("unexpected counters %+v", got)
	}
	if len(got.Alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(got.Alerts))
	}
	alert := got.Alerts[0]
	if alert.EstimatedFine != 100000 || alert.DeadlineDays != 30 || alert.Severity != "alta" || alert.ItemID != set[4].ItemID {
		t.Fatalf("unexpected alert %+v", alert)
	}
}

func TestScoreEmptyIsZero(t *testing.T) {
	got := Score(nil)
	if got.Score != 0 || got.Tier != RiskCritical || got.Total != 0 || len(got.Alerts) != 0 {
		t.Fatalf("expected empty inspection to score 0, got %+v", got)
	}
}

func TestScoreIsHundredOnlyWhenAllConformant(t *testing.T) {
	if got := Score(items(AnswerConformant, AnswerConformant)); got.Score != 100 {
		t.Fatalf("expected 100, got %.2f", got.Score)
	}
	if got := Score(items(AnswerConformant, "")); got.Score != 50 {
		t.Fatalf("expected unanswered item to lower the score, got %.2f", got.Score)
	}
}

func TestUnansweredCountsInTotalOnly(t *testing.T) {
	got := Score(items(AnswerConformant, "", AnswerNonConformant))
	if got.Total != 3 || got.Conformant != 1 || got.NonConformant != 1 {
		t.Fatalf("unexpected counters %+v", got)
	}
	if got.Score != 33.33 {
		t.Fatalf("expected 33.33, got %v", got.Score)
	}
}

func TestTierBoundariesAreInclusive(t *testing.T) {
	cases := map[float64]RiskTier{
		100:   RiskLow,
		80:    RiskLow,
		79.99: RiskMedium,
		60:    RiskMedium,
		59.99: RiskHigh,
		40:    RiskHigh,
		39.99: RiskCritical,
		0:     RiskCritical,
	}
	for score, want := range cases {
		if got := TierFor(score); got != want {
			t.Fatalf("score %.2f: expected %s, got %s", score, want, got)
		}
	}
}

func TestDeadlineKeepsCriticalAtDefault(t *testing.T) {
	if DeadlineDays("alta") != 30 {
		t.Fatal("expected 30 days for alta")
	}
	for _, c := range []string{"critica", "media", "baixa"} {
		if DeadlineDays(c) != 60 {
			t.Fatalf("expected 60 days for %s", c)
		}
	}
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	got := Score(items(AnswerConformant, AnswerConformant, ""))
	if got.Score != 66.67 || got.Tier != RiskMedium {
		t.Fatalf("expected 66.67/medio, got %v/%s", got.Score, got.Tier)
	}
}
