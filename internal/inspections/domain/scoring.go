// Package domain holds the inspection scoring rules.
package domain

import (
	"math"

	"github.com/google/uuid"
)

type Answer string

const (
	AnswerConformant    Answer = "conforme"
	AnswerNonConformant Answer = "nao_conforme"
)

func (a Answer) Valid() bool {
	return a == AnswerConformant || a == AnswerNonConformant
}

type RiskTier string

const (
	RiskLow      RiskTier = "baixo"
	RiskMedium   RiskTier = "medio"
	RiskHigh     RiskTier = "alto"
	RiskCritical RiskTier = "critico"
)

const (
	StatusInProgress = "em_andamento"
	StatusCompleted  = "concluida"
)

const (
	// FinePerRiskPoint is the estimated fine, in reais, per checklist risk point.
	FinePerRiskPoint = 5000

	shortDeadlineDays   = 30
	defaultDeadlineDays = 60
)

// ScoredItem is an inspection item as seen by the scoring engine. Answer is
// empty when the item was never answered.
type ScoredItem struct {
	ItemID      uuid.UUID
	AreaID      uuid.UUID
	Category    string
	Question    string
	Criticality string
	RiskPoints  int
	Answer      Answer
}

// AlertDraft is a non-conformity to be recorded when an inspection completes.
type AlertDraft struct {
	ItemID        uuid.UUID
	AreaID        uuid.UUID
	Category      string
	Description   string
	Severity      string
	EstimatedFine int64
	DeadlineDays  int
}

type Result struct {
	Total         int
	Conformant    int
	NonConformant int
	Score         float64
	Tier          RiskTier
	Alerts        []AlertDraft
}

// Score computes the conformance score, tier and alerts for a set of items.
// Unanswered items count toward the total only. An empty set scores 0.
func Score(items []ScoredItem) Result {
	res := Result{Total: len(items), Alerts: []AlertDraft{}}
	for _, it := range items {
		switch it.Answer {
		case AnswerConformant:
			res.Conformant++
		case AnswerNonConformant:
			res.NonConformant++
			res.Alerts = append(res.Alerts, alertFor(it))
		}
	}
	if res.Total > 0 {
		res.Score = round2(float64(res.Conformant) * 100 / float64(res.Total))
	}
	res.Tier = TierFor(res.Score)
	return res
}

// TierFor maps a score to its risk tier. Each bound is inclusive.
func TierFor(score float64) RiskTier {
	switch {
	case score >= 80:
		return RiskLow
	case score >= 60:
		return RiskMedium
	case score >= 40:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// DeadlineDays is the suggested remediation window for a non-conformity.
// Only "alta" gets the short window; "critica" falls into the default.
func DeadlineDays(criticality string) int {
	if criticality == "alta" {
		return shortDeadlineDays
	}
	return defaultDeadlineDays
}

func alertFor(it ScoredItem) AlertDraft {
	return AlertDraft{
		ItemID:        it.ItemID,
		AreaID:        it.AreaID,
		Category:      it.Category,
		Description:   it.Question,
		Severity:      it.Criticality,
		EstimatedFine: int64(it.RiskPoints) * FinePerRiskPoint,
		DeadlineDays:  DeadlineDays(it.Criticality),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
