// Package domain provides the date rules for licenses and their conditions.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Status is the derived validity of a license. It is computed on every read
// and never trusted from storage.
type Status string

const (
	StatusValid   Status = "valida"
	StatusDueSoon Status = "a_vencer"
	StatusExpired Status = "vencida"
)

// DefaultLeadTimeDays is used when a license has no alert lead time.
const DefaultLeadTimeDays = 30

const day = 24 * time.Hour

// Expiry is the projection of a license's expiry date at a point in time.
type Expiry struct {
	DaysRemaining int    `json:"dias_restantes"`
	Status        Status `json:"status"`
}

// DaysUntil returns floor((target - now) / 24h) with both instants in UTC.
// A target later today yields 0; one earlier today yields -1.
func DaysUntil(target, now time.Time) int {
	diff := target.UTC().Sub(now.UTC())
	return int(math.Floor(float64(diff) / float64(day)))
}

// Evaluate derives the status of a license expiring at expiry. It is total:
// every pair of instants yields a status.
func Evaluate(expiry, now time.Time, leadTimeDays int) Expiry {
	days := DaysUntil(expiry, now)
	switch {
	case days < 0:
		return Expiry{DaysRemaining: days, Status: StatusExpired}
	case days <= leadTimeDays:
		return Expiry{DaysRemaining: days, Status: StatusDueSoon}
	default:
		return Expiry{DaysRemaining: days, Status: StatusValid}
	}
}

func LeadTimeOrDefault(days *int) int {
	if days == nil || *days < 0 {
		return DefaultLeadTimeDays
	}
	return *days
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDate accepts a calendar date or an ISO timestamp. Values without a
// zone are taken as UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}
