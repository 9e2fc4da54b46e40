package domain

import (
	"testing"
	"time"
)

var now = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func TestEvaluateDueSoonAndExpired(t *testing.T) {
	got := Evaluate(now.AddDate(0, 0, 5), now, 30)
	if got.Status != StatusDueSoon || got.DaysRemaining != 5 {
		t.Fatalf("expected a_vencer with 5 days, got %+v", got)
	}

	got = Evaluate(now.AddDate(0, 0, -1), now, 30)
	if got.Status != StatusExpired || got.DaysRemaining != -1 {
		t.Fatalf("expected vencida, got %+v", got)
	}
}

func TestEvaluateBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		expiry time.Time
		lead   int
		days   int
		status Status
	}{
		{"later today", now.Add(2 * time.Hour), 30, 0, StatusDueSoon},
		{"earlier today", now.Add(-time.Minute), 30, -1, StatusExpired},
		{"exactly lead time", now.AddDate(0, 0, 30), 30, 30, StatusDueSoon},
		{"one past lead time", now.AddDate(0, 0, 31), 30, 31, StatusValid},
		{"zero lead time", now.AddDate(0, 0, 1), 0, 1, StatusValid},
		{"partial day floors", now.Add(47 * time.Hour), 0, 1, StatusValid},
	}
	for _, tc := range cases {
		got := Evaluate(tc.expiry, now, tc.lead)
		if got.DaysRemaining != tc.days || got.Status != tc.status {
			t.Fatalf("%s: expected %d/%s, got %+v", tc.name, tc.days, tc.status, got)
		}
	}
}

func TestEvaluateNormalizesZones(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	expiry := time.Date(2025, 3, 15, 11, 30, 0, 0, saoPaulo)
	got := Evaluate(expiry, now, 30)
	if got.DaysRemaining != 5 {
		t.Fatalf("expected 5 days across zones, got %+v", got)
	}
}

func TestLeadTimeOrDefault(t *testing.T) {
	if LeadTimeOrDefault(nil) != 30 {
		t.Fatal("expected default lead time of 30")
	}
	seven := 7
	if LeadTimeOrDefault(&seven) != 7 {
		t.Fatal("expected explicit lead time")
	}
	negative := -1
	if LeadTimeOrDefault(&negative) != 30 {
		t.Fatal("expected negative lead time to fall back to default")
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2025-12-31", "2025-12-31T00:00:00", "2025-12-31T00:00:00Z", "2025-12-30T21:00:00-03:00"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if !got.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("%s: got %s", in, got)
		}
	}
	if _, err := ParseDate("31/12/2025"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
