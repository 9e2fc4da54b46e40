// Package alerts sweeps licenses and their conditions for upcoming or past
// deadlines and emails the people responsible, at most once per entity per day.
package alerts

import (
	"context"
	"fmt"
	"time"

	"ecoguard_backend/internal/companies"
	"ecoguard_backend/internal/email"
	"ecoguard_backend/internal/licenses/domain"
	"ecoguard_backend/internal/licenses/repository"
	"ecoguard_backend/platform/logger"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	criticalWindowDays  = 7
	conditionWindowDays = 7
	conditionKeyPrefix  = "cond_"
)

type LicenseSource interface {
	ListAllLicenses(ctx context.Context) ([]repository.License, error)
	ListAllConditions(ctx context.Context) ([]repository.ConditionWithLicense, error)
}

type OwnerResolver interface {
	Owner(ctx context.Context, companyID uuid.UUID) (companies.Owner, error)
}

type DedupStore interface {
	TryMarkSent(ctx context.Context, entityID string, ref time.Time) (bool, error)
}

type Notifier interface {
	SendLicenseAlertEmail(ctx context.Context, toEmail string, alert email.LicenseAlert) error
	SendConditionAlertEmail(ctx context.Context, toEmail string, alert email.ConditionAlert) error
}

// SweepResult counts entities by outcome. Notified entities had at least one
// email delivered.
type SweepResult struct {
	Notified int `json:"alertas_enviados"`
	Skipped  int `json:"ja_notificados"`
	Failed   int `json:"falhas"`
}

type ScannerConfig struct {
	AdminEmail  string
	SendTimeout time.Duration
}

type Scanner struct {
	source LicenseSource
	owners OwnerResolver
	dedup  DedupStore
	sender Notifier
	clock  clock.Clock
	cfg    ScannerConfig
	log    *logger.Logger
}

func NewScanner(source LicenseSource, owners OwnerResolver, dedup DedupStore, sender Notifier, clk clock.Clock, cfg ScannerConfig, log *logger.Logger) *Scanner {
	return &Scanner{source: source, owners: owners, dedup: dedup, sender: sender, clock: clk, cfg: cfg, log: log}
}

// Classify maps days until expiry to an alert level. Licenses further out
// than their lead time are not alerted.
func Classify(daysRemaining, leadTimeDays int) (email.AlertLevel, bool) {
	switch {
	case daysRemaining < 0:
		return email.AlertExpired, true
	case daysRemaining <= criticalWindowDays:
		return email.AlertCritical, true
	case daysRemaining <= leadTimeDays:
		return email.AlertAttention, true
	default:
		return "", false
	}
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeNotified
	outcomeSkipped
	outcomeFailed
)

func (r *SweepResult) add(o outcome) {
	switch o {
	case outcomeNotified:
		r.Notified++
	case outcomeSkipped:
		r.Skipped++
	case outcomeFailed:
		r.Failed++
	}
}

// Sweep runs one pass over all licenses and open conditions. Per-entity
// failures are logged and counted; only a failure to list aborts the sweep.
func (s *Scanner) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()
	var res SweepResult

	licenses, err := s.source.ListAllLicenses(ctx)
	if err != nil {
		return res, fmt.Errorf("load licenses: %w", err)
	}
	for _, l := range licenses {
		res.add(s.processLicense(ctx, l, now))
	}

	conditions, err := s.source.ListAllConditions(ctx)
	if err != nil {
		return res, fmt.Errorf("load conditions: %w", err)
	}
	for _, c := range conditions {
		res.add(s.processCondition(ctx, c, now))
	}

	s.log.Info("alert sweep finished", "notified", res.Notified, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (s *Scanner) processLicense(ctx context.Context, l repository.License, now time.Time) outcome {
	exp := domain.Evaluate(l.ExpiresOn, now, l.LeadTimeDays)
	level, ok := Classify(exp.DaysRemaining, l.LeadTimeDays)
	if !ok {
		return outcomeNone
	}

	entityID := l.ID.String()
	marked, err := s.dedup.TryMarkSent(ctx, entityID, now)
	if err != nil {
		s.log.Error("alert dedup failed", "license_id", entityID, "error", err)
		return outcomeFailed
	}
	if !marked {
		return outcomeSkipped
	}

	// Licenses of a deleted company still reach the administrator.
	owner, err := s.owners.Owner(ctx, l.CompanyID)
	if err != nil {
		s.log.Warn("license owner not resolvable", "license_id", entityID, "company_id", l.CompanyID, "error", err)
		owner = companies.Owner{}
	}

	alert := email.LicenseAlert{
		Level:         level,
		CompanyName:   owner.CompanyName,
		LicenseName:   l.Name,
		LicenseNumber: l.Number,
		Authority:     l.Authority,
		ExpiresOn:     l.ExpiresOn,
		DaysRemaining: exp.DaysRemaining,
	}
	delivered := s.sendBoth(ctx, entityID, string(level), owner.Email, func(ctx context.Context, to string) error {
		return s.sender.SendLicenseAlertEmail(ctx, to, alert)
	})
	if delivered == 0 {
		return outcomeFailed
	}
	return outcomeNotified
}

// conditionAlertDate is the date the condition asks to be reminded on,
// falling back to its follow-up date.
func conditionAlertDate(c repository.ConditionWithLicense) time.Time {
	if c.AlertOn != nil {
		return *c.AlertOn
	}
	return c.FollowUpOn
}

func (s *Scanner) processCondition(ctx context.Context, c repository.ConditionWithLicense, now time.Time) outcome {
	alertOn := conditionAlertDate(c)
	days := domain.DaysUntil(alertOn, now)
	if days < 0 || days > conditionWindowDays {
		return outcomeNone
	}

	entityID := conditionKeyPrefix + c.ID.String()
	marked, err := s.dedup.TryMarkSent(ctx, entityID, now)
	if err != nil {
		s.log.Error("alert dedup failed", "condition_id", c.ID, "error", err)
		return outcomeFailed
	}
	if !marked {
		return outcomeSkipped
	}

	alert := email.ConditionAlert{
		ConditionName:   c.Name,
		Description:     c.Description,
		ResponsibleName: c.ResponsibleName,
		LicenseName:     c.LicenseName,
		LicenseNumber:   c.LicenseNumber,
		FollowUpOn:      c.FollowUpOn,
		AlertOn:         alertOn,
		DaysUntilAlert:  days,
	}
	delivered := s.sendBoth(ctx, entityID, "CONDICIONANTE", c.ResponsibleEmail, func(ctx context.Context, to string) error {
		return s.sender.SendConditionAlertEmail(ctx, to, alert)
	})
	if delivered == 0 {
		return outcomeFailed
	}
	return outcomeNotified
}

// sendBoth emails the primary recipient and the administrator concurrently,
// each bounded by the send timeout, and returns how many were delivered.
func (s *Scanner) sendBoth(ctx context.Context, entityID, level, primary string, send func(context.Context, string) error) int {
	recipients := make([]string, 0, 2)
	if primary != "" {
		recipients = append(recipients, primary)
	}
	if s.cfg.AdminEmail != "" && s.cfg.AdminEmail != primary {
		recipients = append(recipients, s.cfg.AdminEmail)
	}

	delivered := make([]bool, len(recipients))
	var g errgroup.Group
	for i, to := range recipients {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
			defer cancel()
			if err := send(sendCtx, to); err != nil {
				s.log.EmailFailed("alert", to, err)
				return nil
			}
			delivered[i] = true
			s.log.AlertDispatched(entityID, level, to)
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range delivered {
		if ok {
			n++
		}
	}
	return n
}
