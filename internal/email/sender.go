// Package email renders and delivers transactional emails through Brevo or
// a plain SMTP relay.
package email

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ecoguard_backend/platform/config"
)

// AlertLevel is the urgency tier of an expiry notification.
type AlertLevel string

const (
	AlertExpired   AlertLevel = "VENCIDA"
	AlertCritical  AlertLevel = "CRITICO"
	AlertAttention AlertLevel = "ATENCAO"
)

// Label is the human-readable tier shown in subjects and bodies.
func (l AlertLevel) Label() string {
	switch l {
	case AlertExpired:
		return "VENCIDA"
	case AlertCritical:
		return "CRÍTICO"
	case AlertAttention:
		return "ATENÇÃO"
	default:
		return string(l)
	}
}

// LicenseAlert is the content of one license expiry email.
type LicenseAlert struct {
	Level         AlertLevel
	CompanyName   string
	LicenseName   string
	LicenseNumber string
	Authority     string
	ExpiresOn     time.Time
	DaysRemaining int
}

// ConditionAlert is the content of one condition follow-up email.
type ConditionAlert struct {
	ConditionName   string
	Description     string
	ResponsibleName string
	LicenseName     string
	LicenseNumber   string
	FollowUpOn      time.Time
	AlertOn         time.Time
	DaysUntilAlert  int
}

// TicketNotice is the content of a ticket workflow email.
type TicketNotice struct {
	TicketID    string
	CompanyName string
	PlanName    string
	StageLabel  string
	Status      string
	ActorEmail  string
	Message     string
	TicketURL   string
}

type Sender interface {
	SendTicketOpenedEmail(ctx context.Context, toEmail string, notice TicketNotice) error
	SendTicketStageChangedEmail(ctx context.Context, toEmail string, notice TicketNotice) error
	SendLicenseAlertEmail(ctx context.Context, toEmail string, alert LicenseAlert) error
	SendConditionAlertEmail(ctx context.Context, toEmail string, alert ConditionAlert) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender drops every email. Used when email is disabled.
type NoopSender struct{}

func (NoopSender) SendTicketOpenedEmail(context.Context, string, TicketNotice) error       { return nil }
func (NoopSender) SendTicketStageChangedEmail(context.Context, string, TicketNotice) error { return nil }
func (NoopSender) SendLicenseAlertEmail(context.Context, string, LicenseAlert) error       { return nil }
func (NoopSender) SendConditionAlertEmail(context.Context, string, ConditionAlert) error   { return nil }
func (NoopSender) SendCustomEmail(context.Context, string, string, string) error           { return nil }

// transport delivers an already rendered HTML message.
type transport interface {
	deliver(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NewSender picks the configured transport. Disabled email yields NoopSender.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	switch cfg.GetEmailProvider() {
	case "brevo":
		return &TemplateSender{transport: &brevoTransport{
			apiKey:    cfg.GetBrevoAPIKey(),
			fromName:  cfg.GetEmailFromName(),
			fromEmail: cfg.GetEmailFromAddress(),
			endpoint:  brevoEndpoint,
			client:    &http.Client{Timeout: 10 * time.Second},
		}}, nil
	case "smtp":
		return &TemplateSender{transport: NewSMTPTransport(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		)}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}
