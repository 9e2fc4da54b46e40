package email

import (
	"context"
	"fmt"
)

// TemplateSender renders the embedded templates and hands the HTML to its transport.
type TemplateSender struct {
	transport transport
}

func (s *TemplateSender) SendTicketOpenedEmail(ctx context.Context, toEmail string, notice TicketNotice) error {
	content, err := renderEmailTemplate("ticket_opened.html", ticketEmailData{
		baseEmailData: baseEmailData{
			Title:    "Novo ticket de mapeamento",
			Heading:  "Nova planta enviada para mapeamento",
			CTALabel: "Abrir ticket",
			CTAURL:   notice.TicketURL,
		},
		TicketNotice: notice,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectTicketOpenedFmt, shortID(notice.TicketID), notice.CompanyName)
	return s.transport.deliver(ctx, toEmail, subject, content)
}

func (s *TemplateSender) SendTicketStageChangedEmail(ctx context.Context, toEmail string, notice TicketNotice) error {
	content, err := renderEmailTemplate("ticket_stage.html", ticketEmailData{
		baseEmailData: baseEmailData{
			Title:    "Atualização do ticket",
			Heading:  notice.StageLabel,
			CTALabel: "Ver ticket",
			CTAURL:   notice.TicketURL,
		},
		TicketNotice: notice,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectTicketStageChangedFmt, shortID(notice.TicketID), notice.StageLabel)
	return s.transport.deliver(ctx, toEmail, subject, content)
}

func (s *TemplateSender) SendLicenseAlertEmail(ctx context.Context, toEmail string, alert LicenseAlert) error {
	content, err := renderEmailTemplate("license_alert.html", licenseAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Alerta de licença",
			Heading: "Alerta de licença: " + alert.Level.Label(),
		},
		LicenseAlert:     alert,
		LevelLabel:       alert.Level.Label(),
		ExpiresFormatted: alert.ExpiresOn.UTC().Format("02/01/2006"),
		DaysOverdue:      -alert.DaysRemaining,
	})
	if err != nil {
		return err
	}
	return s.transport.deliver(ctx, toEmail, licenseAlertSubject(alert), content)
}

func (s *TemplateSender) SendConditionAlertEmail(ctx context.Context, toEmail string, alert ConditionAlert) error {
	content, err := renderEmailTemplate("condition_alert.html", conditionAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Acompanhamento de condicionante",
			Heading: "Condicionante próxima do prazo",
		},
		ConditionAlert:    alert,
		FollowUpFormatted: alert.FollowUpOn.UTC().Format("02/01/2006"),
		AlertFormatted:    alert.AlertOn.UTC().Format("02/01/2006"),
	})
	if err != nil {
		return err
	}
	return s.transport.deliver(ctx, toEmail, fmt.Sprintf(subjectConditionDueFmt, alert.ConditionName), content)
}

func (s *TemplateSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.transport.deliver(ctx, toEmail, subject, htmlContent)
}

func licenseAlertSubject(alert LicenseAlert) string {
	switch alert.Level {
	case AlertExpired:
		return fmt.Sprintf(subjectLicenseExpiredFmt, alert.LicenseName)
	case AlertCritical:
		return fmt.Sprintf(subjectLicenseCriticalFmt, alert.LicenseName, alert.DaysRemaining)
	default:
		return fmt.Sprintf(subjectLicenseAttentionFmt, alert.LicenseName, alert.DaysRemaining)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
