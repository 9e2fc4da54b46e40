// Package notification turns domain events into emails. Domain modules
// publish events and never talk to the email provider directly.
package notification

import (
	"context"
	"fmt"
	"html"
	"strings"

	"ecoguard_backend/internal/email"
	"ecoguard_backend/internal/events"
	"ecoguard_backend/internal/tickets/domain"
	"ecoguard_backend/platform/config"
	"ecoguard_backend/platform/logger"

	"github.com/google/uuid"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	sender   email.Sender
	cfg      config.NotificationConfig
	managers []string
	log      *logger.Logger
}

// New creates the notification module. managers receive the emails meant
// for the gestor side of a ticket.
func New(sender email.Sender, cfg config.NotificationConfig, managers []string, log *logger.Logger) *Module {
	return &Module{sender: sender, cfg: cfg, managers: managers, log: log}
}

// RegisterHandlers subscribes the module to the events it notifies on.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TicketOpened{}.EventName(), m)
	bus.Subscribe(events.TicketStageChanged{}.EventName(), m)
	bus.Subscribe(events.InspectionCompleted{}.EventName(), m)
}

// Handle implements events.Handler. Delivery is best effort: failures are
// logged and never returned to the publisher.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TicketOpened:
		m.handleTicketOpened(ctx, e)
	case events.TicketStageChanged:
		m.handleTicketStageChanged(ctx, e)
	case events.InspectionCompleted:
		m.handleInspectionCompleted(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
	}
	return nil
}

func (m *Module) ticketURL(id uuid.UUID) string {
	base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/tickets/%s", base, id)
}

func (m *Module) handleTicketOpened(ctx context.Context, e events.TicketOpened) {
	notice := email.TicketNotice{
		TicketID:    e.TicketID.String(),
		CompanyName: e.CompanyName,
		PlanName:    e.PlanName,
		StageLabel:  domain.StageMapping.Label(),
		Status:      domain.StageMapping.DefaultStatus(),
		ActorEmail:  e.ClientEmail,
		TicketURL:   m.ticketURL(e.TicketID),
	}
	for _, to := range m.managers {
		if err := m.sender.SendTicketOpenedEmail(ctx, to, notice); err != nil {
			m.log.EmailFailed("ticket_opened", to, err)
		}
	}
}

// recipientsFor returns who hears about a stage change: managers when the
// client hands the ticket over for analysis, the client otherwise.
func (m *Module) recipientsFor(e events.TicketStageChanged) []string {
	if domain.Stage(e.ToStage) == domain.StageManagerReview && e.FromStage != e.ToStage {
		return m.managers
	}
	if e.ClientEmail == "" || strings.EqualFold(e.ClientEmail, e.ActorEmail) {
		return nil
	}
	return []string{e.ClientEmail}
}

func (m *Module) handleTicketStageChanged(ctx context.Context, e events.TicketStageChanged) {
	stage := domain.Stage(e.ToStage)
	notice := email.TicketNotice{
		TicketID:    e.TicketID.String(),
		CompanyName: e.CompanyName,
		StageLabel:  stage.Label(),
		Status:      e.Status,
		ActorEmail:  e.ActorEmail,
		TicketURL:   m.ticketURL(e.TicketID),
	}
	switch stage {
	case domain.StageClientPhotos:
		notice.Message = "As áreas críticas foram mapeadas. Envie as fotos de cada área pelo portal."
	case domain.StageManagerReview:
		notice.Message = "O cliente enviou as fotos das áreas críticas para análise."
	case domain.StageFinished:
		notice.Message = "A análise foi concluída. O relatório está disponível no portal."
	}

	for _, to := range m.recipientsFor(e) {
		if err := m.sender.SendTicketStageChangedEmail(ctx, to, notice); err != nil {
			m.log.EmailFailed("ticket_stage_changed", to, err)
		}
	}
}

func (m *Module) handleInspectionCompleted(ctx context.Context, e events.InspectionCompleted) {
	if e.OwnerEmail == "" {
		return
	}
	subject := fmt.Sprintf("Inspeção concluída - %s - risco %s", e.CompanyName, e.RiskTier)
	body := fmt.Sprintf(
		"<p>A inspeção da empresa <strong>%s</strong> foi concluída.</p>"+
			"<p>Pontuação de conformidade: <strong>%.2f</strong><br>Nível de risco: <strong>%s</strong><br>Alertas gerados: <strong>%d</strong></p>",
		html.EscapeString(e.CompanyName), e.Score, html.EscapeString(e.RiskTier), e.AlertCount)
	if base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/"); base != "" {
		body += fmt.Sprintf(`<p><a href="%s/inspecoes/%s">Ver resultado</a></p>`, html.EscapeString(base), e.InspectionID)
	}
	if err := m.sender.SendCustomEmail(ctx, e.OwnerEmail, subject, body); err != nil {
		m.log.EmailFailed("inspection_completed", e.OwnerEmail, err)
	}
}

var _ events.Handler = (*Module)(nil)
