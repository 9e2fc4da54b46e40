package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ecoguard_backend/internal/email"
	"ecoguard_backend/internal/events"
	"ecoguard_backend/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://app.example.com/" }

type sentEmail struct {
	kind string
	to   string
	body string
}

type testSender struct {
	email.NoopSender
	sent []sentEmail
	fail bool
}

func (s *testSender) record(kind, to, body string) error {
	if s.fail {
		return errors.New("provider down")
	}
	s.sent = append(s.sent, sentEmail{kind: kind, to: to, body: body})
	return nil
}

func (s *testSender) SendTicketOpenedEmail(_ context.Context, to string, n email.TicketNotice) error {
	return s.record("opened", to, n.TicketURL)
}

func (s *testSender) SendTicketStageChangedEmail(_ context.Context, to string, n email.TicketNotice) error {
	return s.record("stage", to, n.StageLabel)
}

func (s *testSender) SendCustomEmail(_ context.Context, to, _, body string) error {
	return s.record("custom", to, body)
}

const testClientEmail = "cliente@acme.test"

var testManagers = []string{"gestor1@ecoguard.test", "gestor2@ecoguard.test"}

func newTestModule(sender *testSender) *Module {
	return New(sender, testNotificationConfig{}, testManagers, logger.Discard())
}

func TestTicketOpenedNotifiesManagers(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)
	id := uuid.New()

	if err := m.Handle(context.Background(), events.TicketOpened{TicketID: id, ClientEmail: testClientEmail}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != len(testManagers) {
		t.Fatalf("expected one email per manager, got %+v", sender.sent)
	}
	if sender.sent[0].body != "https://app.example.com/tickets/"+id.String() {
		t.Fatalf("unexpected ticket link %q", sender.sent[0].body)
	}
}

func TestStageChangeRecipients(t *testing.T) {
	cases := []struct {
		name string
		evt  events.TicketStageChanged
		want []string
	}{
		{
			name: "photos requested goes to client",
			evt:  events.TicketStageChanged{FromStage: "mapeamento_gestor", ToStage: "upload_fotos_cliente", ActorEmail: testManagers[0], ClientEmail: testClientEmail},
			want: []string{testClientEmail},
		},
		{
			name: "analysis requested goes to managers",
			evt:  events.TicketStageChanged{FromStage: "upload_fotos_cliente", ToStage: "analise_gestor", ActorEmail: testClientEmail, ClientEmail: testClientEmail},
			want: testManagers,
		},
		{
			name: "finished goes to client",
			evt:  events.TicketStageChanged{FromStage: "analise_gestor", ToStage: "finalizado", ActorEmail: testManagers[1], ClientEmail: testClientEmail},
			want: []string{testClientEmail},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &testSender{}
			if err := newTestModule(sender).Handle(context.Background(), tc.evt); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(sender.sent) != len(tc.want) {
				t.Fatalf("expected %d emails, got %+v", len(tc.want), sender.sent)
			}
			for i, to := range tc.want {
				if sender.sent[i].to != to {
					t.Fatalf("email %d went to %q, want %q", i, sender.sent[i].to, to)
				}
			}
		})
	}
}

func TestInspectionCompletedEscapesContent(t *testing.T) {
	sender := &testSender{}
	evt := events.InspectionCompleted{InspectionID: uuid.New(), CompanyName: "<Acme>", Score: 80, RiskTier: "baixo", AlertCount: 1, OwnerEmail: testClientEmail}

	if err := newTestModule(sender).Handle(context.Background(), evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].body, "&lt;Acme&gt;") {
		t.Fatalf("expected escaped company name, got %+v", sender.sent)
	}
}

func TestSendFailuresAreSwallowed(t *testing.T) {
	sender := &testSender{fail: true}
	if err := newTestModule(sender).Handle(context.Background(), events.TicketOpened{TicketID: uuid.New()}); err != nil {
		t.Fatalf("delivery failures must not reach the publisher: %v", err)
	}
}
