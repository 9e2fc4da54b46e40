package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/companies"
	"ecoguard_backend/internal/events"
	"ecoguard_backend/internal/plants"
	"ecoguard_backend/internal/tickets/domain"
	"ecoguard_backend/internal/tickets/repository"
	"ecoguard_backend/internal/tickets/transport"
	"ecoguard_backend/platform/apperr"
	"ecoguard_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	tickets  map[uuid.UUID]repository.Ticket
	messages []repository.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{tickets: map[uuid.UUID]repository.Ticket{}}
}

func (f *fakeStore) HasOpenTicket(_ context.Context, companyID uuid.UUID) (bool, error) {
	for _, t := range f.tickets {
		if t.CompanyID == companyID && t.Stage != domain.StageFinished {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Create(ctx context.Context, t repository.Ticket, opening repository.Message) (repository.Ticket, error) {
	if open, _ := f.HasOpenTicket(ctx, t.CompanyID); open {
		return repository.Ticket{}, apperr.Conflict("Já existe um ticket em andamento para esta empresa")
	}
	t.CreatedAt = time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC)
	f.tickets[t.ID] = t
	opening.TicketID = t.ID
	f.messages = append(f.messages, opening)
	return t, nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (repository.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return repository.Ticket{}, apperr.NotFound("Ticket não encontrado")
	}
	return t, nil
}

func (f *fakeStore) List(_ context.Context, filter repository.ListFilter) ([]repository.Ticket, error) {
	var out []repository.Ticket
	for _, t := range f.tickets {
		if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
			continue
		}
		if !filter.IncludeDeleted && t.DeletedByClient {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) UpdateStage(_ context.Context, id uuid.UUID, u repository.StageUpdate) (repository.Ticket, error) {
	t := f.tickets[id]
	if t.Stage != u.From {
		return repository.Ticket{}, apperr.Conflict("O ticket foi alterado por outra requisição")
	}
	t.Stage, t.Status = u.To, u.Status
	if u.To == domain.StageFinished {
		now := time.Now()
		t.ClosedAt = &now
	}
	f.tickets[id] = t
	if u.Message != nil {
		f.messages = append(f.messages, *u.Message)
	}
	return t, nil
}

func (f *fakeStore) AppendMessage(_ context.Context, m repository.Message) (repository.Message, error) {
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeStore) ListMessages(_ context.Context, ticketID uuid.UUID) ([]repository.Message, error) {
	var out []repository.Message
	for _, m := range f.messages {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	t := f.tickets[id]
	t.DeletedByClient = true
	f.tickets[id] = t
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.tickets, id)
	return nil
}

type fakeCompanies struct{ company companies.Company }

func (f fakeCompanies) Get(_ context.Context, actor access.Actor, id uuid.UUID) (companies.Company, error) {
	if id != f.company.ID {
		return companies.Company{}, apperr.NotFound("Empresa não encontrada")
	}
	if !actor.IsManager() && actor.UserID != f.company.OwnerUserID {
		return companies.Company{}, apperr.Forbidden("Acesso negado a esta empresa")
	}
	return f.company, nil
}

func (f fakeCompanies) Owner(context.Context, uuid.UUID) (companies.Owner, error) {
	return companies.Owner{CompanyName: f.company.Name, Email: "dono@empresa.com"}, nil
}

type fakeAreas struct {
	plan  plants.Plan
	areas map[uuid.UUID]plants.Area
}

func (f *fakeAreas) GetPlan(context.Context, uuid.UUID) (plants.Plan, error) { return f.plan, nil }

func (f *fakeAreas) ListAreas(context.Context, uuid.UUID) ([]plants.Area, error) {
	out := make([]plants.Area, 0, len(f.areas))
	for _, a := range f.areas {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAreas) SetClientPhoto(_ context.Context, planID, areaID uuid.UUID, key string, takenAt *time.Time) (plants.Area, error) {
	a, ok := f.areas[areaID]
	if !ok || planID != f.plan.ID {
		return plants.Area{}, apperr.NotFound("Área não encontrada")
	}
	a.ClientPhotoKey, a.HasClientPhoto, a.PhotoTakenAt = &key, true, takenAt
	f.areas[areaID] = a
	return a, nil
}

func (f *fakeAreas) SetVerdict(_ context.Context, planID, areaID uuid.UUID, verdict string, note *string) (plants.Area, error) {
	a, ok := f.areas[areaID]
	if !ok || planID != f.plan.ID {
		return plants.Area{}, apperr.NotFound("Área não encontrada")
	}
	a.AnalysisVerdict, a.AnalysisNote = &verdict, note
	f.areas[areaID] = a
	return a, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type fixture struct {
	svc     *Service
	store   *fakeStore
	areas   *fakeAreas
	bus     *recordingBus
	company companies.Company
	plan    plants.Plan
	client  access.Actor
	manager access.Actor
	area    plants.Area
}

func newFixture(t *testing.T) (fixture, uuid.UUID) {
	t.Helper()
	client := access.Actor{UserID: uuid.New(), Email: "cliente@acme.test", Role: access.RoleClient}
	manager := access.Actor{UserID: uuid.New(), Email: "gestor@ecoguard.test", Role: access.RoleManager}
	company := companies.Company{ID: uuid.New(), OwnerUserID: client.UserID, Name: "Acme Química"}
	plan := plants.Plan{ID: uuid.New(), CompanyID: company.ID, Name: "Galpão 1"}
	area := plants.Area{ID: uuid.New(), PlanID: plan.ID, Name: "Tanque de resíduos", AreaType: "residuos", Criticality: "alta"}
	areas := &fakeAreas{plan: plan, areas: map[uuid.UUID]plants.Area{area.ID: area}}

	store := newFakeStore()
	bus := &recordingBus{}
	svc := New(store, fakeCompanies{company: company}, areas, nil, "evidence", bus, "https://app.ecoguard.test", logger.Discard())

	f := fixture{svc: svc, store: store, areas: areas, bus: bus, company: company, plan: plan, client: client, manager: manager, area: area}
	id, err := svc.OpenForPlan(context.Background(), client, company, plan)
	if err != nil {
		t.Fatalf("open ticket: %v", err)
	}
	return f, id
}

func TestOpenForPlanStartsAtMapping(t *testing.T) {
	f, id := newFixture(t)

	ticket := f.store.tickets[id]
	if ticket.Stage != domain.StageMapping || ticket.Status != "aberto" {
		t.Fatalf("unexpected initial state %s/%s", ticket.Stage, ticket.Status)
	}
	if len(f.store.messages) != 1 || f.store.messages[0].Kind != domain.MessageStatusChange {
		t.Fatalf("expected one status_change message, got %+v", f.store.messages)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected TicketOpened event, got %d events", len(f.bus.published))
	}
	if _, ok := f.bus.published[0].(events.TicketOpened); !ok {
		t.Fatalf("unexpected event %T", f.bus.published[0])
	}

	ok, err := f.svc.CanOpen(context.Background(), f.company.ID)
	if err != nil || ok {
		t.Fatalf("expected open ticket to block a new one, got %v %v", ok, err)
	}
}

func TestClientCannotOpenPhotoStage(t *testing.T) {
	f, id := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), f.client, id, transport.StatusRequest{Stage: string(domain.StageClientPhotos)})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.store.tickets[id].Stage != domain.StageMapping {
		t.Fatalf("stage must be unchanged, got %s", f.store.tickets[id].Stage)
	}
	if len(f.store.messages) != 1 || len(f.bus.published) != 1 {
		t.Fatal("a rejected transition must not log or notify")
	}
}

func TestWorkflowHappyPath(t *testing.T) {
	f, id := newFixture(t)
	ctx := context.Background()

	steps := []struct {
		actor access.Actor
		stage domain.Stage
	}{
		{f.manager, domain.StageClientPhotos},
		{f.client, domain.StageManagerReview},
		{f.manager, domain.StageFinished},
	}
	for _, step := range steps {
		updated, err := f.svc.UpdateStatus(ctx, step.actor, id, transport.StatusRequest{Stage: string(step.stage)})
		if err != nil {
			t.Fatalf("transition to %s: %v", step.stage, err)
		}
		if updated.Stage != step.stage || updated.Status != step.stage.DefaultStatus() {
			t.Fatalf("unexpected ticket after %s: %+v", step.stage, updated)
		}
	}

	if f.store.tickets[id].ClosedAt == nil {
		t.Fatal("finishing must set closed_at")
	}
	if len(f.bus.published) != 4 {
		t.Fatalf("expected one event per transition plus opening, got %d", len(f.bus.published))
	}
	changed, ok := f.bus.published[3].(events.TicketStageChanged)
	if !ok || changed.ToStage != string(domain.StageFinished) || changed.ClientEmail != f.client.Email {
		t.Fatalf("unexpected final event %+v", f.bus.published[3])
	}

	_, err := f.svc.UpdateStatus(ctx, f.manager, id, transport.StatusRequest{Stage: string(domain.StageManagerReview)})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("finished tickets must reject transitions, got %v", err)
	}
}

func TestSoftDeleteHidesTicketFromClientOnly(t *testing.T) {
	f, id := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Delete(ctx, f.client, id)
	if err != nil || !res.Soft {
		t.Fatalf("expected soft delete, got %+v %v", res, err)
	}

	clientList, _ := f.svc.List(ctx, f.client)
	if len(clientList) != 0 {
		t.Fatalf("client should not see deleted ticket, got %d", len(clientList))
	}
	managerList, _ := f.svc.List(ctx, f.manager)
	if len(managerList) != 1 {
		t.Fatalf("manager should still see the ticket, got %d", len(managerList))
	}
	if _, err := f.svc.Get(ctx, f.client, id); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("client get after delete should be not found, got %v", err)
	}
}

func TestManagerDeleteIsHard(t *testing.T) {
	f, id := newFixture(t)

	res, err := f.svc.Delete(context.Background(), f.manager, id)
	if err != nil || res.Soft {
		t.Fatalf("expected hard delete, got %+v %v", res, err)
	}
	if _, ok := f.store.tickets[id]; ok {
		t.Fatal("ticket should be removed")
	}
}

func TestAnalyzeAreaIsManagerOnly(t *testing.T) {
	f, id := newFixture(t)
	req := transport.VerdictRequest{AreaID: f.area.ID, Verdict: "nao_conforme"}

	if _, err := f.svc.AnalyzeArea(context.Background(), f.client, id, req); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	note := "Vazamento visível"
	req.Note = &note
	area, err := f.svc.AnalyzeArea(context.Background(), f.manager, id, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if area.AnalysisVerdict == nil || *area.AnalysisVerdict != "nao_conforme" {
		t.Fatalf("verdict not stored: %+v", area)
	}
	last := f.store.messages[len(f.store.messages)-1]
	if last.Kind != domain.MessageFinding || !strings.Contains(last.Body, note) {
		t.Fatalf("expected finding message, got %+v", last)
	}
}

func TestSideChannelsClosedAfterFinish(t *testing.T) {
	f, id := newFixture(t)
	ticket := f.store.tickets[id]
	ticket.Stage = domain.StageFinished
	f.store.tickets[id] = ticket

	_, err := f.svc.AnalyzeArea(context.Background(), f.manager, id, transport.VerdictRequest{AreaID: f.area.ID, Verdict: "conforme"})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	_, err = f.svc.UploadPhoto(context.Background(), f.client, id, f.area.ID, plants.FileUpload{ContentType: "image/jpeg"})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestFindingsAreManagerOnly(t *testing.T) {
	f, id := newFixture(t)

	_, err := f.svc.AddMessage(context.Background(), f.client, id, transport.MessageRequest{Message: "ok", Kind: "apontamento"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	msg, err := f.svc.AddMessage(context.Background(), f.client, id, transport.MessageRequest{Message: "Fotos enviadas"})
	if err != nil || msg.Kind != domain.MessageText || msg.AuthorRole != "cliente" {
		t.Fatalf("unexpected message %+v %v", msg, err)
	}
}

func TestReportSummarizesVerdicts(t *testing.T) {
	f, id := newFixture(t)
	if _, err := f.svc.AnalyzeArea(context.Background(), f.manager, id, transport.VerdictRequest{AreaID: f.area.ID, Verdict: "conforme"}); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	html, err := f.svc.Report(context.Background(), f.manager, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := string(html)
	for _, want := range []string{"Acme Química", "Galpão 1", "Tanque de resíduos", "data:image/png;base64,"} {
		if !strings.Contains(body, want) {
			t.Fatalf("report missing %q", want)
		}
	}
}

func TestManagerStillReadsTicketOfDeletedCompany(t *testing.T) {
	f, id := newFixture(t)
	ctx := context.Background()
	f.svc.companies = fakeCompanies{}

	detail, err := f.svc.Get(ctx, f.manager, id)
	if err != nil {
		t.Fatalf("manager get: %v", err)
	}
	if detail.Company.ID != f.company.ID || detail.Plan.ID != f.plan.ID {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if _, err := f.svc.Report(ctx, f.manager, id); err != nil {
		t.Fatalf("manager report: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.client, id); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("client must not see the orphaned ticket, got %v", err)
	}
}
