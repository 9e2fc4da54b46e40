package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/adapters/storage"
	"ecoguard_backend/internal/companies"
	"ecoguard_backend/internal/events"
	"ecoguard_backend/internal/inspections/domain"
	"ecoguard_backend/internal/inspections/repository"
	"ecoguard_backend/internal/inspections/transport"
	"ecoguard_backend/internal/plants"
	"ecoguard_backend/platform/apperr"
	"ecoguard_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	Store
	areas       int
	inspections map[uuid.UUID]repository.Inspection
	items       []domain.ScoredItem
	alerts      map[uuid.UUID][]repository.Alert
	answered    int
	answerErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{inspections: map[uuid.UUID]repository.Inspection{}, alerts: map[uuid.UUID][]repository.Alert{}}
}

func (f *fakeStore) CountAreas(context.Context, uuid.UUID) (int, error) { return f.areas, nil }

func (f *fakeStore) Create(_ context.Context, s repository.Inspection) (repository.Inspection, error) {
	s.Status = domain.StatusInProgress
	s.TotalItems = len(f.items)
	f.inspections[s.ID] = s
	return s, nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (repository.Inspection, error) {
	s, ok := f.inspections[id]
	if !ok {
		return repository.Inspection{}, apperr.NotFound("Inspeção não encontrada")
	}
	return s, nil
}

func (f *fakeStore) AnswerItem(_ context.Context, _, itemID uuid.UUID, answer domain.Answer, _, _ *string) (repository.Item, error) {
	if f.answerErr != nil {
		return repository.Item{}, f.answerErr
	}
	f.answered++
	a := string(answer)
	return repository.Item{ID: itemID, Answer: &a, RiskDetected: answer == domain.AnswerNonConformant}, nil
}

func (f *fakeStore) ListAlerts(_ context.Context, id uuid.UUID) ([]repository.Alert, error) {
	return f.alerts[id], nil
}

// Complete mirrors the locked transaction: a concluded inspection conflicts.
func (f *fakeStore) Complete(_ context.Context, id uuid.UUID, score func([]domain.ScoredItem) domain.Result) (repository.Inspection, []repository.Alert, error) {
	s := f.inspections[id]
	if s.Status == domain.StatusCompleted {
		return repository.Inspection{}, nil, apperr.Conflict("Inspeção já concluída")
	}
	res := score(f.items)
	tier := string(res.Tier)
	s.Status, s.Score, s.RiskTier = domain.StatusCompleted, &res.Score, &tier
	s.TotalItems, s.ConformantItems, s.NonConformantItems = res.Total, res.Conformant, res.NonConformant
	f.inspections[id] = s
	for _, a := range res.Alerts {
		f.alerts[id] = append(f.alerts[id], repository.Alert{InspectionItemID: a.ItemID, EstimatedFine: a.EstimatedFine, DeadlineDays: a.DeadlineDays})
	}
	return s, f.alerts[id], nil
}

type fakeCompanies struct{ company companies.Company }

func (f fakeCompanies) Get(_ context.Context, _ access.Actor, id uuid.UUID) (companies.Company, error) {
	if id != f.company.ID {
		return companies.Company{}, apperr.NotFound("Empresa não encontrada")
	}
	return f.company, nil
}

func (f fakeCompanies) Owner(context.Context, uuid.UUID) (companies.Owner, error) {
	return companies.Owner{CompanyName: f.company.Name, Email: "dono@empresa.com"}, nil
}

type fakePlans struct{ plan plants.Plan }

func (f fakePlans) GetPlan(_ context.Context, id uuid.UUID) (plants.Plan, error) {
	if id != f.plan.ID {
		return plants.Plan{}, apperr.NotFound("Planta não encontrada")
	}
	return f.plan, nil
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
	bus     *recordingBus
	company companies.Company
	plan    plants.Plan
	actor   access.Actor
}

func newFixture() fixture {
	company := companies.Company{ID: uuid.New(), Name: "Metalúrgica"}
	plan := plants.Plan{ID: uuid.New(), CompanyID: company.ID}
	store := newFakeStore()
	store.areas = 2
	bus := &recordingBus{}
	svc := New(store, fakeCompanies{company: company}, fakePlans{plan: plan}, nil, "evidence", bus, logger.Discard())
	return fixture{svc: svc, store: store, bus: bus, company: company, plan: plan, actor: access.Actor{UserID: uuid.New(), Role: access.RoleClient}}
}

func TestCreateRejectsPlanWithoutAreas(t *testing.T) {
	f := newFixture()
	f.store.areas = 0

	_, err := f.svc.Create(context.Background(), f.actor, f.company.ID, f.plan.ID)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if len(f.store.inspections) != 0 {
		t.Fatal("expected no inspection created")
	}
}

func TestCreateRejectsPlanOfAnotherCompany(t *testing.T) {
	f := newFixture()
	f.svc.plans = fakePlans{plan: plants.Plan{ID: f.plan.ID, CompanyID: uuid.New()}}

	if _, err := f.svc.Create(context.Background(), f.actor, f.company.ID, f.plan.ID); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestAnswerValidation(t *testing.T) {
	f := newFixture()
	insp, err := f.svc.Create(context.Background(), f.actor, f.company.ID, f.plan.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Answer(context.Background(), f.actor, insp.ID, uuid.New(), transport.AnswerRequest{Answer: "talvez"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	item, err := f.svc.Answer(context.Background(), f.actor, insp.ID, uuid.New(), transport.AnswerRequest{Answer: "nao_conforme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.RiskDetected {
		t.Fatal("expected nao_conforme to flag risk")
	}
}

func TestCompleteScoresOnceAndPublishes(t *testing.T) {
	f := newFixture()
	f.store.items = []domain.ScoredItem{
		{ItemID: uuid.New(), Answer: domain.AnswerConformant},
		{ItemID: uuid.New(), Answer: domain.AnswerConformant},
		{ItemID: uuid.New(), Answer: domain.AnswerConformant},
		{ItemID: uuid.New(), Answer: domain.AnswerConformant},
		{ItemID: uuid.New(), Answer: domain.AnswerNonConformant, Criticality: "alta", RiskPoints: 20},
	}
	insp, err := f.svc.Create(context.Background(), f.actor, f.company.ID, f.plan.ID)
	if err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.Complete(context.Background(), f.actor, insp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *result.Score != 80 || *result.RiskTier != "baixo" || result.AlertsCount != 1 {
		t.Fatalf("unexpected completion %+v", result)
	}
	if result.Alerts[0].EstimatedFine != 100000 || result.Alerts[0].DeadlineDays != 30 {
		t.Fatalf("unexpected alert %+v", result.Alerts[0])
	}

	if len(f.bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(f.bus.published))
	}
	evt, ok := f.bus.published[0].(events.InspectionCompleted)
	if !ok || evt.AlertCount != 1 || evt.OwnerEmail != "dono@empresa.com" || evt.Score != 80 {
		t.Fatalf("unexpected event %+v", f.bus.published[0])
	}

	if _, err := f.svc.Complete(context.Background(), f.actor, insp.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second completion, got %v", err)
	}
	if len(f.store.alerts[insp.ID]) != 1 {
		t.Fatalf("expected alerts not duplicated, got %d", len(f.store.alerts[insp.ID]))
	}
	if len(f.bus.published) != 1 {
		t.Fatal("expected no event for rejected completion")
	}

	if _, err := f.svc.Answer(context.Background(), f.actor, insp.ID, uuid.New(), transport.AnswerRequest{Answer: "conforme"}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected answers rejected after completion, got %v", err)
	}
	if f.store.answered != 0 {
		t.Fatal("expected no answer stored")
	}
}

type fakeBlobs struct {
	uploads []string
	deleted []string
}

func (f *fakeBlobs) UploadFile(_ context.Context, _, folder, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	key := folder + "/" + fileName
	f.uploads = append(f.uploads, key)
	return key, nil
}
func (f *fakeBlobs) GenerateDownloadURL(_ context.Context, _, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://blob/" + key, FileKey: key}, nil
}
func (f *fakeBlobs) DownloadFile(context.Context, string, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (f *fakeBlobs) DeleteObject(_ context.Context, _, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}
func (f *fakeBlobs) EnsureBucketExists(context.Context, string) error { return nil }
func (f *fakeBlobs) ValidateContentType(string) error { return nil }
func (f *fakeBlobs) ValidateFileSize(int64) error { return nil }

func TestRejectedAnswerRemovesUploadedPhoto(t *testing.T) {
	f := newFixture()
	blobs := &fakeBlobs{}
	f.svc.storage = blobs
	insp, err := f.svc.Create(context.Background(), f.actor, f.company.ID, f.plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	f.store.answerErr = apperr.BadRequest("Inspeção já concluída")

	req := transport.AnswerRequest{
		Answer: "nao_conforme",
		Photo:  &transport.Photo{FileName: "vazamento.jpg", ContentType: "image/jpeg", Size: 4, Reader: strings.NewReader("jpeg")},
	}
	if _, err := f.svc.Answer(context.Background(), f.actor, insp.ID, uuid.New(), req); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if len(blobs.uploads) != 1 || len(blobs.deleted) != 1 || blobs.deleted[0] != blobs.uploads[0] {
		t.Fatalf("expected the uploaded photo to be removed, uploads=%v deleted=%v", blobs.uploads, blobs.deleted)
	}
}

func TestManagerReadsInspectionOfDeletedCompany(t *testing.T) {
	f := newFixture()
	insp, err := f.svc.Create(context.Background(), f.actor, f.company.ID, f.plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	f.svc.companies = fakeCompanies{}

	manager := access.Actor{UserID: uuid.New(), Role: access.RoleManager}
	detail, err := f.svc.Get(context.Background(), manager, insp.ID)
	if err != nil {
		t.Fatalf("manager get: %v", err)
	}
	if detail.ID != insp.ID {
		t.Fatalf("unexpected inspection %+v", detail.Inspection)
	}
	if _, err := f.svc.Get(context.Background(), f.actor, insp.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("client must not reach the orphaned inspection, got %v", err)
	}
}
