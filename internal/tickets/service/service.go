// Package service runs the ticket workflow between a company's client and
// the managers: opening on plan upload, stage transitions, evidence photos,
// per-area verdicts and the message log.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/adapters/storage"
	"ecoguard_backend/internal/companies"
	"ecoguard_backend/internal/events"
	"ecoguard_backend/internal/plants"
	"ecoguard_backend/internal/tickets/domain"
	"ecoguard_backend/internal/tickets/repository"
	"ecoguard_backend/internal/tickets/transport"
	"ecoguard_backend/platform/apperr"
	"ecoguard_backend/platform/logger"
	"ecoguard_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/sync/errgroup"
)

const (
	msgTicketNotFound     = "Ticket não encontrado"
	msgTicketFinished     = "Ticket finalizado"
	msgNotTicketOwner     = "Apenas o cliente do ticket pode enviar fotos"
	msgManagerOnly        = "Apenas gestores podem realizar esta ação"
	msgInvalidKind        = "tipo deve ser mensagem ou apontamento"
	msgMessageRequired    = "mensagem é obrigatória"
	msgInvalidPhoto       = "Foto inválida"
	msgPhotoMustBeImage   = "A foto deve ser uma imagem"
	msgStorageUnavailable = "Armazenamento de arquivos indisponível"
	msgOpenTicketExists   = "Já existe um ticket em andamento para esta empresa"
)

type Store interface {
	HasOpenTicket(ctx context.Context, companyID uuid.UUID) (bool, error)
	Create(ctx context.Context, t repository.Ticket, opening repository.Message) (repository.Ticket, error)
	Get(ctx context.Context, id uuid.UUID) (repository.Ticket, error)
	List(ctx context.Context, filter repository.ListFilter) ([]repository.Ticket, error)
	UpdateStage(ctx context.Context, id uuid.UUID, u repository.StageUpdate) (repository.Ticket, error)
	AppendMessage(ctx context.Context, m repository.Message) (repository.Message, error)
	ListMessages(ctx context.Context, ticketID uuid.UUID) ([]repository.Message, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CompanyAccess interface {
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (companies.Company, error)
	Owner(ctx context.Context, companyID uuid.UUID) (companies.Owner, error)
}

// AreaStore is the part of the plants module the workflow writes to.
type AreaStore interface {
	GetPlan(ctx context.Context, id uuid.UUID) (plants.Plan, error)
	ListAreas(ctx context.Context, planID uuid.UUID) ([]plants.Area, error)
	SetClientPhoto(ctx context.Context, planID, areaID uuid.UUID, fileKey string, takenAt *time.Time) (plants.Area, error)
	SetVerdict(ctx context.Context, planID, areaID uuid.UUID, verdict string, note *string) (plants.Area, error)
}

type Service struct {
	repo           Store
	companies      CompanyAccess
	areas          AreaStore
	storage        storage.StorageService
	evidenceBucket string
	eventBus       events.Bus
	appBaseURL     string
	log            *logger.Logger
}

func New(repo Store, companies CompanyAccess, areas AreaStore, storageSvc storage.StorageService, evidenceBucket string, eventBus events.Bus, appBaseURL string, log *logger.Logger) *Service {
	return &Service{
		repo:           repo,
		companies:      companies,
		areas:          areas,
		storage:        storageSvc,
		evidenceBucket: evidenceBucket,
		eventBus:       eventBus,
		appBaseURL:     appBaseURL,
		log:            log,
	}
}

// CanOpen reports whether companyID has no unfinished ticket.
func (s *Service) CanOpen(ctx context.Context, companyID uuid.UUID) (bool, error) {
	open, err := s.repo.HasOpenTicket(ctx, companyID)
	if err != nil {
		return false, err
	}
	return !open, nil
}

// CanCreate is CanOpen for an actor that must have access to the company.
func (s *Service) CanCreate(ctx context.Context, actor access.Actor, companyID uuid.UUID) (transport.CanCreateResponse, error) {
	if _, err := s.companies.Get(ctx, actor, companyID); err != nil {
		return transport.CanCreateResponse{}, err
	}
	ok, err := s.CanOpen(ctx, companyID)
	if err != nil {
		return transport.CanCreateResponse{}, err
	}
	if !ok {
		return transport.CanCreateResponse{CanCreate: false, Reason: msgOpenTicketExists}, nil
	}
	return transport.CanCreateResponse{CanCreate: true}, nil
}

// OpenForPlan opens the mapping ticket for a freshly uploaded plan.
func (s *Service) OpenForPlan(ctx context.Context, actor access.Actor, company companies.Company, plan plants.Plan) (uuid.UUID, error) {
	ticketID := uuid.New()
	t := repository.Ticket{
		ID:             ticketID,
		CompanyID:      company.ID,
		PlanID:         plan.ID,
		CreatedBy:      actor.UserID,
		CreatedByEmail: actor.Email,
		Status:         domain.StageMapping.DefaultStatus(),
		Stage:          domain.StageMapping,
	}
	opening := s.newMessage(ticketID, actor, domain.MessageStatusChange,
		fmt.Sprintf("Ticket aberto com a planta %q. Etapa: %s", plan.Name, domain.StageMapping.Label()))

	created, err := s.repo.Create(ctx, t, opening)
	if err != nil {
		return uuid.Nil, err
	}

	s.eventBus.Publish(ctx, events.TicketOpened{
		BaseEvent:   events.NewBaseEvent(),
		TicketID:    created.ID,
		CompanyID:   company.ID,
		CompanyName: company.Name,
		PlanName:    plan.Name,
		ClientEmail: actor.Email,
	})
	return created.ID, nil
}

// List returns every ticket to managers and a client's own visible tickets
// to the client.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]repository.Ticket, error) {
	filter := repository.ListFilter{IncludeDeleted: true}
	if !actor.IsManager() {
		filter = repository.ListFilter{CreatedBy: &actor.UserID}
	}
	tickets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []repository.Ticket{}
	}
	return tickets, nil
}

// load returns the ticket if the actor may see it. Clients see only their
// own tickets that they have not deleted.
func (s *Service) load(ctx context.Context, actor access.Actor, id uuid.UUID) (repository.Ticket, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return repository.Ticket{}, err
	}
	if actor.IsManager() {
		return t, nil
	}
	if t.CreatedBy != actor.UserID || t.DeletedByClient {
		return repository.Ticket{}, apperr.NotFound(msgTicketNotFound)
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.TicketDetail, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return transport.TicketDetail{}, err
	}

	detail := transport.TicketDetail{Ticket: t}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		company, err := s.companies.Get(gctx, actor, t.CompanyID)
		if err != nil && actor.IsManager() && apperr.Is(err, apperr.KindNotFound) {
			// Tickets outlive their company; gestores still see them.
			company, err = companies.Company{ID: t.CompanyID}, nil
		}
		detail.Company = company
		return err
	})
	g.Go(func() error {
		plan, err := s.areas.GetPlan(gctx, t.PlanID)
		detail.Plan = plan
		return err
	})
	g.Go(func() error {
		areas, err := s.areas.ListAreas(gctx, t.PlanID)
		detail.Areas = areas
		return err
	})
	g.Go(func() error {
		messages, err := s.repo.ListMessages(gctx, t.ID)
		detail.Messages = messages
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.TicketDetail{}, err
	}
	if detail.Areas == nil {
		detail.Areas = []plants.Area{}
	}
	if detail.Messages == nil {
		detail.Messages = []repository.Message{}
	}
	return detail, nil
}

// AddMessage appends to the ticket's log. Findings are for managers only;
// status_change entries are written by the workflow itself.
func (s *Service) AddMessage(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.MessageRequest) (repository.Message, error) {
	body := sanitize.Text(req.Message)
	if body == "" {
		return repository.Message{}, apperr.Validation(msgMessageRequired)
	}
	kind := domain.MessageText
	if req.Kind != "" {
		kind = domain.MessageKind(req.Kind)
	}
	if kind != domain.MessageText && kind != domain.MessageFinding {
		return repository.Message{}, apperr.BadRequest(msgInvalidKind)
	}
	if kind == domain.MessageFinding && !actor.IsManager() {
		return repository.Message{}, apperr.Forbidden(msgManagerOnly)
	}

	t, err := s.load(ctx, actor, id)
	if err != nil {
		return repository.Message{}, err
	}
	return s.repo.AppendMessage(ctx, s.newMessage(t.ID, actor, kind, body))
}

// UpdateStatus applies a (status, etapa) request through the workflow and
// notifies the other party.
func (s *Service) UpdateStatus(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.StatusRequest) (repository.Ticket, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return repository.Ticket{}, err
	}

	change, err := domain.PlanChange(t.Stage, sanitize.Text(req.Status), req.Stage, actor, t.CreatedBy == actor.UserID)
	if err != nil {
		return repository.Ticket{}, err
	}

	body := fmt.Sprintf("Status alterado para %q", change.Status)
	if change.Transition {
		body = fmt.Sprintf("Etapa alterada de %s para %s. Status: %s", t.Stage.Label(), change.Stage.Label(), change.Status)
	}
	msg := s.newMessage(t.ID, actor, domain.MessageStatusChange, body)

	updated, err := s.repo.UpdateStage(ctx, t.ID, repository.StageUpdate{
		From:    t.Stage,
		To:      change.Stage,
		Status:  change.Status,
		Message: &msg,
	})
	if err != nil {
		return repository.Ticket{}, err
	}

	s.publishStageChanged(ctx, actor, t, updated)
	return updated, nil
}

func (s *Service) publishStageChanged(ctx context.Context, actor access.Actor, before, after repository.Ticket) {
	companyName := ""
	if owner, err := s.companies.Owner(ctx, after.CompanyID); err == nil {
		companyName = owner.CompanyName
	} else {
		s.log.Warn("ticket company not resolvable for notification", "ticket_id", after.ID, "error", err)
	}
	s.eventBus.Publish(ctx, events.TicketStageChanged{
		BaseEvent:   events.NewBaseEvent(),
		TicketID:    after.ID,
		CompanyID:   after.CompanyID,
		CompanyName: companyName,
		FromStage:   string(before.Stage),
		ToStage:     string(after.Stage),
		Status:      after.Status,
		ActorEmail:  actor.Email,
		ActorRole:   string(actor.Role),
		ClientEmail: after.CreatedByEmail,
	})
}

// UploadPhoto stores the client's evidence for one area of the ticket's
// plan. The capture time is taken from EXIF when the image carries it.
func (s *Service) UploadPhoto(ctx context.Context, actor access.Actor, id, areaID uuid.UUID, file plants.FileUpload) (plants.Area, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return plants.Area{}, err
	}
	if t.CreatedBy != actor.UserID {
		return plants.Area{}, apperr.Forbidden(msgNotTicketOwner)
	}
	if t.Stage.Terminal() {
		return plants.Area{}, apperr.BadRequest(msgTicketFinished)
	}
	if s.storage == nil {
		return plants.Area{}, apperr.Internal(msgStorageUnavailable)
	}
	if !storage.IsImageContentType(file.ContentType) {
		return plants.Area{}, apperr.Validation(msgPhotoMustBeImage)
	}
	if err := s.storage.ValidateFileSize(file.Size); err != nil {
		return plants.Area{}, apperr.Validation(msgInvalidPhoto).WithDetails(err.Error())
	}

	data, err := io.ReadAll(io.LimitReader(file.Reader, file.Size+1))
	if err != nil {
		return plants.Area{}, apperr.Wrap(apperr.KindBadRequest, msgInvalidPhoto, err)
	}
	takenAt := captureTime(data)

	folder := "tickets/" + t.ID.String()
	key, err := s.storage.UploadFile(ctx, s.evidenceBucket, folder, file.FileName, file.ContentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return plants.Area{}, apperr.Wrap(apperr.KindInternal, "Falha ao enviar foto", err)
	}

	area, err := s.areas.SetClientPhoto(ctx, t.PlanID, areaID, key, takenAt)
	if err != nil {
		if delErr := s.storage.DeleteObject(ctx, s.evidenceBucket, key); delErr != nil {
			s.log.Warn("failed to delete orphaned photo", "key", key, "error", delErr)
		}
		return plants.Area{}, err
	}
	return area, nil
}

// captureTime reads DateTimeOriginal from EXIF, if present.
func captureTime(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	taken, err := x.DateTime()
	if err != nil {
		return nil
	}
	return &taken
}

// AnalyzeArea records a manager's verdict for one area and logs it as a
// finding on the ticket. Later verdicts overwrite earlier ones.
func (s *Service) AnalyzeArea(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.VerdictRequest) (plants.Area, error) {
	if !actor.IsManager() {
		return plants.Area{}, apperr.Forbidden(msgManagerOnly)
	}
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return plants.Area{}, err
	}
	if t.Stage.Terminal() {
		return plants.Area{}, apperr.BadRequest(msgTicketFinished)
	}

	var note *string
	if req.Note != nil {
		if cleaned := sanitize.Text(*req.Note); cleaned != "" {
			note = &cleaned
		}
	}
	area, err := s.areas.SetVerdict(ctx, t.PlanID, req.AreaID, req.Verdict, note)
	if err != nil {
		return plants.Area{}, err
	}

	body := fmt.Sprintf("Área %q analisada: %s", area.Name, req.Verdict)
	if note != nil {
		body += ". " + *note
	}
	if _, err := s.repo.AppendMessage(ctx, s.newMessage(t.ID, actor, domain.MessageFinding, body)); err != nil {
		s.log.Error("failed to log area verdict", "ticket_id", t.ID, "area_id", area.ID, "error", err)
	}
	return area, nil
}

// Delete hides the ticket from a client, or removes it for a manager.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.DeleteResponse, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return transport.DeleteResponse{}, err
	}
	if actor.IsManager() {
		if err := s.repo.Delete(ctx, t.ID); err != nil {
			return transport.DeleteResponse{}, err
		}
		return transport.DeleteResponse{Deleted: true}, nil
	}
	if err := s.repo.SoftDelete(ctx, t.ID); err != nil {
		return transport.DeleteResponse{}, err
	}
	return transport.DeleteResponse{Deleted: true, Soft: true}, nil
}

func (s *Service) newMessage(ticketID uuid.UUID, actor access.Actor, kind domain.MessageKind, body string) repository.Message {
	return repository.Message{
		ID:          uuid.New(),
		TicketID:    ticketID,
		AuthorID:    actor.UserID,
		AuthorEmail: actor.Email,
		AuthorRole:  string(actor.Role),
		Body:        body,
		Kind:        kind,
	}
}

var _ plants.TicketOpener = (*Service)(nil)
