// Package service runs inspections: instantiation from a plan's critical
// areas, answer submission and scored completion.
package service

import (
	"context"

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
	"ecoguard_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgPlanHasNoAreas     = "A planta não possui áreas críticas marcadas"
	msgPlanOtherCompany   = "A planta não pertence a esta empresa"
	msgInvalidAnswer      = "resposta deve ser conforme ou nao_conforme"
	msgInspectionClosed   = "Inspeção já concluída"
	msgStorageUnavailable = "Armazenamento de arquivos indisponível"
	msgPhotoNotFound      = "Item sem foto"
)

type Store interface {
	CountAreas(ctx context.Context, planID uuid.UUID) (int, error)
	Create(ctx context.Context, s repository.Inspection) (repository.Inspection, error)
	Get(ctx context.Context, id uuid.UUID) (repository.Inspection, error)
	List(ctx context.Context, companyID uuid.UUID) ([]repository.Inspection, error)
	ListItems(ctx context.Context, inspectionID uuid.UUID) ([]repository.ItemDetail, error)
	GetItem(ctx context.Context, inspectionID, itemID uuid.UUID) (repository.Item, error)
	AnswerItem(ctx context.Context, inspectionID, itemID uuid.UUID, answer domain.Answer, note, photoKey *string) (repository.Item, error)
	Complete(ctx context.Context, id uuid.UUID, score func([]domain.ScoredItem) domain.Result) (repository.Inspection, []repository.Alert, error)
	ListAlerts(ctx context.Context, inspectionID uuid.UUID) ([]repository.Alert, error)
}

type CompanyAccess interface {
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (companies.Company, error)
	Owner(ctx context.Context, companyID uuid.UUID) (companies.Owner, error)
}

type PlanReader interface {
	GetPlan(ctx context.Context, id uuid.UUID) (plants.Plan, error)
}

type Service struct {
	repo      Store
	companies CompanyAccess
	plans     PlanReader
	storage   storage.StorageService
	bucket    string
	eventBus  events.Bus
	log       *logger.Logger
}

func New(repo Store, companies CompanyAccess, plans PlanReader, storageSvc storage.StorageService, bucket string, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, companies: companies, plans: plans, storage: storageSvc, bucket: bucket, eventBus: eventBus, log: log}
}

// Create starts an inspection for a plan of the company. The plan must have
// at least one critical area.
func (s *Service) Create(ctx context.Context, actor access.Actor, companyID, planID uuid.UUID) (repository.Inspection, error) {
	if _, err := s.companies.Get(ctx, actor, companyID); err != nil {
		return repository.Inspection{}, err
	}
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return repository.Inspection{}, err
	}
	if plan.CompanyID != companyID {
		return repository.Inspection{}, apperr.BadRequest(msgPlanOtherCompany)
	}
	areas, err := s.repo.CountAreas(ctx, planID)
	if err != nil {
		return repository.Inspection{}, err
	}
	if areas == 0 {
		return repository.Inspection{}, apperr.BadRequest(msgPlanHasNoAreas)
	}

	return s.repo.Create(ctx, repository.Inspection{
		ID:        uuid.New(),
		CompanyID: companyID,
		PlanID:    planID,
		CreatedBy: actor.UserID,
	})
}

// authorize loads an inspection the actor may see. Gestores see every
// inspection, including those of a deleted company.
func (s *Service) authorize(ctx context.Context, actor access.Actor, id uuid.UUID) (repository.Inspection, error) {
	insp, err := s.repo.Get(ctx, id)
	if err != nil {
		return repository.Inspection{}, err
	}
	if actor.IsManager() {
		return insp, nil
	}
	if _, err := s.companies.Get(ctx, actor, insp.CompanyID); err != nil {
		return repository.Inspection{}, err
	}
	return insp, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, companyID uuid.UUID) ([]repository.Inspection, error) {
	if _, err := s.companies.Get(ctx, actor, companyID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, companyID)
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.InspectionDetail, error) {
	insp, err := s.authorize(ctx, actor, id)
	if err != nil {
		return transport.InspectionDetail{}, err
	}
	alerts, err := s.repo.ListAlerts(ctx, id)
	if err != nil {
		return transport.InspectionDetail{}, err
	}
	return transport.InspectionDetail{Inspection: insp, Alerts: alerts}, nil
}

func (s *Service) ListItems(ctx context.Context, actor access.Actor, id uuid.UUID) ([]repository.ItemDetail, error) {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, id)
}

// Answer records the answer for one item, uploading the evidence photo
// first when one is attached.
func (s *Service) Answer(ctx context.Context, actor access.Actor, inspectionID, itemID uuid.UUID, req transport.AnswerRequest) (repository.Item, error) {
	answer := domain.Answer(req.Answer)
	if !answer.Valid() {
		return repository.Item{}, apperr.Validation(msgInvalidAnswer)
	}
	insp, err := s.authorize(ctx, actor, inspectionID)
	if err != nil {
		return repository.Item{}, err
	}
	if insp.Status == domain.StatusCompleted {
		return repository.Item{}, apperr.BadRequest(msgInspectionClosed)
	}

	var photoKey *string
	if req.Photo != nil {
		key, err := s.uploadPhoto(ctx, insp, *req.Photo)
		if err != nil {
			return repository.Item{}, err
		}
		photoKey = &key
	}

	item, err := s.repo.AnswerItem(ctx, inspectionID, itemID, answer, sanitize.TextPtr(req.Note), photoKey)
	if err != nil {
		if photoKey != nil {
			if delErr := s.storage.DeleteObject(ctx, s.bucket, *photoKey); delErr != nil {
				s.log.Warn("failed to delete orphaned photo", "key", *photoKey, "error", delErr)
			}
		}
		return repository.Item{}, err
	}
	return item, nil
}

func (s *Service) uploadPhoto(ctx context.Context, insp repository.Inspection, photo transport.Photo) (string, error) {
	if s.storage == nil {
		return "", apperr.Internal(msgStorageUnavailable)
	}
	if !storage.IsImageContentType(photo.ContentType) {
		return "", apperr.Validation("A foto deve ser uma imagem")
	}
	if err := s.storage.ValidateFileSize(photo.Size); err != nil {
		return "", apperr.Validation("Foto inválida").WithDetails(err.Error())
	}
	key, err := s.storage.UploadFile(ctx, s.bucket, "inspections/"+insp.ID.String(), photo.FileName, photo.ContentType, photo.Reader, photo.Size)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "Falha ao enviar foto", err)
	}
	return key, nil
}

func (s *Service) ItemPhotoURL(ctx context.Context, actor access.Actor, inspectionID, itemID uuid.UUID) (*storage.PresignedURL, error) {
	if _, err := s.authorize(ctx, actor, inspectionID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItem(ctx, inspectionID, itemID)
	if err != nil {
		return nil, err
	}
	if item.PhotoKey == nil {
		return nil, apperr.NotFound(msgPhotoNotFound)
	}
	if s.storage == nil {
		return nil, apperr.Internal(msgStorageUnavailable)
	}
	return s.storage.GenerateDownloadURL(ctx, s.bucket, *item.PhotoKey)
}

// Complete scores the inspection and generates its alerts. A second call is
// rejected with a conflict; alerts are never duplicated.
func (s *Service) Complete(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.CompletionResponse, error) {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return transport.CompletionResponse{}, err
	}
	insp, alerts, err := s.repo.Complete(ctx, id, domain.Score)
	if err != nil {
		return transport.CompletionResponse{}, err
	}

	s.publishCompleted(ctx, insp, len(alerts))
	return transport.CompletionResponse{Inspection: insp, Alerts: alerts, AlertsCount: len(alerts)}, nil
}

func (s *Service) publishCompleted(ctx context.Context, insp repository.Inspection, alertCount int) {
	if s.eventBus == nil {
		return
	}
	owner, err := s.companies.Owner(ctx, insp.CompanyID)
	if err != nil {
		s.log.Warn("inspection completed without resolvable owner", "inspection_id", insp.ID, "error", err)
		return
	}
	evt := events.InspectionCompleted{
		BaseEvent:    events.NewBaseEvent(),
		InspectionID: insp.ID,
		CompanyID:    insp.CompanyID,
		CompanyName:  owner.CompanyName,
		AlertCount:   alertCount,
		OwnerEmail:   owner.Email,
	}
	if insp.Score != nil {
		evt.Score = *insp.Score
	}
	if insp.RiskTier != nil {
		evt.RiskTier = *insp.RiskTier
	}
	s.eventBus.Publish(ctx, evt)
}
