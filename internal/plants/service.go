// Package plants handles facility plan uploads and the critical areas marked
// on them. Uploading a plan opens the company's review ticket.
package plants

import (
	"context"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/adapters/storage"
	"ecoguard_backend/internal/companies"
	"ecoguard_backend/platform/apperr"
	"ecoguard_backend/platform/logger"
	"ecoguard_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgOpenTicketExists    = "Já existe um ticket em andamento para esta empresa"
	msgStorageUnavailable  = "Armazenamento de arquivos indisponível"
	msgInvalidFile         = "Arquivo inválido"
	msgManagerOnly         = "Apenas gestores podem marcar áreas"
	msgClientPhotoNotFound = "Área sem foto do cliente"
)

type store interface {
	CreatePlan(ctx context.Context, p Plan) (Plan, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)
	ListPlans(ctx context.Context, companyID uuid.UUID) ([]Plan, error)
	CreateArea(ctx context.Context, a Area) (Area, error)
	GetArea(ctx context.Context, id uuid.UUID) (Area, error)
	ListAreas(ctx context.Context, planID uuid.UUID) ([]Area, error)
}

// CompanyAccess checks that an actor may see a company.
type CompanyAccess interface {
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (companies.Company, error)
}

// TicketOpener creates the review ticket that follows a plan upload.
type TicketOpener interface {
	CanOpen(ctx context.Context, companyID uuid.UUID) (bool, error)
	OpenForPlan(ctx context.Context, actor access.Actor, company companies.Company, plan Plan) (uuid.UUID, error)
}

// Buckets names the object storage buckets used by this module.
type Buckets struct {
	Plans    string
	Evidence string
}

type Service struct {
	repo      store
	companies CompanyAccess
	storage   storage.StorageService
	buckets   Buckets
	tickets   TicketOpener
	log       *logger.Logger
}

func NewService(repo store, companies CompanyAccess, storageSvc storage.StorageService, buckets Buckets, log *logger.Logger) *Service {
	return &Service{repo: repo, companies: companies, storage: storageSvc, buckets: buckets, log: log}
}

// SetTicketOpener injects the ticket module, which depends on this one.
func (s *Service) SetTicketOpener(opener TicketOpener) {
	s.tickets = opener
}

// Upload stores the plan file, records the plan and opens its ticket. A
// company may only have one ticket in progress, so the upload is refused
// while one exists.
func (s *Service) Upload(ctx context.Context, actor access.Actor, companyID uuid.UUID, name string, file FileUpload) (UploadResult, error) {
	company, err := s.companies.Get(ctx, actor, companyID)
	if err != nil {
		return UploadResult{}, err
	}
	name = sanitize.Text(name)
	if name == "" {
		return UploadResult{}, apperr.Validation("Nome da planta é obrigatório")
	}
	if s.storage == nil || s.tickets == nil {
		return UploadResult{}, apperr.Internal(msgStorageUnavailable)
	}

	canOpen, err := s.tickets.CanOpen(ctx, companyID)
	if err != nil {
		return UploadResult{}, err
	}
	if !canOpen {
		return UploadResult{}, apperr.Conflict(msgOpenTicketExists)
	}

	if err := s.storage.ValidateContentType(file.ContentType); err != nil {
		return UploadResult{}, apperr.Validation(msgInvalidFile).WithDetails(err.Error())
	}
	if err := s.storage.ValidateFileSize(file.Size); err != nil {
		return UploadResult{}, apperr.Validation(msgInvalidFile).WithDetails(err.Error())
	}

	key, err := s.storage.UploadFile(ctx, s.buckets.Plans, companyID.String(), file.FileName, file.ContentType, file.Reader, file.Size)
	if err != nil {
		return UploadResult{}, apperr.Wrap(apperr.KindInternal, "Falha ao enviar arquivo", err)
	}

	plan, err := s.repo.CreatePlan(ctx, Plan{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Name:        name,
		FileKey:     key,
		ContentType: file.ContentType,
	})
	if err != nil {
		s.discardObject(ctx, s.buckets.Plans, key)
		return UploadResult{}, err
	}

	ticketID, err := s.tickets.OpenForPlan(ctx, actor, company, plan)
	if err != nil {
		if delErr := s.repo.DeletePlan(ctx, plan.ID); delErr != nil {
			s.log.Error("failed to roll back plan after ticket error", "plan_id", plan.ID, "error", delErr)
		}
		s.discardObject(ctx, s.buckets.Plans, key)
		return UploadResult{}, err
	}

	return UploadResult{Plan: plan, TicketID: ticketID}, nil
}

func (s *Service) discardObject(ctx context.Context, bucket, key string) {
	if err := s.storage.DeleteObject(ctx, bucket, key); err != nil {
		s.log.Warn("failed to delete orphaned object", "bucket", bucket, "key", key, "error", err)
	}
}

func (s *Service) List(ctx context.Context, actor access.Actor, companyID uuid.UUID) ([]Plan, error) {
	if _, err := s.companies.Get(ctx, actor, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListPlans(ctx, companyID)
}

// Get loads a plan the actor may see. Gestores see every plan, including
// those of a deleted company.
func (s *Service) Get(ctx context.Context, actor access.Actor, planID uuid.UUID) (Plan, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return Plan{}, err
	}
	if actor.IsManager() {
		return plan, nil
	}
	if _, err := s.companies.Get(ctx, actor, plan.CompanyID); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (s *Service) FileURL(ctx context.Context, actor access.Actor, planID uuid.UUID) (*storage.PresignedURL, error) {
	plan, err := s.Get(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, apperr.Internal(msgStorageUnavailable)
	}
	return s.storage.GenerateDownloadURL(ctx, s.buckets.Plans, plan.FileKey)
}

// AddArea marks a critical area on a plan. Manager only.
func (s *Service) AddArea(ctx context.Context, actor access.Actor, planID uuid.UUID, req CreateAreaRequest) (Area, error) {
	if !actor.IsManager() {
		return Area{}, apperr.Forbidden(msgManagerOnly)
	}
	if _, err := s.Get(ctx, actor, planID); err != nil {
		return Area{}, err
	}
	return s.repo.CreateArea(ctx, Area{
		ID:          uuid.New(),
		PlanID:      planID,
		Name:        sanitize.Text(req.Name),
		AreaType:    sanitize.Text(req.AreaType),
		PosX:        *req.PosX,
		PosY:        *req.PosY,
		Description: sanitize.TextPtr(req.Description),
		Criticality: req.Criticality,
	})
}

func (s *Service) ListAreas(ctx context.Context, actor access.Actor, planID uuid.UUID) ([]Area, error) {
	if _, err := s.Get(ctx, actor, planID); err != nil {
		return nil, err
	}
	return s.repo.ListAreas(ctx, planID)
}

// AreaPhotoURL returns a download link for the client's evidence photo.
func (s *Service) AreaPhotoURL(ctx context.Context, actor access.Actor, areaID uuid.UUID) (*storage.PresignedURL, error) {
	area, err := s.repo.GetArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, actor, area.PlanID); err != nil {
		return nil, err
	}
	if area.ClientPhotoKey == nil {
		return nil, apperr.NotFound(msgClientPhotoNotFound)
	}
	if s.storage == nil {
		return nil, apperr.Internal(msgStorageUnavailable)
	}
	return s.storage.GenerateDownloadURL(ctx, s.buckets.Evidence, *area.ClientPhotoKey)
}

