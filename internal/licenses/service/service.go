// Package service implements license and condition management. License
// status is always projected from the expiry date at read time.
package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/adapters/storage"
	"ecoguard_backend/internal/companies"
	"ecoguard_backend/internal/licenses/domain"
	"ecoguard_backend/internal/licenses/repository"
	"ecoguard_backend/internal/licenses/transport"
	"ecoguard_backend/platform/apperr"
	"ecoguard_backend/platform/sanitize"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
)

const (
	msgStorageUnavailable = "Armazenamento de arquivos indisponível"
	msgDocumentNotFound   = "Licença sem documento anexado"
	upcomingLimit         = 5
	defaultConditionState = "em_andamento"
)

type Store interface {
	CreateLicense(ctx context.Context, l repository.License) (repository.License, error)
	GetLicense(ctx context.Context, id uuid.UUID) (repository.License, error)
	ListLicenses(ctx context.Context, filter repository.LicenseFilter) ([]repository.License, error)
	UpdateLicense(ctx context.Context, l repository.License) (repository.License, error)
	SetDocument(ctx context.Context, id uuid.UUID, key string) error
	DeleteLicense(ctx context.Context, id uuid.UUID) error
	CreateCondition(ctx context.Context, c repository.Condition) (repository.Condition, error)
	GetCondition(ctx context.Context, id uuid.UUID) (repository.Condition, error)
	ListConditions(ctx context.Context, licenseID uuid.UUID) ([]repository.Condition, error)
	UpdateCondition(ctx context.Context, c repository.Condition) (repository.Condition, error)
	DeleteCondition(ctx context.Context, id uuid.UUID) error
}

// CompanyAccess checks that an actor may see a company.
type CompanyAccess interface {
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (companies.Company, error)
}

type Service struct {
	repo      Store
	companies CompanyAccess
	storage   storage.StorageService
	bucket    string
	clock     clock.Clock
}

func New(repo Store, companies CompanyAccess, storageSvc storage.StorageService, bucket string, clk clock.Clock) *Service {
	return &Service{repo: repo, companies: companies, storage: storageSvc, bucket: bucket, clock: clk}
}

func (s *Service) Create(ctx context.Context, actor access.Actor, req transport.LicenseRequest) (transport.LicenseResponse, error) {
	if _, err := s.companies.Get(ctx, actor, req.CompanyID); err != nil {
		return transport.LicenseResponse{}, err
	}
	l, err := licenseFromRequest(req)
	if err != nil {
		return transport.LicenseResponse{}, err
	}
	l.ID = uuid.New()
	l.CompanyID = req.CompanyID
	l.CreatedBy = actor.UserID
	l.InitialStatus = string(domain.Evaluate(l.ExpiresOn, s.clock.Now(), l.LeadTimeDays).Status)

	created, err := s.repo.CreateLicense(ctx, l)
	if err != nil {
		return transport.LicenseResponse{}, err
	}
	return s.toResponse(created), nil
}

// authorize loads a license and checks access to its company. Gestores
// reach every license, including those of a deleted company.
func (s *Service) authorize(ctx context.Context, actor access.Actor, id uuid.UUID) (repository.License, error) {
	l, err := s.repo.GetLicense(ctx, id)
	if err != nil {
		return repository.License{}, err
	}
	if actor.IsManager() {
		return l, nil
	}
	if _, err := s.companies.Get(ctx, actor, l.CompanyID); err != nil {
		return repository.License{}, err
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.LicenseResponse, error) {
	l, err := s.authorize(ctx, actor, id)
	if err != nil {
		return transport.LicenseResponse{}, err
	}
	return s.toResponse(l), nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, companyID *uuid.UUID) ([]transport.LicenseResponse, error) {
	licenses, err := s.list(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}
	result := make([]transport.LicenseResponse, 0, len(licenses))
	for _, l := range licenses {
		result = append(result, s.toResponse(l))
	}
	return result, nil
}

func (s *Service) list(ctx context.Context, actor access.Actor, companyID *uuid.UUID) ([]repository.License, error) {
	filter := repository.LicenseFilter{CompanyID: companyID}
	if companyID != nil {
		if _, err := s.companies.Get(ctx, actor, *companyID); err != nil {
			return nil, err
		}
	} else if !actor.IsManager() {
		filter.OwnerUserID = &actor.UserID
	}
	return s.repo.ListLicenses(ctx, filter)
}

func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.LicenseRequest) (transport.LicenseResponse, error) {
	existing, err := s.authorize(ctx, actor, id)
	if err != nil {
		return transport.LicenseResponse{}, err
	}
	l, err := licenseFromRequest(req)
	if err != nil {
		return transport.LicenseResponse{}, err
	}
	l.ID = existing.ID
	updated, err := s.repo.UpdateLicense(ctx, l)
	if err != nil {
		return transport.LicenseResponse{}, err
	}
	return s.toResponse(updated), nil
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	l, err := s.authorize(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteLicense(ctx, id); err != nil {
		return err
	}
	if l.DocumentKey != nil && s.storage != nil {
		_ = s.storage.DeleteObject(ctx, s.bucket, *l.DocumentKey)
	}
	return nil
}

// UploadDocument attaches the license document (PDF or image).
func (s *Service) UploadDocument(ctx context.Context, actor access.Actor, id uuid.UUID, fileName, contentType string, size int64, reader io.Reader) (transport.LicenseResponse, error) {
	l, err := s.authorize(ctx, actor, id)
	if err != nil {
		return transport.LicenseResponse{}, err
	}
	if s.storage == nil {
		return transport.LicenseResponse{}, apperr.Internal(msgStorageUnavailable)
	}
	if err := s.storage.ValidateContentType(contentType); err != nil {
		return transport.LicenseResponse{}, apperr.Validation("Arquivo inválido").WithDetails(err.Error())
	}
	if err := s.storage.ValidateFileSize(size); err != nil {
		return transport.LicenseResponse{}, apperr.Validation("Arquivo inválido").WithDetails(err.Error())
	}

	key, err := s.storage.UploadFile(ctx, s.bucket, l.CompanyID.String(), fileName, contentType, reader, size)
	if err != nil {
		return transport.LicenseResponse{}, apperr.Wrap(apperr.KindInternal, "Falha ao enviar arquivo", err)
	}
	if err := s.repo.SetDocument(ctx, id, key); err != nil {
		return transport.LicenseResponse{}, err
	}
	if l.DocumentKey != nil {
		_ = s.storage.DeleteObject(ctx, s.bucket, *l.DocumentKey)
	}
	l.DocumentKey = &key
	return s.toResponse(l), nil
}

func (s *Service) DocumentURL(ctx context.Context, actor access.Actor, id uuid.UUID) (*storage.PresignedURL, error) {
	l, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if l.DocumentKey == nil {
		return nil, apperr.NotFound(msgDocumentNotFound)
	}
	if s.storage == nil {
		return nil, apperr.Internal(msgStorageUnavailable)
	}
	return s.storage.GenerateDownloadURL(ctx, s.bucket, *l.DocumentKey)
}

// Indicators summarizes license statuses for the dashboard.
func (s *Service) Indicators(ctx context.Context, actor access.Actor, companyID *uuid.UUID) (transport.Indicators, error) {
	licenses, err := s.list(ctx, actor, companyID)
	if err != nil {
		return transport.Indicators{}, err
	}
	return summarize(licenses, s.clock.Now()), nil
}

func summarize(licenses []repository.License, now time.Time) transport.Indicators {
	out := transport.Indicators{ByType: map[string]int{}, Upcoming: []transport.UpcomingExpiry{}}
	for _, l := range licenses {
		exp := domain.Evaluate(l.ExpiresOn, now, l.LeadTimeDays)
		out.Total++
		out.ByType[l.Type]++
		switch exp.Status {
		case domain.StatusValid:
			out.Valid++
		case domain.StatusDueSoon:
			out.DueSoon++
			out.Upcoming = append(out.Upcoming, transport.UpcomingExpiry{
				ID:        l.ID,
				Name:      l.Name,
				Number:    l.Number,
				ExpiresOn: formatDate(l.ExpiresOn),
				DaysLeft:  exp.DaysRemaining,
			})
		case domain.StatusExpired:
			out.Expired++
		}
	}
	sort.SliceStable(out.Upcoming, func(i, j int) bool {
		return out.Upcoming[i].DaysLeft < out.Upcoming[j].DaysLeft
	})
	if len(out.Upcoming) > upcomingLimit {
		out.Upcoming = out.Upcoming[:upcomingLimit]
	}
	return out
}

func (s *Service) ListConditions(ctx context.Context, actor access.Actor, licenseID uuid.UUID) ([]transport.ConditionResponse, error) {
	if _, err := s.authorize(ctx, actor, licenseID); err != nil {
		return nil, err
	}
	conditions, err := s.repo.ListConditions(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	result := make([]transport.ConditionResponse, 0, len(conditions))
	for _, c := range conditions {
		result = append(result, conditionResponse(c))
	}
	return result, nil
}

func (s *Service) CreateCondition(ctx context.Context, actor access.Actor, licenseID uuid.UUID, req transport.ConditionRequest) (transport.ConditionResponse, error) {
	if _, err := s.authorize(ctx, actor, licenseID); err != nil {
		return transport.ConditionResponse{}, err
	}
	c, err := conditionFromRequest(req)
	if err != nil {
		return transport.ConditionResponse{}, err
	}
	c.ID = uuid.New()
	c.LicenseID = licenseID
	created, err := s.repo.CreateCondition(ctx, c)
	if err != nil {
		return transport.ConditionResponse{}, err
	}
	return conditionResponse(created), nil
}

func (s *Service) UpdateCondition(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.ConditionRequest) (transport.ConditionResponse, error) {
	existing, err := s.repo.GetCondition(ctx, id)
	if err != nil {
		return transport.ConditionResponse{}, err
	}
	if _, err := s.authorize(ctx, actor, existing.LicenseID); err != nil {
		return transport.ConditionResponse{}, err
	}
	c, err := conditionFromRequest(req)
	if err != nil {
		return transport.ConditionResponse{}, err
	}
	c.ID = existing.ID
	c.LicenseID = existing.LicenseID
	updated, err := s.repo.UpdateCondition(ctx, c)
	if err != nil {
		return transport.ConditionResponse{}, err
	}
	return conditionResponse(updated), nil
}

func (s *Service) DeleteCondition(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	existing, err := s.repo.GetCondition(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, actor, existing.LicenseID); err != nil {
		return err
	}
	return s.repo.DeleteCondition(ctx, id)
}

func (s *Service) toResponse(l repository.License) transport.LicenseResponse {
	exp := domain.Evaluate(l.ExpiresOn, s.clock.Now(), l.LeadTimeDays)
	return transport.LicenseResponse{
		ID:           l.ID,
		CompanyID:    l.CompanyID,
		Name:         l.Name,
		Number:       l.Number,
		Type:         l.Type,
		Authority:    l.Authority,
		IssuedOn:     formatDate(l.IssuedOn),
		ExpiresOn:    formatDate(l.ExpiresOn),
		LeadTimeDays: l.LeadTimeDays,
		HasDocument:  l.DocumentKey != nil,
		Notes:        l.Notes,
		Status:       exp.Status,
		DaysLeft:     exp.DaysRemaining,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func licenseFromRequest(req transport.LicenseRequest) (repository.License, error) {
	issued, err := domain.ParseDate(req.IssuedOn)
	if err != nil {
		return repository.License{}, apperr.Validation("data_emissao inválida")
	}
	expires, err := domain.ParseDate(req.ExpiresOn)
	if err != nil {
		return repository.License{}, apperr.Validation("data_validade inválida")
	}
	if expires.Before(issued) {
		return repository.License{}, apperr.Validation("data_validade anterior à data_emissao")
	}
	return repository.License{
		Name:         sanitize.Text(req.Name),
		Number:       strings.TrimSpace(req.Number),
		Type:         sanitize.Text(req.Type),
		Authority:    sanitize.Text(req.Authority),
		IssuedOn:     issued,
		ExpiresOn:    expires,
		LeadTimeDays: domain.LeadTimeOrDefault(req.LeadTimeDays),
		Notes:        sanitize.TextPtr(req.Notes),
	}, nil
}

func conditionFromRequest(req transport.ConditionRequest) (repository.Condition, error) {
	followUp, err := domain.ParseDate(req.FollowUpOn)
	if err != nil {
		return repository.Condition{}, apperr.Validation("data_acompanhamento inválida")
	}
	alertOn, err := parseOptionalDate(req.AlertOn)
	if err != nil {
		return repository.Condition{}, apperr.Validation("alerta_acompanhamento inválido")
	}
	rescheduled, err := parseOptionalDate(req.RescheduledOn)
	if err != nil {
		return repository.Condition{}, apperr.Validation("nova_data_acompanhamento inválida")
	}
	status := req.Status
	if status == "" {
		status = defaultConditionState
	}
	return repository.Condition{
		Name:              sanitize.Text(req.Name),
		FollowUpOn:        followUp,
		AlertOn:           alertOn,
		ResponsibleName:   sanitize.Text(req.ResponsibleName),
		ResponsibleEmail:  strings.ToLower(strings.TrimSpace(req.ResponsibleEmail)),
		Description:       sanitize.Text(req.Description),
		Status:            status,
		CompletionPercent: req.CompletionPercent,
		Notes:             sanitize.TextPtr(req.Notes),
		RescheduledOn:     rescheduled,
	}, nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func conditionResponse(c repository.Condition) transport.ConditionResponse {
	return transport.ConditionResponse{
		ID:                c.ID,
		LicenseID:         c.LicenseID,
		Name:              c.Name,
		FollowUpOn:        formatDate(c.FollowUpOn),
		AlertOn:           formatDatePtr(c.AlertOn),
		ResponsibleName:   c.ResponsibleName,
		ResponsibleEmail:  c.ResponsibleEmail,
		Description:       c.Description,
		Status:            c.Status,
		CompletionPercent: c.CompletionPercent,
		Notes:             c.Notes,
		RescheduledOn:     formatDatePtr(c.RescheduledOn),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}
