// Package companies manages tenant companies and answers ownership questions
// for the other modules.
package companies

import (
	"context"
	"strings"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/platform/apperr"
	"ecoguard_backend/platform/phone"
	"ecoguard_backend/platform/sanitize"

	"github.com/google/uuid"
)

type store interface {
	Create(ctx context.Context, c Company) (Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (Company, error)
	List(ctx context.Context, owner *uuid.UUID) ([]Company, error)
	Update(ctx context.Context, c Company) (Company, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Owner(ctx context.Context, companyID uuid.UUID) (Owner, error)
}

// UserRecorder persists the acting user so companies can reference an owner.
type UserRecorder interface {
	Upsert(ctx context.Context, id uuid.UUID, email, name string) error
}

type Service struct {
	repo  store
	users UserRecorder
}

func NewService(repo store, users UserRecorder) *Service {
	return &Service{repo: repo, users: users}
}

func (s *Service) Create(ctx context.Context, actor access.Actor, req CompanyRequest) (Company, error) {
	if err := s.users.Upsert(ctx, actor.UserID, actor.Email, actor.Name); err != nil {
		return Company{}, err
	}
	c := fromRequest(req)
	c.ID = uuid.New()
	c.OwnerUserID = actor.UserID
	return s.repo.Create(ctx, c)
}

func (s *Service) List(ctx context.Context, actor access.Actor) ([]Company, error) {
	if actor.IsManager() {
		return s.repo.List(ctx, nil)
	}
	return s.repo.List(ctx, &actor.UserID)
}

// Get returns the company if the actor may see it: managers see every
// company, clients only their own.
func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (Company, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Company{}, err
	}
	if !actor.IsManager() && c.OwnerUserID != actor.UserID {
		return Company{}, apperr.Forbidden("Acesso negado a esta empresa")
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req CompanyRequest) (Company, error) {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return Company{}, err
	}
	c := fromRequest(req)
	c.ID = existing.ID
	c.OwnerUserID = existing.OwnerUserID
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Owner(ctx context.Context, companyID uuid.UUID) (Owner, error) {
	return s.repo.Owner(ctx, companyID)
}

func fromRequest(req CompanyRequest) Company {
	c := Company{
		Name:              sanitize.Text(req.Name),
		TaxID:             strings.TrimSpace(req.TaxID),
		Sector:            sanitize.Text(req.Sector),
		EstablishmentType: req.EstablishmentType,
		Address:           sanitize.TextPtr(req.Address),
		City:              sanitize.TextPtr(req.City),
		State:             sanitize.TextPtr(req.State),
		ContactEmail:      sanitize.TextPtr(req.ContactEmail),
	}
	if req.Phone != nil {
		if normalized := phone.NormalizeE164(*req.Phone); normalized != "" {
			c.Phone = &normalized
		}
	}
	if c.ContactEmail != nil {
		lowered := strings.ToLower(*c.ContactEmail)
		c.ContactEmail = &lowered
	}
	return c
}
