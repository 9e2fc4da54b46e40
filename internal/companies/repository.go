package companies

import (
	"context"
	"errors"
	"fmt"

	"ecoguard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const msgCompanyNotFound = "Empresa não encontrada"

const companyColumns = `id, owner_user_id, name, tax_id, sector, establishment_type,
	address, city, state, phone, contact_email, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.OwnerUserID, &c.Name, &c.TaxID, &c.Sector, &c.EstablishmentType,
		&c.Address, &c.City, &c.State, &c.Phone, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repository) Create(ctx context.Context, c Company) (Company, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO companies (id, owner_user_id, name, tax_id, sector, establishment_type,
			address, city, state, phone, contact_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+companyColumns,
		c.ID, c.OwnerUserID, c.Name, c.TaxID, c.Sector, c.EstablishmentType,
		c.Address, c.City, c.State, c.Phone, c.ContactEmail)
	created, err := scanCompany(row)
	if err != nil {
		return Company{}, fmt.Errorf("insert company: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound(msgCompanyNotFound)
		}
		return Company{}, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// List returns all companies, or only those owned by owner when it is set.
func (r *Repository) List(ctx context.Context, owner *uuid.UUID) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE ($1::uuid IS NULL OR owner_user_id = $1)
		ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Company, error) {
		return scanCompany(row)
	})
}

func (r *Repository) Update(ctx context.Context, c Company) (Company, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE companies
		SET name = $2, tax_id = $3, sector = $4, establishment_type = $5,
		    address = $6, city = $7, state = $8, phone = $9, contact_email = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+companyColumns,
		c.ID, c.Name, c.TaxID, c.Sector, c.EstablishmentType,
		c.Address, c.City, c.State, c.Phone, c.ContactEmail)
	updated, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound(msgCompanyNotFound)
		}
		return Company{}, fmt.Errorf("update company: %w", err)
	}
	return updated, nil
}

// Delete removes only the company row. Plans, inspections, licenses and
// tickets referencing it are left untouched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgCompanyNotFound)
	}
	return nil
}

// Owner resolves the company's owning user for notification purposes.
func (r *Repository) Owner(ctx context.Context, companyID uuid.UUID) (Owner, error) {
	var o Owner
	err := r.pool.QueryRow(ctx, `
		SELECT c.name, u.email, u.name
		FROM companies c
		JOIN users u ON u.id = c.owner_user_id
		WHERE c.id = $1`, companyID).Scan(&o.CompanyName, &o.Email, &o.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Owner{}, apperr.NotFound(msgCompanyNotFound)
		}
		return Owner{}, fmt.Errorf("get company owner: %w", err)
	}
	return o, nil
}
