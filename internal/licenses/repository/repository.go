// Package repository persists licenses and their conditions.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecoguard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	msgLicenseNotFound   = "Licença não encontrada"
	msgConditionNotFound = "Condicionante não encontrada"
)

type License struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Name         string
	Number       string
	Type         string
	Authority    string
	IssuedOn     time.Time
	ExpiresOn    time.Time
	LeadTimeDays int
	DocumentKey  *string
	Notes        *string
	// InitialStatus is the status computed when the row was written. Reads
	// derive the current status from ExpiresOn instead.
	InitialStatus string
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Condition struct {
	ID                uuid.UUID
	LicenseID         uuid.UUID
	Name              string
	FollowUpOn        time.Time
	AlertOn           *time.Time
	ResponsibleName   string
	ResponsibleEmail  string
	Description       string
	Status            string
	CompletionPercent int
	Notes             *string
	RescheduledOn     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ConditionWithLicense is a condition joined with the license it belongs to.
type ConditionWithLicense struct {
	Condition
	LicenseName   string
	LicenseNumber string
	CompanyID     uuid.UUID
}

// LicenseFilter narrows a listing. Nil fields do not filter.
type LicenseFilter struct {
	CompanyID   *uuid.UUID
	OwnerUserID *uuid.UUID
}

const licenseColumns = `l.id, l.company_id, l.name, l.license_number, l.license_type, l.issuing_authority,
	l.issued_on, l.expires_on, l.lead_time_days, l.document_key, l.notes, l.status, l.created_by,
	l.created_at, l.updated_at`

const conditionColumns = `c.id, c.license_id, c.name, c.follow_up_on, c.alert_on, c.responsible_name,
	c.responsible_email, c.description, c.status, c.completion_percent, c.notes, c.rescheduled_on,
	c.created_at, c.updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLicense(row pgx.Row) (License, error) {
	var l License
	err := row.Scan(&l.ID, &l.CompanyID, &l.Name, &l.Number, &l.Type, &l.Authority,
		&l.IssuedOn, &l.ExpiresOn, &l.LeadTimeDays, &l.DocumentKey, &l.Notes, &l.InitialStatus, &l.CreatedBy,
		&l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func conditionDest(c *Condition) []any {
	return []any{&c.ID, &c.LicenseID, &c.Name, &c.FollowUpOn, &c.AlertOn, &c.ResponsibleName,
		&c.ResponsibleEmail, &c.Description, &c.Status, &c.CompletionPercent, &c.Notes, &c.RescheduledOn,
		&c.CreatedAt, &c.UpdatedAt}
}

func (r *Repository) CreateLicense(ctx context.Context, l License) (License, error) {
	created, err := scanLicense(r.pool.QueryRow(ctx, `
		INSERT INTO licenses AS l (id, company_id, name, license_number, license_type, issuing_authority,
			issued_on, expires_on, lead_time_days, notes, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+licenseColumns,
		l.ID, l.CompanyID, l.Name, l.Number, l.Type, l.Authority,
		l.IssuedOn, l.ExpiresOn, l.LeadTimeDays, l.Notes, l.InitialStatus, l.CreatedBy))
	if err != nil {
		return License{}, fmt.Errorf("insert license: %w", err)
	}
	return created, nil
}

func (r *Repository) GetLicense(ctx context.Context, id uuid.UUID) (License, error) {
	l, err := scanLicense(r.pool.QueryRow(ctx, `SELECT `+licenseColumns+` FROM licenses l WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return License{}, apperr.NotFound(msgLicenseNotFound)
		}
		return License{}, fmt.Errorf("get license: %w", err)
	}
	return l, nil
}

// ListLicenses returns licenses ordered by expiry. The owner filter joins
// companies so clients only see licenses of companies they own.
func (r *Repository) ListLicenses(ctx context.Context, filter LicenseFilter) ([]License, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+licenseColumns+`
		FROM licenses l
		LEFT JOIN companies co ON co.id = l.company_id
		WHERE ($1::uuid IS NULL OR l.company_id = $1)
		  AND ($2::uuid IS NULL OR co.owner_user_id = $2)
		ORDER BY l.expires_on`, filter.CompanyID, filter.OwnerUserID)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (License, error) {
		return scanLicense(row)
	})
}

func (r *Repository) UpdateLicense(ctx context.Context, l License) (License, error) {
	updated, err := scanLicense(r.pool.QueryRow(ctx, `
		UPDATE licenses AS l
		SET name = $2, license_number = $3, license_type = $4, issuing_authority = $5,
		    issued_on = $6, expires_on = $7, lead_time_days = $8, notes = $9, updated_at = now()
		WHERE l.id = $1
		RETURNING `+licenseColumns,
		l.ID, l.Name, l.Number, l.Type, l.Authority, l.IssuedOn, l.ExpiresOn, l.LeadTimeDays, l.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return License{}, apperr.NotFound(msgLicenseNotFound)
		}
		return License{}, fmt.Errorf("update license: %w", err)
	}
	return updated, nil
}

func (r *Repository) SetDocument(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE licenses SET document_key = $2, updated_at = now() WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("set license document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgLicenseNotFound)
	}
	return nil
}

// DeleteLicense removes the license; its conditions go with it.
func (r *Repository) DeleteLicense(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgLicenseNotFound)
	}
	return nil
}

func (r *Repository) CreateCondition(ctx context.Context, c Condition) (Condition, error) {
	var created Condition
	err := r.pool.QueryRow(ctx, `
		INSERT INTO license_conditions AS c (id, license_id, name, follow_up_on, alert_on, responsible_name,
			responsible_email, description, status, completion_percent, notes, rescheduled_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+conditionColumns,
		c.ID, c.LicenseID, c.Name, c.FollowUpOn, c.AlertOn, c.ResponsibleName,
		c.ResponsibleEmail, c.Description, c.Status, c.CompletionPercent, c.Notes, c.RescheduledOn,
	).Scan(conditionDest(&created)...)
	if err != nil {
		return Condition{}, fmt.Errorf("insert condition: %w", err)
	}
	return created, nil
}

func (r *Repository) GetCondition(ctx context.Context, id uuid.UUID) (Condition, error) {
	var c Condition
	err := r.pool.QueryRow(ctx, `SELECT `+conditionColumns+` FROM license_conditions c WHERE c.id = $1`, id).
		Scan(conditionDest(&c)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Condition{}, apperr.NotFound(msgConditionNotFound)
		}
		return Condition{}, fmt.Errorf("get condition: %w", err)
	}
	return c, nil
}

func (r *Repository) ListConditions(ctx context.Context, licenseID uuid.UUID) ([]Condition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+conditionColumns+` FROM license_conditions c
		WHERE c.license_id = $1
		ORDER BY c.follow_up_on`, licenseID)
	if err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Condition, error) {
		var c Condition
		err := row.Scan(conditionDest(&c)...)
		return c, err
	})
}

func (r *Repository) UpdateCondition(ctx context.Context, c Condition) (Condition, error) {
	var updated Condition
	err := r.pool.QueryRow(ctx, `
		UPDATE license_conditions AS c
		SET name = $2, follow_up_on = $3, alert_on = $4, responsible_name = $5, responsible_email = $6,
		    description = $7, status = $8, completion_percent = $9, notes = $10, rescheduled_on = $11,
		    updated_at = now()
		WHERE c.id = $1
		RETURNING `+conditionColumns,
		c.ID, c.Name, c.FollowUpOn, c.AlertOn, c.ResponsibleName, c.ResponsibleEmail,
		c.Description, c.Status, c.CompletionPercent, c.Notes, c.RescheduledOn,
	).Scan(conditionDest(&updated)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Condition{}, apperr.NotFound(msgConditionNotFound)
		}
		return Condition{}, fmt.Errorf("update condition: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteCondition(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM license_conditions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete condition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgConditionNotFound)
	}
	return nil
}

// ListAllLicenses returns every license, for the expiry alert sweep.
func (r *Repository) ListAllLicenses(ctx context.Context) ([]License, error) {
	return r.ListLicenses(ctx, LicenseFilter{})
}

// listAllConditionsQuery covers every condition whatever its status.
const listAllConditionsQuery = `
	SELECT ` + conditionColumns + `, l.name, l.license_number, l.company_id
	FROM license_conditions c
	JOIN licenses l ON l.id = c.license_id
	ORDER BY c.follow_up_on`

// ListAllConditions returns every condition joined with its license, for
// the follow-up alert sweep.
func (r *Repository) ListAllConditions(ctx context.Context) ([]ConditionWithLicense, error) {
	rows, err := r.pool.Query(ctx, listAllConditionsQuery)
	if err != nil {
		return nil, fmt.Errorf("list all conditions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ConditionWithLicense, error) {
		var c ConditionWithLicense
		dest := append(conditionDest(&c.Condition), &c.LicenseName, &c.LicenseNumber, &c.CompanyID)
		err := row.Scan(dest...)
		return c, err
	})
}
