package plants

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
	msgPlanNotFound = "Planta não encontrada"
	msgAreaNotFound = "Área não encontrada"
)

const planColumns = `id, company_id, name, file_key, content_type, status, created_at`

const areaColumns = `id, plan_id, name, area_type, pos_x, pos_y, description, criticality,
	client_photo_key, photo_taken_at, analysis_verdict, analysis_note, analyzed_at, created_at`

// The first marked area moves the plan out of aguardando_marcacao.
const markPlanMappedQuery = `
	UPDATE facility_plans SET status = 'mapeada'
	WHERE id = $1 AND status = 'aguardando_marcacao'`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.FileKey, &p.ContentType, &p.Status, &p.CreatedAt)
	return p, err
}

func scanArea(row pgx.Row) (Area, error) {
	var a Area
	err := row.Scan(&a.ID, &a.PlanID, &a.Name, &a.AreaType, &a.PosX, &a.PosY, &a.Description, &a.Criticality,
		&a.ClientPhotoKey, &a.PhotoTakenAt, &a.AnalysisVerdict, &a.AnalysisNote, &a.AnalyzedAt, &a.CreatedAt)
	a.HasClientPhoto = a.ClientPhotoKey != nil
	return a, err
}

func (r *Repository) CreatePlan(ctx context.Context, p Plan) (Plan, error) {
	created, err := scanPlan(r.pool.QueryRow(ctx, `
		INSERT INTO facility_plans (id, company_id, name, file_key, content_type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+planColumns,
		p.ID, p.CompanyID, p.Name, p.FileKey, p.ContentType, PlanStatusAwaitingMarking))
	if err != nil {
		return Plan{}, fmt.Errorf("insert plan: %w", err)
	}
	return created, nil
}

func (r *Repository) DeletePlan(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM facility_plans WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

func (r *Repository) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM facility_plans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, apperr.NotFound(msgPlanNotFound)
		}
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (r *Repository) ListPlans(ctx context.Context, companyID uuid.UUID) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+planColumns+` FROM facility_plans
		WHERE company_id = $1
		ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Plan, error) {
		return scanPlan(row)
	})
}

// CreateArea inserts the area and marks the plan as mapped in one transaction.
func (r *Repository) CreateArea(ctx context.Context, a Area) (Area, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Area{}, fmt.Errorf("begin create area: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanArea(tx.QueryRow(ctx, `
		INSERT INTO critical_areas (id, plan_id, name, area_type, pos_x, pos_y, description, criticality)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+areaColumns,
		a.ID, a.PlanID, a.Name, a.AreaType, a.PosX, a.PosY, a.Description, a.Criticality))
	if err != nil {
		return Area{}, fmt.Errorf("insert area: %w", err)
	}
	if _, err := tx.Exec(ctx, markPlanMappedQuery, a.PlanID); err != nil {
		return Area{}, fmt.Errorf("mark plan mapped: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Area{}, fmt.Errorf("commit create area: %w", err)
	}
	return created, nil
}

func (r *Repository) GetArea(ctx context.Context, id uuid.UUID) (Area, error) {
	a, err := scanArea(r.pool.QueryRow(ctx, `SELECT `+areaColumns+` FROM critical_areas WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Area{}, apperr.NotFound(msgAreaNotFound)
		}
		return Area{}, fmt.Errorf("get area: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAreas(ctx context.Context, planID uuid.UUID) ([]Area, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+areaColumns+` FROM critical_areas
		WHERE plan_id = $1
		ORDER BY created_at`, planID)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Area, error) {
		return scanArea(row)
	})
}

// SetClientPhoto attaches the client's evidence photo to an area of planID.
func (r *Repository) SetClientPhoto(ctx context.Context, planID, areaID uuid.UUID, fileKey string, takenAt *time.Time) (Area, error) {
	a, err := scanArea(r.pool.QueryRow(ctx, `
		UPDATE critical_areas SET client_photo_key = $3, photo_taken_at = $4
		WHERE id = $2 AND plan_id = $1
		RETURNING `+areaColumns, planID, areaID, fileKey, takenAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Area{}, apperr.NotFound(msgAreaNotFound)
		}
		return Area{}, fmt.Errorf("set area photo: %w", err)
	}
	return a, nil
}

// SetVerdict records the manager's analysis. A later verdict overwrites it.
func (r *Repository) SetVerdict(ctx context.Context, planID, areaID uuid.UUID, verdict string, note *string) (Area, error) {
	a, err := scanArea(r.pool.QueryRow(ctx, `
		UPDATE critical_areas SET analysis_verdict = $3, analysis_note = $4, analyzed_at = now()
		WHERE id = $2 AND plan_id = $1
		RETURNING `+areaColumns, planID, areaID, verdict, note))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Area{}, apperr.NotFound(msgAreaNotFound)
		}
		return Area{}, fmt.Errorf("set area verdict: %w", err)
	}
	return a, nil
}
