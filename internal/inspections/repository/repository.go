// Package repository persists inspections, their items and the alerts
// generated at completion.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecoguard_backend/internal/inspections/domain"
	"ecoguard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	msgInspectionNotFound = "Inspeção não encontrada"
	msgItemNotFound       = "Item não encontrado"
	msgAlreadyCompleted   = "Inspeção já concluída"
)

type Inspection struct {
	ID                 uuid.UUID  `json:"id"`
	CompanyID          uuid.UUID  `json:"empresa_id"`
	PlanID             uuid.UUID  `json:"planta_id"`
	CreatedBy          uuid.UUID  `json:"created_by"`
	InspectedAt        time.Time  `json:"data_inspecao"`
	Status             string     `json:"status"`
	Score              *float64   `json:"score"`
	RiskTier           *string    `json:"nivel_risco"`
	TotalItems         int        `json:"total_itens"`
	ConformantItems    int        `json:"itens_conformes"`
	NonConformantItems int        `json:"itens_nao_conformes"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type Item struct {
	ID              uuid.UUID  `json:"id"`
	InspectionID    uuid.UUID  `json:"inspecao_id"`
	AreaID          uuid.UUID  `json:"area_id"`
	ChecklistItemID uuid.UUID  `json:"checklist_item_id"`
	Category        string     `json:"categoria"`
	Question        string     `json:"pergunta"`
	Criticality     string     `json:"criticidade"`
	RiskPoints      int        `json:"pontos_risco"`
	Answer          *string    `json:"resposta"`
	PhotoKey        *string    `json:"-"`
	HasPhoto        bool       `json:"tem_foto"`
	Note            *string    `json:"observacao,omitempty"`
	RiskDetected    bool       `json:"risco_detectado"`
	AnsweredAt      *time.Time `json:"respondido_em,omitempty"`
	Order           int        `json:"ordem"`
}

// ItemDetail is an item enriched with its critical area and checklist entry.
type ItemDetail struct {
	Item
	AreaName      string `json:"area_nome"`
	AreaType      string `json:"tipo_area"`
	PhotoGuidance string `json:"orientacao_foto"`
	LegalBasis    string `json:"fundamentacao_legal"`
}

type Alert struct {
	ID               uuid.UUID `json:"id"`
	InspectionID     uuid.UUID `json:"inspecao_id"`
	InspectionItemID uuid.UUID `json:"inspecao_item_id"`
	AreaID           uuid.UUID `json:"area_id"`
	Category         string    `json:"categoria"`
	Description      string    `json:"descricao"`
	Severity         string    `json:"severidade"`
	EstimatedFine    int64     `json:"multa_estimada"`
	Status           string    `json:"status"`
	DeadlineDays     int       `json:"prazo_dias"`
	CreatedAt        time.Time `json:"created_at"`
}

const inspectionColumns = `id, company_id, plan_id, created_by, inspected_at, status, score, risk_tier,
	total_items, conformant_items, nonconformant_items, completed_at`

const itemColumns = `i.id, i.inspection_id, i.area_id, i.checklist_item_id, i.category, i.question,
	i.criticality, i.risk_points, i.answer, i.photo_key, i.note, i.risk_detected, i.answered_at, i.display_order`

const alertColumns = `id, inspection_id, inspection_item_id, area_id, category, description, severity,
	estimated_fine, status, deadline_days, created_at`

// One item per (critical area x checklist entry of the same area type). The
// checklist fields are copied so scoring is frozen against catalog edits.
const instantiateItemsQuery = `
	INSERT INTO inspection_items (id, inspection_id, area_id, checklist_item_id, category, question,
		criticality, risk_points, display_order)
	SELECT gen_random_uuid(), $1, a.id, c.id, c.category, c.question, c.criticality, c.risk_points,
	       ROW_NUMBER() OVER (ORDER BY a.created_at, a.id, c.display_order, c.code)
	FROM critical_areas a
	JOIN checklist_items c ON c.area_type = a.area_type
	WHERE a.plan_id = $2`

// Answers are only accepted while the inspection is in progress; the guard
// lives in the statement so a concurrent completion cannot be bypassed.
const answerItemQuery = `
	UPDATE inspection_items i
	SET answer = $3, note = $4, photo_key = COALESCE($5, i.photo_key), risk_detected = $6, answered_at = now()
	FROM inspections s
	WHERE i.id = $2 AND i.inspection_id = $1 AND s.id = i.inspection_id AND s.status = 'em_andamento'
	RETURNING ` + itemColumns

const lockInspectionQuery = `SELECT ` + inspectionColumns + ` FROM inspections WHERE id = $1 FOR UPDATE`

const insertAlertQuery = `
	INSERT INTO inspection_alerts (id, inspection_id, inspection_item_id, area_id, category, description,
		severity, estimated_fine, deadline_days)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (inspection_id, inspection_item_id) DO NOTHING`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInspection(row pgx.Row) (Inspection, error) {
	var s Inspection
	err := row.Scan(&s.ID, &s.CompanyID, &s.PlanID, &s.CreatedBy, &s.InspectedAt, &s.Status, &s.Score, &s.RiskTier,
		&s.TotalItems, &s.ConformantItems, &s.NonConformantItems, &s.CompletedAt)
	return s, err
}

func itemDest(it *Item) []any {
	return []any{&it.ID, &it.InspectionID, &it.AreaID, &it.ChecklistItemID, &it.Category, &it.Question,
		&it.Criticality, &it.RiskPoints, &it.Answer, &it.PhotoKey, &it.Note, &it.RiskDetected, &it.AnsweredAt, &it.Order}
}

func (r *Repository) CountAreas(ctx context.Context, planID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM critical_areas WHERE plan_id = $1`, planID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count areas: %w", err)
	}
	return n, nil
}

// Create inserts the inspection and instantiates its items atomically.
func (r *Repository) Create(ctx context.Context, s Inspection) (Inspection, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Inspection{}, fmt.Errorf("begin create inspection: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO inspections (id, company_id, plan_id, created_by, status)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.CompanyID, s.PlanID, s.CreatedBy, domain.StatusInProgress); err != nil {
		return Inspection{}, fmt.Errorf("insert inspection: %w", err)
	}

	tag, err := tx.Exec(ctx, instantiateItemsQuery, s.ID, s.PlanID)
	if err != nil {
		return Inspection{}, fmt.Errorf("instantiate inspection items: %w", err)
	}

	created, err := scanInspection(tx.QueryRow(ctx, `
		UPDATE inspections SET total_items = $2 WHERE id = $1
		RETURNING `+inspectionColumns, s.ID, tag.RowsAffected()))
	if err != nil {
		return Inspection{}, fmt.Errorf("set inspection total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Inspection{}, fmt.Errorf("commit create inspection: %w", err)
	}
	return created, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Inspection, error) {
	s, err := scanInspection(r.pool.QueryRow(ctx, `SELECT `+inspectionColumns+` FROM inspections WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Inspection{}, apperr.NotFound(msgInspectionNotFound)
		}
		return Inspection{}, fmt.Errorf("get inspection: %w", err)
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context, companyID uuid.UUID) ([]Inspection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+inspectionColumns+` FROM inspections
		WHERE company_id = $1
		ORDER BY inspected_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Inspection, error) {
		return scanInspection(row)
	})
}

func (r *Repository) ListItems(ctx context.Context, inspectionID uuid.UUID) ([]ItemDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`, a.name, a.area_type, c.photo_guidance, c.legal_basis
		FROM inspection_items i
		JOIN critical_areas a ON a.id = i.area_id
		JOIN checklist_items c ON c.id = i.checklist_item_id
		WHERE i.inspection_id = $1
		ORDER BY i.display_order`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("list inspection items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ItemDetail, error) {
		var d ItemDetail
		dest := append(itemDest(&d.Item), &d.AreaName, &d.AreaType, &d.PhotoGuidance, &d.LegalBasis)
		err := row.Scan(dest...)
		d.HasPhoto = d.PhotoKey != nil
		return d, err
	})
}

func (r *Repository) GetItem(ctx context.Context, inspectionID, itemID uuid.UUID) (Item, error) {
	var it Item
	err := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inspection_items i WHERE i.id = $2 AND i.inspection_id = $1`,
		inspectionID, itemID).Scan(itemDest(&it)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, apperr.NotFound(msgItemNotFound)
		}
		return Item{}, fmt.Errorf("get inspection item: %w", err)
	}
	it.HasPhoto = it.PhotoKey != nil
	return it, nil
}

// AnswerItem records an answer. A re-submission overwrites the previous one;
// a nil photoKey keeps the stored photo.
func (r *Repository) AnswerItem(ctx context.Context, inspectionID, itemID uuid.UUID, answer domain.Answer, note, photoKey *string) (Item, error) {
	var it Item
	err := r.pool.QueryRow(ctx, answerItemQuery, inspectionID, itemID, string(answer), note, photoKey,
		answer == domain.AnswerNonConformant).Scan(itemDest(&it)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, apperr.BadRequest("Item não encontrado ou inspeção já concluída")
		}
		return Item{}, fmt.Errorf("answer inspection item: %w", err)
	}
	it.HasPhoto = it.PhotoKey != nil
	return it, nil
}

// Complete scores the inspection and records its alerts in one transaction.
// The inspection row is locked first, so a second completion observes the
// concluded status and is rejected with a conflict.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, score func([]domain.ScoredItem) domain.Result) (Inspection, []Alert, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Inspection{}, nil, fmt.Errorf("begin complete inspection: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanInspection(tx.QueryRow(ctx, lockInspectionQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Inspection{}, nil, apperr.NotFound(msgInspectionNotFound)
		}
		return Inspection{}, nil, fmt.Errorf("lock inspection: %w", err)
	}
	if current.Status == domain.StatusCompleted {
		return Inspection{}, nil, apperr.Conflict(msgAlreadyCompleted)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, area_id, category, question, criticality, risk_points, COALESCE(answer, '')
		FROM inspection_items WHERE inspection_id = $1
		ORDER BY display_order`, id)
	if err != nil {
		return Inspection{}, nil, fmt.Errorf("load items for scoring: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ScoredItem, error) {
		var it domain.ScoredItem
		var answer string
		err := row.Scan(&it.ItemID, &it.AreaID, &it.Category, &it.Question, &it.Criticality, &it.RiskPoints, &answer)
		it.Answer = domain.Answer(answer)
		return it, err
	})
	if err != nil {
		return Inspection{}, nil, fmt.Errorf("scan items for scoring: %w", err)
	}

	result := score(items)

	completed, err := scanInspection(tx.QueryRow(ctx, `
		UPDATE inspections
		SET status = $2, score = $3, risk_tier = $4, total_items = $5, conformant_items = $6,
		    nonconformant_items = $7, completed_at = now()
		WHERE id = $1
		RETURNING `+inspectionColumns,
		id, domain.StatusCompleted, result.Score, string(result.Tier), result.Total, result.Conformant, result.NonConformant))
	if err != nil {
		return Inspection{}, nil, fmt.Errorf("store inspection result: %w", err)
	}

	if len(result.Alerts) > 0 {
		batch := &pgx.Batch{}
		for _, a := range result.Alerts {
			batch.Queue(insertAlertQuery, uuid.New(), id, a.ItemID, a.AreaID, a.Category, a.Description,
				a.Severity, a.EstimatedFine, a.DeadlineDays)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return Inspection{}, nil, fmt.Errorf("insert inspection alerts: %w", err)
		}
	}

	alerts, err := listAlerts(ctx, tx, id)
	if err != nil {
		return Inspection{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Inspection{}, nil, fmt.Errorf("commit complete inspection: %w", err)
	}
	return completed, alerts, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listAlerts(ctx context.Context, q querier, inspectionID uuid.UUID) ([]Alert, error) {
	rows, err := q.Query(ctx, `
		SELECT `+alertColumns+` FROM inspection_alerts
		WHERE inspection_id = $1
		ORDER BY estimated_fine DESC, created_at`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("list inspection alerts: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Alert, error) {
		var a Alert
		err := row.Scan(&a.ID, &a.InspectionID, &a.InspectionItemID, &a.AreaID, &a.Category, &a.Description,
			&a.Severity, &a.EstimatedFine, &a.Status, &a.DeadlineDays, &a.CreatedAt)
		return a, err
	})
}

func (r *Repository) ListAlerts(ctx context.Context, inspectionID uuid.UUID) ([]Alert, error) {
	return listAlerts(ctx, r.pool, inspectionID)
}
