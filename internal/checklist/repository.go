package checklist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemColumns = `id, code, area_type, category, question, photo_guidance, criticality,
	risk_points, legal_basis, display_order`

const seedItemQuery = `
	INSERT INTO checklist_items (` + itemColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (code) DO NOTHING`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Seed inserts catalog items that are not present yet and reports how many
// were added. Existing rows are never modified.
func (r *Repository) Seed(ctx context.Context, items []Item) (int, error) {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(seedItemQuery, it.ID, it.Code, it.AreaType, it.Category, it.Question,
			it.PhotoGuidance, it.Criticality, it.RiskPoints, it.LegalBasis, it.Order)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range items {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("seed checklist item: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// List returns the catalog, optionally filtered by area type.
func (r *Repository) List(ctx context.Context, areaType string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM checklist_items
		WHERE ($1 = '' OR area_type = $1)
		ORDER BY area_type, display_order`, areaType)
	if err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Item, error) {
		var it Item
		err := row.Scan(&it.ID, &it.Code, &it.AreaType, &it.Category, &it.Question, &it.PhotoGuidance,
			&it.Criticality, &it.RiskPoints, &it.LegalBasis, &it.Order)
		return it, err
	})
}
