package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The primary key makes the insert the only arbiter between racing sweeps,
// including sweeps running in other replicas.
const markSentQuery = `
	INSERT INTO alert_dispatches (dispatch_key, entity_id, reference_date)
	VALUES ($1, $2, $3)
	ON CONFLICT (dispatch_key) DO NOTHING`

// Dispatch is one recorded notification marker.
type Dispatch struct {
	Key           string    `json:"alert_key"`
	EntityID      string    `json:"entity_id"`
	ReferenceDate string    `json:"data"`
	CreatedAt     time.Time `json:"created_at"`
}

// DispatchKey is "{entity_id}_{YYYY-MM-DD}" for the UTC calendar day of ref.
func DispatchKey(entityID string, ref time.Time) string {
	return entityID + "_" + ref.UTC().Format(time.DateOnly)
}

type DedupRepository struct {
	pool *pgxpool.Pool
}

func NewDedupRepository(pool *pgxpool.Pool) *DedupRepository {
	return &DedupRepository{pool: pool}
}

// TryMarkSent records that entityID was notified on ref's calendar day.
// It returns false, without error, when a marker already exists.
func (r *DedupRepository) TryMarkSent(ctx context.Context, entityID string, ref time.Time) (bool, error) {
	day := ref.UTC().Format(time.DateOnly)
	tag, err := r.pool.Exec(ctx, markSentQuery, DispatchKey(entityID, ref), entityID, day)
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListHistory returns the most recent markers first.
func (r *DedupRepository) ListHistory(ctx context.Context, limit int) ([]Dispatch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT dispatch_key, entity_id, to_char(reference_date, 'YYYY-MM-DD'), created_at
		FROM alert_dispatches
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list alert history: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Dispatch, error) {
		var d Dispatch
		err := row.Scan(&d.Key, &d.EntityID, &d.ReferenceDate, &d.CreatedAt)
		return d, err
	})
}
