// Package users keeps a local record of actors known from the identity
// exchange so that companies can be traced back to an owner's email.
package users

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

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is a user row enriched for the admin listing.
type Summary struct {
	User
	CompanyCount int `json:"empresas_count"`
	TicketCount  int `json:"tickets_count"`
}

const upsertUserQuery = `
	INSERT INTO users (id, email, name)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE
	SET email = EXCLUDED.email,
	    name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END,
	    updated_at = now()`

// Deleting a user removes everything reachable from the user's companies.
// Company deletion on its own does not cascade; this is the one path that does.
var deleteUserStatements = []string{
	`DELETE FROM tickets WHERE company_id IN (SELECT id FROM companies WHERE owner_user_id = $1)`,
	`DELETE FROM inspections WHERE company_id IN (SELECT id FROM companies WHERE owner_user_id = $1)`,
	`DELETE FROM licenses WHERE company_id IN (SELECT id FROM companies WHERE owner_user_id = $1)`,
	`DELETE FROM facility_plans WHERE company_id IN (SELECT id FROM companies WHERE owner_user_id = $1)`,
	`DELETE FROM companies WHERE owner_user_id = $1`,
	`DELETE FROM users WHERE id = $1`,
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert records the actor, keeping the stored name when the token has none.
func (r *Repository) Upsert(ctx context.Context, id uuid.UUID, email, name string) error {
	if _, err := r.pool.Exec(ctx, upsertUserQuery, id, email, name); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `SELECT id, email, name, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("Usuário não encontrado")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

const listUsersQuery = `
	SELECT u.id, u.email, u.name, u.created_at,
	       (SELECT count(*) FROM companies c WHERE c.owner_user_id = u.id),
	       (SELECT count(*) FROM tickets t WHERE t.created_by = u.id)
	FROM users u
	ORDER BY u.created_at DESC`

func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.ID, &s.Email, &s.Name, &s.CreatedAt, &s.CompanyCount, &s.TicketCount)
		return s, err
	})
}

// Delete removes the user and all of their companies' data in one transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var affected int64
	for _, stmt := range deleteUserStatements {
		tag, err := tx.Exec(ctx, stmt, id)
		if err != nil {
			return fmt.Errorf("delete user data: %w", err)
		}
		affected = tag.RowsAffected()
	}
	if affected == 0 {
		return apperr.NotFound("Usuário não encontrado")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}
