// Package repository persists tickets and their message log.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecoguard_backend/internal/tickets/domain"
	"ecoguard_backend/platform/apperr"
	"ecoguard_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	msgTicketNotFound   = "Ticket não encontrado"
	msgOpenTicketExists = "Já existe um ticket em andamento para esta empresa"
	msgStageChanged     = "O ticket foi alterado por outra requisição"
)

// openTicketIndex is the partial unique index allowing one unfinished
// ticket per company.
const openTicketIndex = "uq_tickets_open_per_company"

type Ticket struct {
	ID              uuid.UUID    `json:"id"`
	CompanyID       uuid.UUID    `json:"empresa_id"`
	PlanID          uuid.UUID    `json:"planta_id"`
	CreatedBy       uuid.UUID    `json:"user_id"`
	CreatedByEmail  string       `json:"user_email"`
	Status          string       `json:"status"`
	Stage           domain.Stage `json:"etapa"`
	DeletedByClient bool         `json:"deletado_cliente"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	ClosedAt        *time.Time   `json:"closed_at,omitempty"`
}

type Message struct {
	ID          uuid.UUID          `json:"id"`
	TicketID    uuid.UUID          `json:"ticket_id"`
	AuthorID    uuid.UUID          `json:"user_id"`
	AuthorEmail string             `json:"user_email"`
	AuthorRole  string             `json:"user_role"`
	Body        string             `json:"mensagem"`
	Kind        domain.MessageKind `json:"tipo"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ListFilter narrows a listing. A nil CreatedBy lists every ticket.
type ListFilter struct {
	CreatedBy      *uuid.UUID
	IncludeDeleted bool
}

// StageUpdate moves a ticket from one stage to another. The update only
// applies while the ticket is still at From.
type StageUpdate struct {
	From    domain.Stage
	To      domain.Stage
	Status  string
	Message *Message
}

const ticketColumns = `id, company_id, plan_id, created_by, created_by_email, status, stage,
	deleted_by_client, created_at, updated_at, closed_at`

const messageColumns = `id, ticket_id, author_id, author_email, author_role, body, kind, created_at`

const hasOpenTicketQuery = `
	SELECT EXISTS (SELECT 1 FROM tickets WHERE company_id = $1 AND stage <> 'finalizado')`

// closed_at is set on entering finalizado and never cleared.
const updateStageQuery = `
	UPDATE tickets
	SET stage = $3, status = $4, updated_at = now(),
	    closed_at = CASE WHEN $3 = 'finalizado' THEN now() ELSE closed_at END
	WHERE id = $1 AND stage = $2
	RETURNING ` + ticketColumns

const insertMessageQuery = `
	INSERT INTO ticket_messages (id, ticket_id, author_id, author_email, author_role, body, kind)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + messageColumns

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTicket(row pgx.Row) (Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.CompanyID, &t.PlanID, &t.CreatedBy, &t.CreatedByEmail, &t.Status, &t.Stage,
		&t.DeletedByClient, &t.CreatedAt, &t.UpdatedAt, &t.ClosedAt)
	return t, err
}

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.TicketID, &m.AuthorID, &m.AuthorEmail, &m.AuthorRole, &m.Body, &m.Kind, &m.CreatedAt)
	return m, err
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertMessage(ctx context.Context, q querier, m Message) (Message, error) {
	return scanMessage(q.QueryRow(ctx, insertMessageQuery,
		m.ID, m.TicketID, m.AuthorID, m.AuthorEmail, m.AuthorRole, m.Body, m.Kind))
}

func (r *Repository) HasOpenTicket(ctx context.Context, companyID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, hasOpenTicketQuery, companyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check open ticket: %w", err)
	}
	return exists, nil
}

// Create inserts the ticket and its opening message together. A second
// unfinished ticket for the same company is a Conflict.
func (r *Repository) Create(ctx context.Context, t Ticket, opening Message) (Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Ticket{}, fmt.Errorf("begin ticket tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanTicket(tx.QueryRow(ctx, `
		INSERT INTO tickets (id, company_id, plan_id, created_by, created_by_email, status, stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+ticketColumns,
		t.ID, t.CompanyID, t.PlanID, t.CreatedBy, t.CreatedByEmail, t.Status, t.Stage))
	if err != nil {
		if db.IsUniqueViolation(err, openTicketIndex) {
			return Ticket{}, apperr.Conflict(msgOpenTicketExists)
		}
		return Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}

	opening.TicketID = created.ID
	if _, err := insertMessage(ctx, tx, opening); err != nil {
		return Ticket{}, fmt.Errorf("insert opening message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Ticket{}, fmt.Errorf("commit ticket: %w", err)
	}
	return created, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, apperr.NotFound(msgTicketNotFound)
		}
		return Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ($1::uuid IS NULL OR created_by = $1)`
	if !filter.IncludeDeleted {
		query += ` AND NOT deleted_by_client`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, filter.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Ticket, error) {
		return scanTicket(row)
	})
}

// UpdateStage applies u and appends its message in one transaction. A
// ticket that moved on since it was read yields a Conflict.
func (r *Repository) UpdateStage(ctx context.Context, id uuid.UUID, u StageUpdate) (Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Ticket{}, fmt.Errorf("begin stage tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updated, err := scanTicket(tx.QueryRow(ctx, updateStageQuery, id, u.From, u.To, u.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, apperr.Conflict(msgStageChanged)
		}
		return Ticket{}, fmt.Errorf("update ticket stage: %w", err)
	}

	if u.Message != nil {
		if _, err := insertMessage(ctx, tx, *u.Message); err != nil {
			return Ticket{}, fmt.Errorf("insert stage message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Ticket{}, fmt.Errorf("commit stage: %w", err)
	}
	return updated, nil
}

const touchTicketQuery = `UPDATE tickets SET updated_at = now() WHERE id = $1`

// AppendMessage stores m and bumps the ticket's updated_at together.
func (r *Repository) AppendMessage(ctx context.Context, m Message) (Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("begin message tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := insertMessage(ctx, tx, m)
	if err != nil {
		return Message{}, fmt.Errorf("append ticket message: %w", err)
	}
	tag, err := tx.Exec(ctx, touchTicketQuery, m.TicketID)
	if err != nil {
		return Message{}, fmt.Errorf("touch ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Message{}, apperr.NotFound(msgTicketNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, fmt.Errorf("commit message: %w", err)
	}
	return created, nil
}

func (r *Repository) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM ticket_messages
		WHERE ticket_id = $1
		ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list ticket messages: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		return scanMessage(row)
	})
}

// SoftDelete hides the ticket from its client. Managers still see it.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tickets SET deleted_by_client = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("soft delete ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgTicketNotFound)
	}
	return nil
}

// Delete removes the ticket; its messages go with it by cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgTicketNotFound)
	}
	return nil
}
