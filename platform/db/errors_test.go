package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert ticket: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_tickets_open_per_company"})

	if !IsUniqueViolation(err, "") {
		t.Fatal("expected unique violation to be detected")
	}
	if !IsUniqueViolation(err, "uq_tickets_open_per_company") {
		t.Fatal("expected named constraint to match")
	}
	if IsUniqueViolation(err, "other") {
		t.Fatal("expected other constraint not to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("expected foreign key violation not to match")
	}
}
