package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "stock_orders_item_id_direction_ordered_at_key"}
	if !isUniqueViolation(unique) {
		t.Fatal("expected unique violation to match")
	}
	if !isUniqueViolation(fmt.Errorf("insert order: %w", unique)) {
		t.Fatal("expected wrapped unique violation to match")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation should not match")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Fatal("plain error should not match")
	}
}
