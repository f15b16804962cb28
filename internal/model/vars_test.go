package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "pgx unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "pgx wrapped", err: fmt.Errorf("price_predictions.Insert: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "pgx foreign key", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "pq unique", err: &pq.Error{Code: "23505"}, want: true},
		{name: "pq wrapped", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "pq serialization", err: &pq.Error{Code: "40001"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
