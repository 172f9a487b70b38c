// Package postgres implements store.Store on PostgreSQL via pgx.
package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/database"
)

var _ store.Store = (*Store)(nil)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store is the PostgreSQL-backed store.
type Store struct {
	db database.Querier
}

// New creates a store over a pool or any Querier.
func New(db database.Querier) *Store {
	return &Store{db: db}
}

// translate maps driver errors onto store sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return store.ErrDuplicate
		case codeForeignKeyViolation:
			return store.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affected returns ErrNotFound when a statement touched no rows.
func affected(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return translate(op, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func likePattern(query string) string {
	return "%" + query + "%"
}
