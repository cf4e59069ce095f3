package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// store implements Store over a connection pool or a single transaction.
type store struct {
	db *sql.DB
	q  DBTX
}

var _ Store = (*store)(nil)

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) Store {
	return &store{db: db, q: db}
}

func (s *store) Accounts() AccountRepository {
	return NewAccountRepository(s.q)
}

func (s *store) Stats() StatsRepository {
	return NewStatsRepository(s.q)
}

// WithinTx runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise. Nested calls reuse the outer transaction.
func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) (err error) {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(ctx, &store{db: s.db, q: tx})
}

// uniqueConstraint returns the violated constraint name, if err is a
// unique violation.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
