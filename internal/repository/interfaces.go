package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/seekerapp/seeker-auth/internal/domain"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AccountRepository defines methods for account operations
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByEmailOrUsername(ctx context.Context, email string, username *string) (emailTaken, usernameTaken bool, err error)
	Update(ctx context.Context, account *domain.Account) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// StatsRepository defines methods for account stats operations
type StatsRepository interface {
	Create(ctx context.Context, stats *domain.AccountStats) error
	GetByAccountID(ctx context.Context, accountID string) (*domain.AccountStats, error)
}

// Store is a unit of work over the account tables. Repositories obtained
// from the Store passed to a WithinTx callback share that transaction.
type Store interface {
	Accounts() AccountRepository
	Stats() StatsRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
