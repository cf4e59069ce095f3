// Package repositorytest provides an in-memory repository.Store with the
// same uniqueness and transaction semantics as the PostgreSQL one.
package repositorytest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/repository"
)

// Operations that can be made to fail with Store.FailOn.
const (
	OpAccountCreate   = "accounts.create"
	OpAccountUpdate   = "accounts.update"
	OpAccountGet      = "accounts.get"
	OpUpdateLastLogin = "accounts.update_last_login"
	OpStatsCreate     = "stats.create"
)

type dataset struct {
	accounts map[string]domain.Account
	stats    map[string]domain.AccountStats
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		accounts: make(map[string]domain.Account, len(d.accounts)),
		stats:    make(map[string]domain.AccountStats, len(d.stats)),
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.stats {
		c.stats[k] = v
	}
	return c
}

// Store is safe for concurrent use. Transactions are serialized.
type Store struct {
	mu       sync.Mutex
	data     *dataset
	failures map[string]error
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		data: &dataset{
			accounts: make(map[string]domain.Account),
			stats:    make(map[string]domain.AccountStats),
		},
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) Accounts() repository.AccountRepository {
	return &accounts{v: &view{store: s}}
}

func (s *Store) Stats() repository.StatsRepository {
	return &stats{v: &view{store: s}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return (&view{store: s}).WithinTx(ctx, fn)
}

// AccountCount returns the number of committed accounts.
func (s *Store) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.accounts)
}

// StatsCount returns the number of committed stats records.
func (s *Store) StatsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.stats)
}

// Put stores account as is, bypassing uniqueness checks. Useful for seeding.
func (s *Store) Put(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.accounts[account.ID] = account
}

// view is a Store bound either to the committed data or, inside WithinTx,
// to the transaction's private copy.
type view struct {
	store *Store
	tx    *dataset
}

func (v *view) Accounts() repository.AccountRepository { return &accounts{v: v} }
func (v *view) Stats() repository.StatsRepository      { return &stats{v: v} }

func (v *view) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if v.tx != nil {
		return fn(ctx, v)
	}

	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	inner := &view{store: v.store, tx: v.store.data.clone()}
	if err := fn(ctx, inner); err != nil {
		return err
	}

	v.store.data = inner.tx
	return nil
}

func (v *view) run(op string, fn func(d *dataset) error) error {
	if v.tx != nil {
		if err := v.store.failures[op]; err != nil {
			return err
		}
		return fn(v.tx)
	}

	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if err := v.store.failures[op]; err != nil {
		return err
	}
	return fn(v.store.data)
}

type accounts struct {
	v *view
}

func (r *accounts) Create(_ context.Context, account *domain.Account) error {
	return r.v.run(OpAccountCreate, func(d *dataset) error {
		if err := checkUnique(d, account); err != nil {
			return err
		}

		if account.ID == "" {
			account.ID = uuid.New().String()
		}
		if account.Role == "" {
			account.Role = domain.RoleUser
		}
		now := time.Now().UTC()
		if account.CreatedAt.IsZero() {
			account.CreatedAt = now
		}
		if account.UpdatedAt.IsZero() {
			account.UpdatedAt = now
		}

		d.accounts[account.ID] = *account
		return nil
	})
}

func (r *accounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	var found *domain.Account
	err := r.v.run(OpAccountGet, func(d *dataset) error {
		account, ok := d.accounts[id]
		if !ok {
			return fmt.Errorf("account with id %s not found: %w", id, repository.ErrNotFound)
		}
		found = &account
		return nil
	})
	return found, err
}

func (r *accounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	var found *domain.Account
	err := r.v.run(OpAccountGet, func(d *dataset) error {
		for _, account := range d.accounts {
			if strings.EqualFold(account.Email, email) {
				found = &account
				return nil
			}
		}
		return fmt.Errorf("account with email %s not found: %w", email, repository.ErrNotFound)
	})
	return found, err
}

func (r *accounts) ExistsByEmailOrUsername(_ context.Context, email string, username *string) (bool, bool, error) {
	var emailTaken, usernameTaken bool
	err := r.v.run(OpAccountGet, func(d *dataset) error {
		for _, account := range d.accounts {
			if strings.EqualFold(account.Email, email) {
				emailTaken = true
			}
			if username != nil && account.Username != nil && *account.Username == *username {
				usernameTaken = true
			}
		}
		return nil
	})
	return emailTaken, usernameTaken, err
}

func (r *accounts) Update(_ context.Context, account *domain.Account) error {
	return r.v.run(OpAccountUpdate, func(d *dataset) error {
		if _, ok := d.accounts[account.ID]; !ok {
			return fmt.Errorf("account with id %s not found: %w", account.ID, repository.ErrNotFound)
		}
		if err := checkUnique(d, account); err != nil {
			return err
		}

		account.UpdatedAt = time.Now().UTC()
		stored := *account
		stored.LastLoginAt = d.accounts[account.ID].LastLoginAt
		d.accounts[account.ID] = stored
		return nil
	})
}

func (r *accounts) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return r.v.run(OpUpdateLastLogin, func(d *dataset) error {
		account, ok := d.accounts[id]
		if !ok {
			return fmt.Errorf("account with id %s not found: %w", id, repository.ErrNotFound)
		}
		account.LastLoginAt = &at
		d.accounts[id] = account
		return nil
	})
}

func checkUnique(d *dataset, account *domain.Account) error {
	for id, existing := range d.accounts {
		if id == account.ID {
			continue
		}
		if strings.EqualFold(existing.Email, account.Email) {
			return fmt.Errorf("account with email %s already exists: %w", account.Email, repository.ErrDuplicateEmail)
		}
		if account.Username != nil && existing.Username != nil && *existing.Username == *account.Username {
			return fmt.Errorf("username already taken: %w", repository.ErrDuplicateUsername)
		}
	}
	return nil
}

type stats struct {
	v *view
}

func (r *stats) Create(_ context.Context, s *domain.AccountStats) error {
	return r.v.run(OpStatsCreate, func(d *dataset) error {
		for _, existing := range d.stats {
			if existing.AccountID == s.AccountID {
				return fmt.Errorf("stats for account %s: %w", s.AccountID, repository.ErrDuplicateStats)
			}
		}

		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		now := time.Now().UTC()
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}

		d.stats[s.ID] = *s
		return nil
	})
}

func (r *stats) GetByAccountID(_ context.Context, accountID string) (*domain.AccountStats, error) {
	var found *domain.AccountStats
	err := r.v.run("stats.get", func(d *dataset) error {
		for _, s := range d.stats {
			if s.AccountID == accountID {
				found = &s
				return nil
			}
		}
		return fmt.Errorf("stats for account %s not found: %w", accountID, repository.ErrNotFound)
	})
	return found, err
}
