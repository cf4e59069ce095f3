package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/repository"
	"github.com/seekerapp/seeker-auth/internal/utils"
)

// ErrAccountNotFound is returned by UserDirectory lookups that match nothing.
var ErrAccountNotFound = errors.New("account not found")

// UserDirectory is the read side of the account store. Emails are
// normalized before every lookup; usernames are matched exactly.
type UserDirectory struct {
	store repository.Store
}

func NewUserDirectory(store repository.Store) *UserDirectory {
	return &UserDirectory{store: store}
}

// FindByID looks an account up by id. A malformed id is reported as
// ErrAccountNotFound, not as a format error.
func (d *UserDirectory) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	account, err := d.store.Accounts().GetByID(ctx, parsed.String())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return account, nil
}

func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := d.store.Accounts().GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return account, nil
}

// ExistsWithEmailOrUsername reports which identifiers are already taken.
func (d *UserDirectory) ExistsWithEmailOrUsername(ctx context.Context, email string, username *string) (emailTaken, usernameTaken bool, err error) {
	emailTaken, usernameTaken, err = d.store.Accounts().ExistsByEmailOrUsername(ctx, utils.NormalizeEmail(email), username)
	if err != nil {
		return false, false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return emailTaken, usernameTaken, nil
}
