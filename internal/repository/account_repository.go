package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seekerapp/seeker-auth/internal/domain"
)

// Constraint names created by the initial migration.
const (
	accountsEmailIndex    = "accounts_email_lower_key"
	accountsUsernameIndex = "accounts_username_key"
)

const accountColumns = `id, email, username, password_hash, first_name, last_name, display_name, bio, avatar_url,
	role, is_active, is_verified, email_verified_at, last_login_at, created_at, updated_at`

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account. Email and username collisions are reported
// as ErrDuplicateEmail and ErrDuplicateUsername.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, username, password_hash, first_name, last_name, display_name,
			role, is_active, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

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

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.DisplayName,
		string(account.Role),
		account.IsActive,
		account.IsVerified,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return translateAccountWriteError(err, account)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// GetByEmail retrieves an account by its normalized email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1)`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// ExistsByEmailOrUsername reports which of the two identifiers are taken.
// A nil username is never considered taken.
func (r *accountRepository) ExistsByEmailOrUsername(ctx context.Context, email string, username *string) (bool, bool, error) {
	query := `
		SELECT
			EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1)),
			EXISTS (SELECT 1 FROM accounts WHERE username = $2)
	`

	var emailTaken, usernameTaken bool
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&emailTaken, &usernameTaken); err != nil {
		return false, false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return emailTaken, usernameTaken, nil
}

// Update writes the mutable columns of an existing account in place.
func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET email = $2, username = $3, password_hash = $4, first_name = $5, last_name = $6,
			display_name = $7, bio = $8, avatar_url = $9, role = $10, is_active = $11,
			is_verified = $12, email_verified_at = $13, updated_at = $14
		WHERE id = $1
	`

	account.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.DisplayName,
		account.Bio,
		account.AvatarURL,
		string(account.Role),
		account.IsActive,
		account.IsVerified,
		account.EmailVerifiedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return translateAccountWriteError(err, account)
	}

	return expectAffected(result, fmt.Sprintf("account with id %s", account.ID))
}

// UpdateLastLogin stamps the last login time of an account
func (r *accountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return expectAffected(result, fmt.Sprintf("account with id %s", id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	account := &domain.Account{}
	var (
		role                                       string
		username, firstName, lastName, displayName sql.NullString
		bio, avatarURL                             sql.NullString
		emailVerifiedAt, lastLoginAt               sql.NullTime
	)

	err := row.Scan(
		&account.ID,
		&account.Email,
		&username,
		&account.PasswordHash,
		&firstName,
		&lastName,
		&displayName,
		&bio,
		&avatarURL,
		&role,
		&account.IsActive,
		&account.IsVerified,
		&emailVerifiedAt,
		&lastLoginAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Role = domain.Role(role)
	account.Username = nullableString(username)
	account.FirstName = nullableString(firstName)
	account.LastName = nullableString(lastName)
	account.DisplayName = nullableString(displayName)
	account.Bio = nullableString(bio)
	account.AvatarURL = nullableString(avatarURL)
	if emailVerifiedAt.Valid {
		account.EmailVerifiedAt = &emailVerifiedAt.Time
	}
	if lastLoginAt.Valid {
		account.LastLoginAt = &lastLoginAt.Time
	}

	return account, nil
}

func translateAccountWriteError(err error, account *domain.Account) error {
	if constraint, ok := uniqueConstraint(err); ok {
		switch constraint {
		case accountsUsernameIndex:
			return fmt.Errorf("username already taken: %w", ErrDuplicateUsername)
		case accountsEmailIndex:
			return fmt.Errorf("account with email %s already exists: %w", account.Email, ErrDuplicateEmail)
		}
	}
	return fmt.Errorf("failed to write account: %w", err)
}

func expectAffected(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	}

	return nil
}
