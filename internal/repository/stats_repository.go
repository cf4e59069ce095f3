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

// statsRepository implements StatsRepository interface
type statsRepository struct {
	db DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db DBTX) StatsRepository {
	return &statsRepository{db: db}
}

// Create inserts the stats record of an account. The unique account_id
// column guarantees at most one record per account.
func (r *statsRepository) Create(ctx context.Context, stats *domain.AccountStats) error {
	query := `
		INSERT INTO account_stats (id, account_id, quests_completed, quests_joined, quests_created,
			total_points, current_streak, longest_streak, friends_count, groups_joined, groups_created,
			total_distance_traveled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	if stats.ID == "" {
		stats.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if stats.CreatedAt.IsZero() {
		stats.CreatedAt = now
	}
	if stats.UpdatedAt.IsZero() {
		stats.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		stats.ID,
		stats.AccountID,
		stats.QuestsCompleted,
		stats.QuestsJoined,
		stats.QuestsCreated,
		stats.TotalPoints,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.FriendsCount,
		stats.GroupsJoined,
		stats.GroupsCreated,
		stats.TotalDistanceTraveled,
		stats.CreatedAt,
		stats.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return fmt.Errorf("stats for account %s: %w", stats.AccountID, ErrDuplicateStats)
		}
		return fmt.Errorf("failed to create account stats: %w", err)
	}

	return nil
}

// GetByAccountID retrieves the stats record of an account
func (r *statsRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.AccountStats, error) {
	query := `
		SELECT id, account_id, quests_completed, quests_joined, quests_created, total_points,
			current_streak, longest_streak, friends_count, groups_joined, groups_created,
			total_distance_traveled, last_activity_at, created_at, updated_at
		FROM account_stats
		WHERE account_id = $1
	`

	stats := &domain.AccountStats{}
	var lastActivityAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&stats.ID,
		&stats.AccountID,
		&stats.QuestsCompleted,
		&stats.QuestsJoined,
		&stats.QuestsCreated,
		&stats.TotalPoints,
		&stats.CurrentStreak,
		&stats.LongestStreak,
		&stats.FriendsCount,
		&stats.GroupsJoined,
		&stats.GroupsCreated,
		&stats.TotalDistanceTraveled,
		&lastActivityAt,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("stats for account %s not found: %w", accountID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account stats: %w", err)
	}

	if lastActivityAt.Valid {
		stats.LastActivityAt = &lastActivityAt.Time
	}

	return stats, nil
}
