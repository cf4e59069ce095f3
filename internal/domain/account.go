package domain

import "time"

// Role is an explicit permission attribute of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account represents a registered user's credentials and profile.
type Account struct {
	ID              string     `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	Username        *string    `json:"username" db:"username"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	FirstName       *string    `json:"first_name" db:"first_name"`
	LastName        *string    `json:"last_name" db:"last_name"`
	DisplayName     *string    `json:"display_name" db:"display_name"`
	Bio             *string    `json:"bio" db:"bio"`
	AvatarURL       *string    `json:"avatar_url" db:"avatar_url"`
	Role            Role       `json:"role" db:"role"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	IsVerified      bool       `json:"is_verified" db:"is_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" db:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the account carries role.
func (a *Account) HasRole(role Role) bool {
	return a.Role == role
}

// Name returns the best human-readable name for greetings.
func (a *Account) Name() string {
	for _, candidate := range []*string{a.DisplayName, a.FirstName, a.Username} {
		if candidate != nil && *candidate != "" {
			return *candidate
		}
	}
	return a.Email
}

// AccountStats is the one-to-one companion of an Account holding the
// questing, reward and social counters. It is created zeroed at registration.
type AccountStats struct {
	ID                    string     `json:"id" db:"id"`
	AccountID             string     `json:"account_id" db:"account_id"`
	QuestsCompleted       int        `json:"quests_completed" db:"quests_completed"`
	QuestsJoined          int        `json:"quests_joined" db:"quests_joined"`
	QuestsCreated         int        `json:"quests_created" db:"quests_created"`
	TotalPoints           int        `json:"total_points" db:"total_points"`
	CurrentStreak         int        `json:"current_streak" db:"current_streak"`
	LongestStreak         int        `json:"longest_streak" db:"longest_streak"`
	FriendsCount          int        `json:"friends_count" db:"friends_count"`
	GroupsJoined          int        `json:"groups_joined" db:"groups_joined"`
	GroupsCreated         int        `json:"groups_created" db:"groups_created"`
	TotalDistanceTraveled float64    `json:"total_distance_traveled" db:"total_distance_traveled"`
	LastActivityAt        *time.Time `json:"last_activity_at" db:"last_activity_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// NewAccountStats returns a zeroed stats record for the account.
func NewAccountStats(accountID string) *AccountStats {
	return &AccountStats{AccountID: accountID}
}
