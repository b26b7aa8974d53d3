package repository

import (
	"context"
	"time"

	"github.com/ukmik/membership-service/internal/domain"
)

// UserRepository defines the interface for member persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns summaries of all users ordered by NRA sequence.
	List(ctx context.Context) ([]domain.UserSummary, error)

	// ListAll returns full records of all users ordered by NRA sequence.
	ListAll(ctx context.Context) ([]domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error

	// UpdatePasswordHash replaces the stored password hash for the user.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// SetRefreshTokenHash unconditionally stores the given refresh token
	// hash for the user. Pass nil to clear the slot.
	SetRefreshTokenHash(ctx context.Context, id string, hash *string) error

	// ClearRefreshTokenHash clears the refresh token slot, but only when a
	// session is currently active. Clearing an empty slot is not an error.
	ClearRefreshTokenHash(ctx context.Context, id string) error

	// ReplaceRefreshTokenHash atomically swaps the stored refresh token
	// hash from oldHash to newHash. It returns ErrNotFound when the stored
	// hash no longer matches oldHash, which means a concurrent rotation or
	// logout won the race.
	ReplaceRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) error

	// MaxNRASequence returns the highest registration number sequence
	// currently assigned, or 0 when no users exist.
	MaxNRASequence(ctx context.Context) (int, error)
}

// CandidateRepository defines the interface for candidate persistence operations.
type CandidateRepository interface {
	// Create inserts a new candidate into the store.
	Create(ctx context.Context, candidate *domain.Candidate) error

	// GetByID retrieves a candidate by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)

	// List returns summaries of all candidates, newest first.
	List(ctx context.Context) ([]domain.CandidateSummary, error)

	// ListAll returns full records of all candidates, newest first.
	ListAll(ctx context.Context) ([]domain.Candidate, error)

	// Update modifies an existing candidate in the store.
	Update(ctx context.Context, candidate *domain.Candidate) error

	// Delete removes a candidate from the store by their identifier.
	Delete(ctx context.Context, id string) error

	// UpdateApproval records a terminal accept or reject decision.
	UpdateApproval(ctx context.Context, id, approval string, decidedAt time.Time) error
}

// PasswordResetRepository defines the interface for password reset grant
// persistence. At most one grant exists per user at any time.
type PasswordResetRepository interface {
	// Create stores a new reset grant for the user.
	Create(ctx context.Context, reset *domain.PasswordReset) error

	// GetByUserID retrieves the user's current grant, expired or not.
	GetByUserID(ctx context.Context, userID string) (*domain.PasswordReset, error)

	// DeleteByUserID removes the user's grant if one exists.
	DeleteByUserID(ctx context.Context, userID string) error

	// Consume atomically deletes the grant identified by token, provided it
	// is still valid at the given instant, and returns the owning user ID.
	// It returns ErrNotFound when the token is unknown, expired, or already
	// consumed.
	Consume(ctx context.Context, token string, now time.Time) (string, error)
}
