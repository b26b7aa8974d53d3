package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/ukmik/membership-service/pkg/errors"

	"github.com/ukmik/membership-service/internal/domain"
)

// PasswordResetRepository implements repository.PasswordResetRepository using PostgreSQL.
type PasswordResetRepository struct {
	db DB
}

// NewPasswordResetRepository creates a new PostgreSQL-backed password reset repository.
func NewPasswordResetRepository(db DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create stores a new reset grant for the user.
func (r *PasswordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	query := `
		INSERT INTO password_resets (token, user_id, valid_until, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, reset.Token, reset.UserID, reset.ValidUntil, reset.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("password reset", "user_id", reset.UserID)
		}
		return fmt.Errorf("insert password reset: %w", err)
	}

	return nil
}

// GetByUserID retrieves the user's current grant, expired or not.
func (r *PasswordResetRepository) GetByUserID(ctx context.Context, userID string) (*domain.PasswordReset, error) {
	query := `
		SELECT token, user_id, valid_until, created_at
		FROM password_resets
		WHERE user_id = $1`

	var p domain.PasswordReset
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.Token, &p.UserID, &p.ValidUntil, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan password reset: %w", err)
	}

	return &p, nil
}

// DeleteByUserID removes the user's grant if one exists.
func (r *PasswordResetRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM password_resets WHERE user_id = $1`

	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete password reset: %w", err)
	}

	return nil
}

// Consume atomically deletes the grant identified by token, provided it is
// still within its validity window, and returns the owning user ID. The
// single DELETE guarantees at most one concurrent consumer succeeds.
func (r *PasswordResetRepository) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	query := `
		DELETE FROM password_resets
		WHERE token = $1 AND valid_until >= $2
		RETURNING user_id`

	var userID string
	err := r.db.QueryRow(ctx, query, token, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("consume password reset: %w", err)
	}

	return userID, nil
}
