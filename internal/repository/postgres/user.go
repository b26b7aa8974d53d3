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

const userColumns = `id, nra, name, student_id, email, password_hash, phone, gender, religion, faculty, study_program, image, cohort, status, refresh_token_hash, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.NRA,
		u.Name,
		u.StudentID,
		u.Email,
		u.PasswordHash,
		u.Phone,
		u.Gender,
		u.Religion,
		u.Faculty,
		u.StudyProgram,
		u.Image,
		u.Cohort,
		u.Status,
		u.RefreshTokenHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return r.scanUser(ctx, query, email)
}

// List returns summaries of all users ordered by NRA sequence.
func (r *UserRepository) List(ctx context.Context) ([]domain.UserSummary, error) {
	query := `
		SELECT id, nra, name, student_id, study_program
		FROM users
		ORDER BY split_part(nra, '/', 1)::int`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.UserSummary
	for rows.Next() {
		var u domain.UserSummary
		if err := rows.Scan(&u.ID, &u.NRA, &u.Name, &u.StudentID, &u.StudyProgram); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.UserSummary{}
	}

	return users, nil
}

// ListAll returns full records of all users ordered by NRA sequence.
func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY split_part(nra, '/', 1)::int`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := scanUserRow(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}

	return users, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, student_id = $2, email = $3, phone = $4, gender = $5,
		    religion = $6, faculty = $7, study_program = $8, image = $9,
		    cohort = $10, status = $11, updated_at = $12
		WHERE id = $13`

	ct, err := r.db.Exec(ctx, query,
		u.Name,
		u.StudentID,
		u.Email,
		u.Phone,
		u.Gender,
		u.Religion,
		u.Faculty,
		u.StudyProgram,
		u.Image,
		u.Cohort,
		u.Status,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// Delete removes a user from the database by their ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// UpdatePasswordHash replaces the stored password hash for the user.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// SetRefreshTokenHash unconditionally stores the given refresh token hash.
func (r *UserRepository) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	query := `UPDATE users SET refresh_token_hash = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, hash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set refresh token hash: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// ClearRefreshTokenHash clears the refresh token slot for users with an
// active session. Matching zero rows is not an error: logout of an already
// logged-out account is a no-op.
func (r *UserRepository) ClearRefreshTokenHash(ctx context.Context, id string) error {
	query := `UPDATE users SET refresh_token_hash = NULL, updated_at = $1 WHERE id = $2 AND refresh_token_hash IS NOT NULL`

	_, err := r.db.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("clear refresh token hash: %w", err)
	}

	return nil
}

// ReplaceRefreshTokenHash atomically swaps the stored hash from oldHash to
// newHash. Zero rows affected means the slot changed underneath us, so the
// caller must treat the rotation as lost.
func (r *UserRepository) ReplaceRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) error {
	query := `UPDATE users SET refresh_token_hash = $1, updated_at = $2 WHERE id = $3 AND refresh_token_hash = $4`

	ct, err := r.db.Exec(ctx, query, newHash, time.Now().UTC(), id, oldHash)
	if err != nil {
		return fmt.Errorf("replace refresh token hash: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// MaxNRASequence returns the highest registration number sequence assigned
// so far. Registration numbers are formatted "{seq}/UKM_IK/XXIX/{year}".
func (r *UserRepository) MaxNRASequence(ctx context.Context) (int, error) {
	query := `SELECT COALESCE(MAX(split_part(nra, '/', 1)::int), 0) FROM users`

	var maxSeq int
	if err := r.db.QueryRow(ctx, query).Scan(&maxSeq); err != nil {
		return 0, fmt.Errorf("max nra sequence: %w", err)
	}

	return maxSeq, nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := scanUserRow(r.db.QueryRow(ctx, query, args...), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

func scanUserRow(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID,
		&u.NRA,
		&u.Name,
		&u.StudentID,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Gender,
		&u.Religion,
		&u.Faculty,
		&u.StudyProgram,
		&u.Image,
		&u.Cohort,
		&u.Status,
		&u.RefreshTokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}
