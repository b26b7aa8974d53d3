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

const candidateColumns = `id, name, student_id, email, phone, gender, religion, faculty, study_program, image, cohort, lk1, lk2, sc, activity, average, approval, description, created_at, updated_at, decided_at`

// CandidateRepository implements repository.CandidateRepository using PostgreSQL.
type CandidateRepository struct {
	db DB
}

// NewCandidateRepository creates a new PostgreSQL-backed candidate repository.
func NewCandidateRepository(db DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Create inserts a new candidate into the database.
func (r *CandidateRepository) Create(ctx context.Context, c *domain.Candidate) error {
	query := `
		INSERT INTO candidates (` + candidateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.StudentID,
		c.Email,
		c.Phone,
		c.Gender,
		c.Religion,
		c.Faculty,
		c.StudyProgram,
		c.Image,
		c.Cohort,
		c.LK1,
		c.LK2,
		c.SC,
		c.Activity,
		c.Average,
		c.Approval,
		c.Description,
		c.CreatedAt,
		c.UpdatedAt,
		c.DecidedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("candidate", "email", c.Email)
		}
		return fmt.Errorf("insert candidate: %w", err)
	}

	return nil
}

// GetByID retrieves a candidate by their ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`

	var c domain.Candidate
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.StudentID,
		&c.Email,
		&c.Phone,
		&c.Gender,
		&c.Religion,
		&c.Faculty,
		&c.StudyProgram,
		&c.Image,
		&c.Cohort,
		&c.LK1,
		&c.LK2,
		&c.SC,
		&c.Activity,
		&c.Average,
		&c.Approval,
		&c.Description,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.DecidedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}

	return &c, nil
}

// List returns summaries of all candidates, newest first.
func (r *CandidateRepository) List(ctx context.Context) ([]domain.CandidateSummary, error) {
	query := `
		SELECT id, name, student_id, study_program, cohort, approval
		FROM candidates
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.CandidateSummary
	for rows.Next() {
		var c domain.CandidateSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.StudentID, &c.StudyProgram, &c.Cohort, &c.Approval); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}

	if candidates == nil {
		candidates = []domain.CandidateSummary{}
	}

	return candidates, nil
}

// ListAll returns full records of all candidates, newest first.
func (r *CandidateRepository) ListAll(ctx context.Context) ([]domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.StudentID,
			&c.Email,
			&c.Phone,
			&c.Gender,
			&c.Religion,
			&c.Faculty,
			&c.StudyProgram,
			&c.Image,
			&c.Cohort,
			&c.LK1,
			&c.LK2,
			&c.SC,
			&c.Activity,
			&c.Average,
			&c.Approval,
			&c.Description,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}

	if candidates == nil {
		candidates = []domain.Candidate{}
	}

	return candidates, nil
}

// Update modifies an existing candidate in the database.
func (r *CandidateRepository) Update(ctx context.Context, c *domain.Candidate) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE candidates
		SET name = $1, student_id = $2, email = $3, phone = $4, gender = $5,
		    religion = $6, faculty = $7, study_program = $8, image = $9, cohort = $10,
		    lk1 = $11, lk2 = $12, sc = $13, activity = $14, average = $15,
		    description = $16, updated_at = $17
		WHERE id = $18`

	ct, err := r.db.Exec(ctx, query,
		c.Name,
		c.StudentID,
		c.Email,
		c.Phone,
		c.Gender,
		c.Religion,
		c.Faculty,
		c.StudyProgram,
		c.Image,
		c.Cohort,
		c.LK1,
		c.LK2,
		c.SC,
		c.Activity,
		c.Average,
		c.Description,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("candidate", "email", c.Email)
		}
		return fmt.Errorf("update candidate: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("candidate", c.ID)
	}

	return nil
}

// Delete removes a candidate from the database by their ID.
func (r *CandidateRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM candidates WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("candidate", id)
	}

	return nil
}

// UpdateApproval records a terminal accept or reject decision.
func (r *CandidateRepository) UpdateApproval(ctx context.Context, id, approval string, decidedAt time.Time) error {
	query := `UPDATE candidates SET approval = $1, decided_at = $2, updated_at = $3 WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, approval, decidedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update candidate approval: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("candidate", id)
	}

	return nil
}
