package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ukmik/membership-service/pkg/errors"

	"github.com/ukmik/membership-service/internal/domain"
)

func newCandidateTestFixture(t *testing.T) (*CandidateRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewCandidateRepository(mock)
	return repo, mock
}

func sampleCandidate() *domain.Candidate {
	now := time.Now().UTC().Truncate(time.Microsecond)
	lk1 := 85.0
	return &domain.Candidate{
		ID:           "c-1234",
		Name:         "Budi Santoso",
		StudentID:    "225611042",
		Email:        "budi@example.com",
		Phone:        "+628123456780",
		Gender:       "Male",
		Religion:     "Islam",
		Faculty:      "Computer Science",
		StudyProgram: "Informatics",
		Cohort:       "2022",
		LK1:          &lk1,
		Average:      &lk1,
		Approval:     domain.ApprovalOnProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func candidateRow(c *domain.Candidate) *pgxmock.Rows {
	cols := []string{
		"id", "name", "student_id", "email", "phone", "gender", "religion",
		"faculty", "study_program", "image", "cohort", "lk1", "lk2", "sc",
		"activity", "average", "approval", "description",
		"created_at", "updated_at", "decided_at",
	}
	return pgxmock.NewRows(cols).AddRow(
		c.ID, c.Name, c.StudentID, c.Email, c.Phone, c.Gender, c.Religion,
		c.Faculty, c.StudyProgram, c.Image, c.Cohort, c.LK1, c.LK2, c.SC,
		c.Activity, c.Average, c.Approval, c.Description,
		c.CreatedAt, c.UpdatedAt, c.DecidedAt,
	)
}

func TestCandidateRepository_Create_Success(t *testing.T) {
	repo, mock := newCandidateTestFixture(t)
	defer mock.Close()

	c := sampleCandidate()

	mock.ExpectExec("INSERT INTO candidates").
		WithArgs(
			c.ID, c.Name, c.StudentID, c.Email, c.Phone, c.Gender, c.Religion,
			c.Faculty, c.StudyProgram, c.Image, c.Cohort, c.LK1, c.LK2, c.SC,
			c.Activity, c.Average, c.Approval, c.Description,
			c.CreatedAt, c.UpdatedAt, c.DecidedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), c)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newCandidateTestFixture(t)
	defer mock.Close()

	c := sampleCandidate()

	mock.ExpectExec("INSERT INTO candidates").
		WithArgs(
			c.ID, c.Name, c.StudentID, c.Email, c.Phone, c.Gender, c.Religion,
			c.Faculty, c.StudyProgram, c.Image, c.Cohort, c.LK1, c.LK2, c.SC,
			c.Activity, c.Average, c.Approval, c.Description,
			c.CreatedAt, c.UpdatedAt, c.DecidedAt,
		).
		WillReturnError(fmt.Errorf("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists), "expected ErrAlreadyExists, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_GetByID_Success(t *testing.T) {
	repo, mock := newCandidateTestFixture(t)
	defer mock.Close()

	c := sampleCandidate()

	mock.ExpectQuery("SELECT .+ FROM candidates WHERE id =").
		WithArgs(c.ID).
		WillReturnRows(candidateRow(c))

	got, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Approval, got.Approval)
	require.NotNil(t, got.LK1)
	assert.Equal(t, 85.0, *got.LK1)
	assert.Nil(t, got.LK2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newCandidateTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM candidates WHERE id =").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing-id")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_List_Success(t *testing.T) {
	repo, mock := newCandidateTestFixture(t)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "name", "student_id", "study_program", "cohort", "approval"}).
		AddRow("c-1", "Budi", "225611042", "Informatics", "2022", domain.ApprovalOnProgress).
		AddRow("c-2", "Citra", "225611043", "Information Systems", "2022", domain.ApprovalAccepted)

	mock.ExpectQuery("SELECT id, name, student_id, study_program, cohort, approval").
		WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ApprovalAccepted, got[1].Approval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_Update_NotFound(t *testing.T) {
	repo, mock := newCandidateTestFixture(t)
	defer mock.Close()

	c := sampleCandidate()

	mock.ExpectExec("UPDATE candidates").
		WithArgs(
			c.Name, c.StudentID, c.Email, c.Phone, c.Gender,
			c.Religion, c.Faculty, c.StudyProgram, c.Image, c.Cohort,
			c.LK1, c.LK2, c.SC, c.Activity, c.Average,
			c.Description, pgxmock.AnyArg(), c.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_UpdateApproval_Success(t *testing.T) {
	repo, mock := newCandidateTestFixture(t)
	defer mock.Close()

	decidedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE candidates SET approval =").
		WithArgs(domain.ApprovalAccepted, decidedAt, pgxmock.AnyArg(), "c-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateApproval(context.Background(), "c-1234", domain.ApprovalAccepted, decidedAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newCandidateTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM candidates WHERE id =").
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
