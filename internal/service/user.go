package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/ukmik/membership-service/pkg/errors"

	"github.com/ukmik/membership-service/internal/domain"
	"github.com/ukmik/membership-service/internal/repository"
)

// UserService implements the business logic for member accounts.
type UserService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// CreateUserInput holds the parameters for registering a member directly.
type CreateUserInput struct {
	Name         string
	StudentID    string
	Email        string
	Password     string
	Phone        string
	Gender       string
	Religion     string
	Faculty      string
	StudyProgram string
	Image        string
	Cohort       string
}

// UpdateUserInput holds the parameters for a partial member update. Nil
// fields are left unchanged.
type UpdateUserInput struct {
	Name         *string
	StudentID    *string
	Email        *string
	Phone        *string
	Gender       *string
	Religion     *string
	Faculty      *string
	StudyProgram *string
	Image        *string
	Cohort       *string
	Status       *string
}

// Create registers a new member with the next registration number and a
// bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.StudentID == "" {
		return nil, apperrors.InvalidInput("student id is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	nra, err := s.nextNRA(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		NRA:          nra,
		Name:         input.Name,
		StudentID:    input.StudentID,
		Email:        input.Email,
		PasswordHash: string(hash),
		Phone:        input.Phone,
		Gender:       input.Gender,
		Religion:     input.Religion,
		Faculty:      input.Faculty,
		StudyProgram: input.StudyProgram,
		Image:        input.Image,
		Cohort:       input.Cohort,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("nra", user.NRA),
	)

	return user, nil
}

// List returns summaries of all members.
func (s *UserService) List(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a member by their ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Update applies a partial update to a member's profile.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		user.Name = *input.Name
	}
	if input.StudentID != nil {
		if *input.StudentID == "" {
			return nil, apperrors.InvalidInput("student id must not be empty")
		}
		user.StudentID = *input.StudentID
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = *input.Email
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Gender != nil {
		user.Gender = *input.Gender
	}
	if input.Religion != nil {
		user.Religion = *input.Religion
	}
	if input.Faculty != nil {
		user.Faculty = *input.Faculty
	}
	if input.StudyProgram != nil {
		user.StudyProgram = *input.StudyProgram
	}
	if input.Image != nil {
		user.Image = *input.Image
	}
	if input.Cohort != nil {
		user.Cohort = *input.Cohort
	}
	if input.Status != nil {
		if *input.Status != domain.UserStatusActive && *input.Status != domain.UserStatusInactive {
			return nil, apperrors.InvalidInput("status must be Active or Inactive")
		}
		user.Status = *input.Status
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Delete removes a member.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user", id)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", id),
	)

	return nil
}

// ExportCSV writes the full member roster to w in CSV form.
func (s *UserService) ExportCSV(ctx context.Context, w io.Writer) error {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users for export: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{
		"nra", "name", "student_id", "email", "phone", "gender",
		"religion", "faculty", "study_program", "cohort", "status",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, u := range users {
		record := []string{
			u.NRA, u.Name, u.StudentID, u.Email, u.Phone, u.Gender,
			u.Religion, u.Faculty, u.StudyProgram, u.Cohort, u.Status,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

// nextNRA formats the next registration number as {seq}/UKM_IK/XXIX/{year}.
func (s *UserService) nextNRA(ctx context.Context) (string, error) {
	maxSeq, err := s.userRepo.MaxNRASequence(ctx)
	if err != nil {
		return "", fmt.Errorf("next nra sequence: %w", err)
	}
	return formatNRA(maxSeq+1, time.Now().UTC().Year()), nil
}

// formatNRA renders a registration number from its sequence and year.
func formatNRA(seq, year int) string {
	return strconv.Itoa(seq) + "/UKM_IK/XXIX/" + strconv.Itoa(year)
}
