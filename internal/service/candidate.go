package service

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/ukmik/membership-service/pkg/errors"

	"github.com/ukmik/membership-service/internal/domain"
	"github.com/ukmik/membership-service/internal/mailer"
	"github.com/ukmik/membership-service/internal/repository"
)

// initialPasswordLength is the length of the generated password mailed to
// accepted candidates.
const initialPasswordLength = 10

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CandidateService implements the recruitment flow: applicant records,
// scoring, and the accept/reject decision that promotes a candidate into a
// member account.
type CandidateService struct {
	candidateRepo repository.CandidateRepository
	userRepo      repository.UserRepository
	mail          mailer.Mailer
	logger        *slog.Logger
}

// NewCandidateService creates a new candidate service.
func NewCandidateService(
	candidateRepo repository.CandidateRepository,
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	logger *slog.Logger,
) *CandidateService {
	return &CandidateService{
		candidateRepo: candidateRepo,
		userRepo:      userRepo,
		mail:          mail,
		logger:        logger,
	}
}

// CreateCandidateInput holds the parameters for registering an applicant.
type CreateCandidateInput struct {
	Name         string
	StudentID    string
	Email        string
	Phone        string
	Gender       string
	Religion     string
	Faculty      string
	StudyProgram string
	Image        string
	Cohort       string
	Description  string
}

// UpdateCandidateInput holds the parameters for a partial candidate update.
// Nil fields are left unchanged; the score average is recomputed after the
// update is applied.
type UpdateCandidateInput struct {
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
	Description  *string
	LK1          *float64
	LK2          *float64
	SC           *float64
	Activity     *float64
}

// Create registers a new applicant in the OnProgress state.
func (s *CandidateService) Create(ctx context.Context, input CreateCandidateInput) (*domain.Candidate, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.StudentID == "" {
		return nil, apperrors.InvalidInput("student id is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}

	now := time.Now().UTC()
	candidate := &domain.Candidate{
		ID:           uuid.New().String(),
		Name:         input.Name,
		StudentID:    input.StudentID,
		Email:        input.Email,
		Phone:        input.Phone,
		Gender:       input.Gender,
		Religion:     input.Religion,
		Faculty:      input.Faculty,
		StudyProgram: input.StudyProgram,
		Image:        input.Image,
		Cohort:       input.Cohort,
		Description:  input.Description,
		Approval:     domain.ApprovalOnProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}

	s.logger.InfoContext(ctx, "candidate created",
		slog.String("candidate_id", candidate.ID),
	)

	return candidate, nil
}

// List returns summaries of all candidates.
func (s *CandidateService) List(ctx context.Context) ([]domain.CandidateSummary, error) {
	candidates, err := s.candidateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

// GetByID retrieves a candidate by their ID.
func (s *CandidateService) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	candidate, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("candidate", id)
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return candidate, nil
}

// Update applies a partial update to a candidate and recomputes the score
// average over whichever scores are present afterwards.
func (s *CandidateService) Update(ctx context.Context, id string, input UpdateCandidateInput) (*domain.Candidate, error) {
	candidate, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("candidate", id)
		}
		return nil, fmt.Errorf("get candidate for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		candidate.Name = *input.Name
	}
	if input.StudentID != nil {
		if *input.StudentID == "" {
			return nil, apperrors.InvalidInput("student id must not be empty")
		}
		candidate.StudentID = *input.StudentID
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		candidate.Email = *input.Email
	}
	if input.Phone != nil {
		candidate.Phone = *input.Phone
	}
	if input.Gender != nil {
		candidate.Gender = *input.Gender
	}
	if input.Religion != nil {
		candidate.Religion = *input.Religion
	}
	if input.Faculty != nil {
		candidate.Faculty = *input.Faculty
	}
	if input.StudyProgram != nil {
		candidate.StudyProgram = *input.StudyProgram
	}
	if input.Image != nil {
		candidate.Image = *input.Image
	}
	if input.Cohort != nil {
		candidate.Cohort = *input.Cohort
	}
	if input.Description != nil {
		candidate.Description = *input.Description
	}
	if input.LK1 != nil {
		candidate.LK1 = input.LK1
	}
	if input.LK2 != nil {
		candidate.LK2 = input.LK2
	}
	if input.SC != nil {
		candidate.SC = input.SC
	}
	if input.Activity != nil {
		candidate.Activity = input.Activity
	}

	candidate.Average = scoreAverage(candidate)

	if err := s.candidateRepo.Update(ctx, candidate); err != nil {
		return nil, fmt.Errorf("update candidate: %w", err)
	}

	s.logger.InfoContext(ctx, "candidate updated",
		slog.String("candidate_id", candidate.ID),
	)

	return candidate, nil
}

// Delete removes a candidate.
func (s *CandidateService) Delete(ctx context.Context, id string) error {
	if err := s.candidateRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("candidate", id)
		}
		return fmt.Errorf("delete candidate: %w", err)
	}

	s.logger.InfoContext(ctx, "candidate deleted",
		slog.String("candidate_id", id),
	)

	return nil
}

// Decide records a terminal decision on a candidate. Acceptance promotes the
// candidate into a member account with the next registration number and a
// generated initial password delivered by email; rejection sends a rejection
// notice.
func (s *CandidateService) Decide(ctx context.Context, id, approval string) (*domain.Candidate, error) {
	if !domain.IsDecision(approval) {
		return nil, apperrors.InvalidInput("approval must be Accepted or Rejected")
	}

	candidate, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("candidate", id)
		}
		return nil, fmt.Errorf("get candidate for decision: %w", err)
	}

	now := time.Now().UTC()

	var (
		member          *domain.User
		initialPassword string
	)
	if approval == domain.ApprovalAccepted {
		member, initialPassword, err = s.promote(ctx, candidate, now)
		if err != nil {
			return nil, err
		}
	}

	if err := s.candidateRepo.UpdateApproval(ctx, candidate.ID, approval, now); err != nil {
		return nil, fmt.Errorf("update candidate approval: %w", err)
	}
	candidate.Approval = approval
	candidate.DecidedAt = &now

	// Decision emails go out only after the approval is persisted, so a
	// transport failure never leaves the decision unrecorded.
	switch approval {
	case domain.ApprovalAccepted:
		body := fmt.Sprintf(
			"Hello %s,\n\nCongratulations, you have been accepted as a member!\n\n"+
				"Your registration number is %s.\n\n"+
				"Sign in with your email address and this initial password: %s\n\n"+
				"Please change your password after your first login.",
			member.Name, member.NRA, initialPassword,
		)
		if err := s.mail.Send(ctx, member.Email, "Welcome Aboard", body); err != nil {
			return nil, apperrors.NotificationFailed(err)
		}
	case domain.ApprovalRejected:
		body := fmt.Sprintf(
			"Hello %s,\n\nThank you for applying. After reviewing your "+
				"recruitment results we are unable to offer you membership "+
				"this period. We encourage you to apply again next year.",
			candidate.Name,
		)
		if err := s.mail.Send(ctx, candidate.Email, "Recruitment Result", body); err != nil {
			return nil, apperrors.NotificationFailed(err)
		}
	}

	s.logger.InfoContext(ctx, "candidate decided",
		slog.String("candidate_id", candidate.ID),
		slog.String("approval", approval),
	)

	return candidate, nil
}

// ExportCSV writes the full candidate roster to w in CSV form.
func (s *CandidateService) ExportCSV(ctx context.Context, w io.Writer) error {
	candidates, err := s.candidateRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list candidates for export: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{
		"name", "student_id", "email", "phone", "gender", "religion",
		"faculty", "study_program", "cohort",
		"lk1", "lk2", "sc", "activity", "average", "approval",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, c := range candidates {
		record := []string{
			c.Name, c.StudentID, c.Email, c.Phone, c.Gender, c.Religion,
			c.Faculty, c.StudyProgram, c.Cohort,
			formatScore(c.LK1), formatScore(c.LK2), formatScore(c.SC),
			formatScore(c.Activity), formatScore(c.Average), c.Approval,
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

// promote turns an accepted candidate into a member account and returns the
// new member along with the generated initial password. The caller sends the
// credentials email after the approval write has been persisted.
func (s *CandidateService) promote(ctx context.Context, candidate *domain.Candidate, now time.Time) (*domain.User, string, error) {
	_, err := s.userRepo.GetByEmail(ctx, candidate.Email)
	if err == nil {
		return nil, "", apperrors.AlreadyExists("user", "email", candidate.Email)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", fmt.Errorf("check existing user: %w", err)
	}

	maxSeq, err := s.userRepo.MaxNRASequence(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("next nra sequence: %w", err)
	}
	nra := formatNRA(maxSeq+1, now.Year())

	password, err := randomPassword(initialPasswordLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate initial password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash initial password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		NRA:          nra,
		Name:         candidate.Name,
		StudentID:    candidate.StudentID,
		Email:        candidate.Email,
		PasswordHash: string(hash),
		Phone:        candidate.Phone,
		Gender:       candidate.Gender,
		Religion:     candidate.Religion,
		Faculty:      candidate.Faculty,
		StudyProgram: candidate.StudyProgram,
		Image:        candidate.Image,
		Cohort:       candidate.Cohort,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user from candidate: %w", err)
	}

	s.logger.InfoContext(ctx, "candidate promoted",
		slog.String("candidate_id", candidate.ID),
		slog.String("user_id", user.ID),
		slog.String("nra", user.NRA),
	)

	return user, password, nil
}

// scoreAverage returns the mean of the scores that are present, or nil when
// none are.
func scoreAverage(c *domain.Candidate) *float64 {
	var sum float64
	var n int
	for _, score := range []*float64{c.LK1, c.LK2, c.SC, c.Activity} {
		if score != nil {
			sum += *score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// formatScore renders a nullable score for CSV output.
func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

// randomPassword generates a cryptographically random alphanumeric password.
func randomPassword(length int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, length)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
