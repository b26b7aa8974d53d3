package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/ukmik/membership-service/internal/auth"
	"github.com/ukmik/membership-service/internal/domain"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserSummary), args.Error(1)
}

func (m *mockUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepository) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *mockUserRepository) ClearRefreshTokenHash(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) ReplaceRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) error {
	args := m.Called(ctx, id, oldHash, newHash)
	return args.Error(0)
}

func (m *mockUserRepository) MaxNRASequence(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- Mock Candidate Repository ---

type mockCandidateRepository struct {
	mock.Mock
}

func (m *mockCandidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

func (m *mockCandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *mockCandidateRepository) List(ctx context.Context) ([]domain.CandidateSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CandidateSummary), args.Error(1)
}

func (m *mockCandidateRepository) ListAll(ctx context.Context) ([]domain.Candidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *mockCandidateRepository) Update(ctx context.Context, candidate *domain.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

func (m *mockCandidateRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCandidateRepository) UpdateApproval(ctx context.Context, id, approval string, decidedAt time.Time) error {
	args := m.Called(ctx, id, approval, decidedAt)
	return args.Error(0)
}

// --- Mock Password Reset Repository ---

type mockPasswordResetRepository struct {
	mock.Mock
}

func (m *mockPasswordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	args := m.Called(ctx, reset)
	return args.Error(0)
}

func (m *mockPasswordResetRepository) GetByUserID(ctx context.Context, userID string) (*domain.PasswordReset, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PasswordReset), args.Error(1)
}

func (m *mockPasswordResetRepository) DeleteByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockPasswordResetRepository) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	args := m.Called(ctx, token, now)
	return args.String(0), args.Error(1)
}

// --- Mock Mailer ---

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(
		"test-access-secret-for-testing",
		"test-refresh-secret-for-testing",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}

// refreshHashForTest hashes a refresh token the way openSession does, at
// cost 4 for speed.
func refreshHashForTest(token string) string {
	h, err := bcrypt.GenerateFromPassword(digestToken(token), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}
