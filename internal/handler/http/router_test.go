package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ukmik/membership-service/pkg/health"
	"github.com/ukmik/membership-service/pkg/httputil"

	"github.com/ukmik/membership-service/internal/auth"
	"github.com/ukmik/membership-service/internal/domain"
	"github.com/ukmik/membership-service/internal/service"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserSummary), args.Error(1)
}

func (m *mockUserRepo) ListAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *mockUserRepo) ClearRefreshTokenHash(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) ReplaceRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) error {
	args := m.Called(ctx, id, oldHash, newHash)
	return args.Error(0)
}

func (m *mockUserRepo) MaxNRASequence(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockCandidateRepo struct {
	mock.Mock
}

func (m *mockCandidateRepo) Create(ctx context.Context, candidate *domain.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

func (m *mockCandidateRepo) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *mockCandidateRepo) List(ctx context.Context) ([]domain.CandidateSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CandidateSummary), args.Error(1)
}

func (m *mockCandidateRepo) ListAll(ctx context.Context) ([]domain.Candidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *mockCandidateRepo) Update(ctx context.Context, candidate *domain.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

func (m *mockCandidateRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCandidateRepo) UpdateApproval(ctx context.Context, id, approval string, decidedAt time.Time) error {
	args := m.Called(ctx, id, approval, decidedAt)
	return args.Error(0)
}

type mockResetRepo struct {
	mock.Mock
}

func (m *mockResetRepo) Create(ctx context.Context, reset *domain.PasswordReset) error {
	args := m.Called(ctx, reset)
	return args.Error(0)
}

func (m *mockResetRepo) GetByUserID(ctx context.Context, userID string) (*domain.PasswordReset, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PasswordReset), args.Error(1)
}

func (m *mockResetRepo) DeleteByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockResetRepo) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	args := m.Called(ctx, token, now)
	return args.String(0), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// ============================================================================
// Test Helpers
// ============================================================================

func routerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testDeps struct {
	userRepo      *mockUserRepo
	candidateRepo *mockCandidateRepo
	resetRepo     *mockResetRepo
	mail          *mockMailer
	tokens        *auth.TokenManager
}

// setupRouter wires the full production router over mock repositories and a
// real token manager so auth middleware and signature checks run for real.
func setupRouter(t *testing.T) (http.Handler, *testDeps) {
	t.Helper()

	deps := &testDeps{
		userRepo:      new(mockUserRepo),
		candidateRepo: new(mockCandidateRepo),
		resetRepo:     new(mockResetRepo),
		mail:          new(mockMailer),
		tokens: auth.NewTokenManager(
			"test-access-secret-for-testing",
			"test-refresh-secret-for-testing",
			15*time.Minute,
			168*time.Hour,
		),
	}

	logger := routerTestLogger()
	authService := service.NewAuthService(
		deps.userRepo, deps.resetRepo, deps.tokens, deps.mail,
		5*time.Minute, "https://membership.example.com/reset-password", logger,
	)
	userService := service.NewUserService(deps.userRepo, logger)
	candidateService := service.NewCandidateService(deps.candidateRepo, deps.userRepo, deps.mail, logger)

	router := NewRouter(
		authService, userService, candidateService,
		deps.tokens, health.NewHandler(), logger,
		CORSConfig{Environment: "development"},
	)
	return router, deps
}

func doJSON(t *testing.T, router http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

const memberID = "550e8400-e29b-41d4-a716-446655440001"

// hashForTest bcrypt-hashes a password at minimum cost to keep tests fast.
func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// refreshHashForTest mirrors the session slot format: bcrypt over the hex
// sha256 digest of the raw refresh token.
func refreshHashForTest(t *testing.T, token string) *string {
	t.Helper()
	digest := sha256.Sum256([]byte(token))
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(digest[:])), bcrypt.MinCost)
	require.NoError(t, err)
	s := string(hash)
	return &s
}

func activeMember(t *testing.T) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           memberID,
		NRA:          "12/UKM_IK/XXIX/2024",
		Name:         "Jane Doe",
		StudentID:    "125410100",
		Email:        "jdoe@example.com",
		PasswordHash: hashForTest(t, "Secret123"),
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
