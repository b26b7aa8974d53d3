package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/ukmik/membership-service/pkg/errors"

	"github.com/ukmik/membership-service/internal/auth"
	"github.com/ukmik/membership-service/internal/domain"
	"github.com/ukmik/membership-service/internal/mailer"
	"github.com/ukmik/membership-service/internal/repository"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 10

// resetTokenLength is the length of the opaque password reset token.
const resetTokenLength = 21

// Messages returned by the forgot-password flow.
const (
	MsgResetEmailSent   = "Email with password reset link has been sent."
	MsgResetterCooldown = "Wait 5 minutes to resend the email"
)

// AuthService implements the credential lifecycle: login, token rotation,
// logout, password change and password reset.
type AuthService struct {
	userRepo  repository.UserRepository
	resetRepo repository.PasswordResetRepository
	tokens    *auth.TokenManager
	mail      mailer.Mailer

	resetTTL     time.Duration
	resetBaseURL string
	logger       *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	tokens *auth.TokenManager,
	mail mailer.Mailer,
	resetTTL time.Duration,
	resetBaseURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		resetRepo:    resetRepo,
		tokens:       tokens,
		mail:         mail,
		resetTTL:     resetTTL,
		resetBaseURL: resetBaseURL,
		logger:       logger,
	}
}

// Login authenticates by email and password and opens a session. Every
// failure mode returns the same AccessDenied error so a caller cannot tell a
// missing account from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.AccessDenied()
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.AccessDenied()
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return pair, nil
}

// Logout closes the user's session by clearing the stored refresh token
// hash. Logging out an already logged-out account succeeds.
func (s *AuthService) Logout(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, apperrors.Unauthenticated("missing caller identity")
	}

	if err := s.userRepo.ClearRefreshTokenHash(ctx, userID); err != nil {
		return false, fmt.Errorf("clear refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
	)

	return true, nil
}

// Refresh rotates the session token pair. The caller has already verified
// the refresh token's signature; here the token is matched against the
// stored hash and swapped atomically, so of two concurrent refreshes with
// the same token exactly one wins and the other is denied.
func (s *AuthService) Refresh(ctx context.Context, userID, refreshToken string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.AccessDenied()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.RefreshTokenHash == nil {
		return nil, apperrors.AccessDenied()
	}

	if err := compareRefreshToken(*user.RefreshTokenHash, refreshToken); err != nil {
		return nil, apperrors.AccessDenied()
	}

	accessToken, newRefreshToken, err := s.tokens.IssuePair(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}

	newHash, err := hashRefreshToken(newRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}

	err = s.userRepo.ReplaceRefreshTokenHash(ctx, user.ID, *user.RefreshTokenHash, newHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The slot changed between read and swap: a concurrent
			// refresh or logout won.
			return nil, apperrors.AccessDenied()
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "session refreshed",
		slog.String("user_id", user.ID),
	)

	return &domain.TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// ChangePassword replaces the password of the authenticated user after
// verifying the current one. The active session, if any, stays valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if userID == "" {
		return apperrors.Unauthenticated("missing caller identity")
	}
	if oldPassword == "" {
		return apperrors.InvalidInput("old password is required")
	}
	if newPassword == "" {
		return apperrors.InvalidInput("new password is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperrors.InvalidCredential("old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ForgotPassword issues a time-boxed reset token and emails a reset link.
// A live token enforces a cooldown: no new token is issued until the current
// one expires, and the caller is told to wait. An expired token is replaced.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperrors.InvalidInput("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NotFound("user", email)
		}
		return "", fmt.Errorf("get user by email: %w", err)
	}

	now := time.Now().UTC()

	existing, err := s.resetRepo.GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		if !existing.Expired(now) {
			return MsgResetterCooldown, nil
		}
		if err := s.resetRepo.DeleteByUserID(ctx, user.ID); err != nil {
			return "", fmt.Errorf("delete expired reset token: %w", err)
		}
	case errors.Is(err, apperrors.ErrNotFound):
		// No grant yet.
	default:
		return "", fmt.Errorf("get reset token: %w", err)
	}

	reset := &domain.PasswordReset{
		Token:      newResetToken(),
		UserID:     user.ID,
		ValidUntil: now.Add(s.resetTTL),
		CreatedAt:  now,
	}

	if err := s.resetRepo.Create(ctx, reset); err != nil {
		// A concurrent request inserted a grant between the lookup and this
		// insert; the unique user_id row keeps the single-grant invariant,
		// and the loser gets the same answer as any other live grant.
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return MsgResetterCooldown, nil
		}
		return "", fmt.Errorf("create reset token: %w", err)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for your account. "+
			"Open the link below within %d minutes to choose a new password:\n\n%s/%s\n\n"+
			"If you did not request this, you can ignore this email.",
		user.Name, int(s.resetTTL.Minutes()), s.resetBaseURL, reset.Token,
	)
	if err := s.mail.Send(ctx, user.Email, "Password Reset", body); err != nil {
		// The grant stays in place; only the notification failed.
		return "", apperrors.NotificationFailed(err)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return MsgResetEmailSent, nil
}

// ResetPassword consumes a reset token and sets a new password. The token is
// deleted in the same statement that validates it, so it works at most once
// even under concurrent attempts.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if token == "" {
		return apperrors.InvalidInput("reset token is required")
	}
	if newPassword == "" {
		return apperrors.InvalidInput("new password is required")
	}
	if newPassword != confirmPassword {
		return apperrors.InvalidInput("password confirmation does not match")
	}

	userID, err := s.resetRepo.Consume(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("password reset token", token)
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", userID),
	)

	return nil
}

// --- Helpers ---

// openSession issues a token pair and stores the refresh token hash,
// overwriting any previous session.
func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, refreshToken, err := s.tokens.IssuePair(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}

	hash, err := hashRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}

	if err := s.userRepo.SetRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// digestToken reduces a token to its sha256 hex digest. bcrypt rejects
// inputs over 72 bytes and JWTs always exceed that, so the digest is what
// gets bcrypt-hashed and compared.
func digestToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}

// hashRefreshToken returns the bcrypt hash of the token digest.
func hashRefreshToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(digestToken(token), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// compareRefreshToken checks a presented token against a stored hash.
func compareRefreshToken(hash, token string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), digestToken(token))
}

// newResetToken generates the opaque reset token: a UUID with the hyphens
// stripped, truncated to 21 characters.
func newResetToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:resetTokenLength]
}
