package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "membership-service"

// Claims represents the identity claims carried by both token kinds. Access
// and refresh tokens carry the same claims but are signed with distinct
// secrets and expiries.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies access/refresh token pairs. It is a pure
// function of its secret configuration and inputs; all state lives with the
// caller.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenManager creates a token manager with distinct secrets per token kind.
func NewTokenManager(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// IssuePair creates a signed access/refresh token pair carrying the given
// identity.
func (m *TokenManager) IssuePair(userID, email, name string) (accessToken, refreshToken string, err error) {
	accessToken, err = m.sign(userID, email, name, m.accessSecret, m.accessExpiry)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err = m.sign(userID, email, name, m.refreshSecret, m.refreshExpiry)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (m *TokenManager) sign(userID, email, name string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique jti per token: iat/exp have second granularity, so
			// without it two tokens signed within the same second would be
			// byte-identical and rotation could reissue the spent token.
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Issuer:    issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess parses and validates an access token, returning its claims.
func (m *TokenManager) VerifyAccess(tokenString string) (*Claims, error) {
	return m.verify(tokenString, m.accessSecret)
}

// VerifyRefresh parses and validates a refresh token, returning its claims.
func (m *TokenManager) VerifyRefresh(tokenString string) (*Claims, error) {
	return m.verify(tokenString, m.refreshSecret)
}

func (m *TokenManager) verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// DecodeUnverified extracts claims without verifying the signature or expiry.
// It returns nil on malformed input and never panics. Callers must not make
// authorization decisions from the result; identity is only trusted after
// VerifyAccess or VerifyRefresh.
func (m *TokenManager) DecodeUnverified(tokenString string) *Claims {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}
