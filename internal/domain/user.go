package domain

import (
	"time"
)

// User status constants.
const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

// User represents a full member of the organization. Accepted candidates are
// promoted into this table with a generated NRA and an initial random password.
type User struct {
	ID           string    `json:"id"`
	NRA          string    `json:"nra"`
	Name         string    `json:"name"`
	StudentID    string    `json:"student_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Religion     string    `json:"religion,omitempty"`
	Faculty      string    `json:"faculty,omitempty"`
	StudyProgram string    `json:"study_program,omitempty"`
	Image        string    `json:"image,omitempty"`
	Cohort       string    `json:"cohort,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// RefreshTokenHash holds the bcrypt hash of the most recently issued
	// refresh token, or nil when no session is active. A single slot per
	// account: a new login overwrites it and invalidates the prior session.
	RefreshTokenHash *string `json:"-"`
}

// UserSummary is the trimmed projection returned by list endpoints.
type UserSummary struct {
	ID           string `json:"id"`
	NRA          string `json:"nra"`
	Name         string `json:"name"`
	StudentID    string `json:"student_id"`
	StudyProgram string `json:"study_program,omitempty"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
