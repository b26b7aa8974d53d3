package domain

import (
	"time"
)

// PasswordReset is a single-use, time-boxed password recovery grant. At most
// one row exists per user; an expired row is deleted and replaced rather than
// reused.
type PasswordReset struct {
	Token      string    `json:"-"`
	UserID     string    `json:"user_id"`
	ValidUntil time.Time `json:"valid_until"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the grant is past its validity window at the given
// instant.
func (p *PasswordReset) Expired(now time.Time) bool {
	return p.ValidUntil.Before(now)
}
