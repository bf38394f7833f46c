package domain

import "time"

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

type Session struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// ValidAt reports whether the session can authenticate requests at now.
func (s Session) ValidAt(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}
