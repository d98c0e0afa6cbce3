package domain

import "time"

// Session records one issued refresh token: its owner, validity window and
// revocation state. The raw token is never stored, only a one-way hash.
type Session struct {
	ID               int64
	UserID           int64
	RefreshTokenHash string
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil while the session is usable
	CreatedAt        time.Time
}

// Active reports whether the session can still match a presented refresh
// token at the given instant.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
