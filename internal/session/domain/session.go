package domain

import "time"

// Session is the server-side record behind an issued token. ID doubles as the token's only claim.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time // the session is invalid at or after this instant
	Payload   string    // serialized identity snapshot; replaced wholesale on refresh
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
