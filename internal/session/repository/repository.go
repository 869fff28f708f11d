package repository

import (
	"context"
	"errors"
	"time"

	"session-token-service/internal/session/domain"
)

// ErrSessionExists is returned by Save when a record with the same id is already stored.
var ErrSessionExists = errors.New("session: id already exists")

// Repository defines persistence for session records.
//
// GetByID treats a record as absent once now >= ExpiresAt, so expiry is enforced by the store
// no matter whether expired rows have been purged yet.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	// Update overwrites an unexpired record and reports whether one was there. A missing or
	// expired record yields (false, nil).
	Update(ctx context.Context, s *domain.Session) (bool, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes records with ExpiresAt <= before and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Clock returns the current time. Repositories use it for the expiry predicate.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
