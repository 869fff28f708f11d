// Package service resolves directory accounts into the identity snapshot carried by a session.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"session-token-service/internal/identity/domain"
	userdomain "session-token-service/internal/user/domain"
)

// Sentinel errors for identity loading; callers must not log in the user when any is returned.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserLocked   = errors.New("user is locked")
	ErrUserDisabled = errors.New("user is disabled")
)

// UserRepo is the minimal user directory needed by the loader.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	ListPermissionsByUserID(ctx context.Context, userID string) ([]domain.Permission, error)
}

// Loader builds LoginUser snapshots from the user directory.
type Loader struct {
	users UserRepo
	log   *slog.Logger
}

// NewLoader returns a Loader backed by users. log nil means slog.Default().
func NewLoader(users UserRepo, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{users: users, log: log}
}

// LoadUserByUsername returns the identity for username with its permissions.
// Locked and disabled accounts are rejected before permissions are read.
func (l *Loader) LoadUserByUsername(ctx context.Context, username string) (*domain.LoginUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUserNotFound
	}
	u, err := l.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		l.log.InfoContext(ctx, "login user not found", "username", username)
		return nil, ErrUserNotFound
	}
	switch u.Status {
	case userdomain.UserStatusLocked:
		l.log.InfoContext(ctx, "login user locked", "username", username)
		return nil, ErrUserLocked
	case userdomain.UserStatusDisabled:
		l.log.InfoContext(ctx, "login user disabled", "username", username)
		return nil, ErrUserDisabled
	}
	perms, err := l.users.ListPermissionsByUserID(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	return &domain.LoginUser{
		ID:          u.ID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		Email:       u.Email,
		Phone:       u.Phone,
		Permissions: perms,
	}, nil
}
