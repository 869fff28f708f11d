package service

import (
	"context"

	identitydomain "session-token-service/internal/identity/domain"
)

// IdentityLoader resolves a username into an identity snapshot, rejecting accounts that may not
// log in. *identity/service.Loader implements it.
type IdentityLoader interface {
	LoadUserByUsername(ctx context.Context, username string) (*identitydomain.LoginUser, error)
}

// Authenticator opens sessions for directory users whose credentials were verified upstream.
type Authenticator struct {
	loader IdentityLoader
	mgr    *Manager
}

// NewAuthenticator returns an Authenticator that loads identities from loader and logs them in through mgr.
func NewAuthenticator(loader IdentityLoader, mgr *Manager) *Authenticator {
	return &Authenticator{loader: loader, mgr: mgr}
}

// Authenticate loads username from the directory and starts a session for it.
// Loader errors (unknown, locked or disabled user) are returned unchanged and no session is created.
func (a *Authenticator) Authenticate(ctx context.Context, username string) (*Token, *identitydomain.LoginUser, error) {
	user, err := a.loader.LoadUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidIdentity
	}
	tok, err := a.mgr.Login(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return tok, user, nil
}
