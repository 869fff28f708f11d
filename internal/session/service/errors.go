package service

import "errors"

// Sentinel errors for the session lifecycle; callers match them with errors.Is.
var (
	// ErrSessionNotFound is returned by Refresh when the referenced session is gone or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreUnavailable wraps every failure of the session store. Calls are not retried.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrInvalidIdentity is returned by Login when no identity is given.
	ErrInvalidIdentity = errors.New("identity is required")
)
