// Package service implements the session lifecycle: login, refresh, identity lookup and logout.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"session-token-service/internal/audit"
	auditdomain "session-token-service/internal/audit/domain"
	identitydomain "session-token-service/internal/identity/domain"
	"session-token-service/internal/security"
	"session-token-service/internal/session/domain"
	sessionrepo "session-token-service/internal/session/repository"
	telemetry "session-token-service/internal/telemetry/otel"
)

const (
	tracerName = "session-token-service/session"
	// sessionIDBytes is the entropy of a session id (256 bits).
	sessionIDBytes = 32
)

// TokenCodec is the token encoder/decoder used by the manager. *security.TokenCodec implements it.
type TokenCodec interface {
	Encode(sessionID string) (string, error)
	Decode(token string) (string, error)
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string
	LoginTime   time.Time
	ExpireTime  time.Time
}

// Manager issues, refreshes, resolves and revokes session tokens backed by server-side session records.
type Manager struct {
	repo     sessionrepo.Repository
	codec    TokenCodec
	ttl      time.Duration
	auditLog audit.AuditLogger
	metrics  *telemetry.SessionMetrics
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
	newID    func() (string, error)
}

// NewManager returns a Manager with the given dependencies. auditLog and metrics may be nil.
// log nil means slog.Default(). ttl must be positive.
func NewManager(
	repo sessionrepo.Repository,
	codec TokenCodec,
	ttl time.Duration,
	auditLog audit.AuditLogger,
	metrics *telemetry.SessionMetrics,
	log *slog.Logger,
) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		repo:     repo,
		codec:    codec,
		ttl:      ttl,
		auditLog: auditLog,
		metrics:  metrics,
		log:      log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		newID:    newSessionID,
	}
}

// Login creates a session for user and returns a token referencing it.
// It sets SessionID, LoginTime and ExpireTime on user before the snapshot is stored.
// The caller must have rejected locked or disabled accounts already.
func (m *Manager) Login(ctx context.Context, user *identitydomain.LoginUser) (*Token, error) {
	ctx, span := m.tracer.Start(ctx, "session.Login")
	defer span.End()
	if user == nil {
		return nil, ErrInvalidIdentity
	}

	id, err := m.newID()
	if err != nil {
		return nil, endSpan(span, fmt.Errorf("generate session id: %w", err))
	}
	token, err := m.codec.Encode(id)
	if err != nil {
		return nil, endSpan(span, err)
	}

	now := m.now().UTC()
	user.SessionID = id
	user.LoginTime = now
	user.ExpireTime = now.Add(m.ttl)
	payload, err := json.Marshal(user)
	if err != nil {
		return nil, endSpan(span, fmt.Errorf("serialize identity: %w", err))
	}
	sess := &domain.Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: user.ExpireTime,
		Payload:   string(payload),
	}
	if err := m.repo.Save(ctx, sess); err != nil {
		if errors.Is(err, sessionrepo.ErrSessionExists) {
			return nil, endSpan(span, fmt.Errorf("save session: %w", err))
		}
		return nil, endSpan(span, storeError("save", err))
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	m.audit(ctx, user.ID, auditdomain.ActionLogin)
	m.metrics.Login(ctx)
	return &Token{AccessToken: token, LoginTime: now, ExpireTime: user.ExpireTime}, nil
}

// Refresh extends the session referenced by user.SessionID to now + ttl and replaces its stored
// snapshot with user. No new token is issued. Returns ErrSessionNotFound if the session is gone.
// Concurrent refreshes of one session are last-write-wins on expiry and payload.
func (m *Manager) Refresh(ctx context.Context, user *identitydomain.LoginUser) error {
	ctx, span := m.tracer.Start(ctx, "session.Refresh")
	defer span.End()
	if user == nil || user.SessionID == "" {
		return ErrSessionNotFound
	}

	sess, err := m.repo.GetByID(ctx, user.SessionID)
	if err != nil {
		return endSpan(span, storeError("get", err))
	}
	if sess == nil {
		return ErrSessionNotFound
	}

	now := m.now().UTC()
	user.LoginTime = now
	user.ExpireTime = now.Add(m.ttl)
	payload, err := json.Marshal(user)
	if err != nil {
		return endSpan(span, fmt.Errorf("serialize identity: %w", err))
	}
	sess.UpdatedAt = now
	sess.ExpiresAt = user.ExpireTime
	sess.Payload = string(payload)
	found, err := m.repo.Update(ctx, sess)
	if err != nil {
		return endSpan(span, storeError("update", err))
	}
	if !found {
		// logged out or expired since the read
		return ErrSessionNotFound
	}
	m.metrics.Refresh(ctx)
	return nil
}

// GetIdentity resolves token to the identity stored in its session.
// Blank, invalid or expired tokens and missing sessions yield (nil, nil); invalid and expired
// tokens are logged. Store failures are returned wrapped in ErrStoreUnavailable.
func (m *Manager) GetIdentity(ctx context.Context, token string) (*identitydomain.LoginUser, error) {
	ctx, span := m.tracer.Start(ctx, "session.GetIdentity")
	defer span.End()

	id, err := m.decode(ctx, "GetIdentity", token)
	if err != nil || id == "" {
		return nil, endSpan(span, err)
	}
	sess, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, endSpan(span, storeError("get", err))
	}
	if sess == nil {
		return nil, nil
	}
	var user identitydomain.LoginUser
	if err := json.Unmarshal([]byte(sess.Payload), &user); err != nil {
		return nil, endSpan(span, fmt.Errorf("decode session payload: %w", err))
	}
	return &user, nil
}

// Logout deletes the session referenced by token. It returns false when the token carries no
// session or the session is already gone, so a second logout with the same token returns false.
func (m *Manager) Logout(ctx context.Context, token string) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "session.Logout")
	defer span.End()

	id, err := m.decode(ctx, "Logout", token)
	if err != nil || id == "" {
		return false, endSpan(span, err)
	}
	sess, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return false, endSpan(span, storeError("get", err))
	}
	if sess == nil {
		return false, nil
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		return false, endSpan(span, storeError("delete", err))
	}

	userID := ""
	var user identitydomain.LoginUser
	if json.Unmarshal([]byte(sess.Payload), &user) == nil {
		userID = user.ID
	}
	m.audit(ctx, userID, auditdomain.ActionLogout)
	m.metrics.Logout(ctx)
	return true, nil
}

// PurgeExpired deletes sessions that expired at or before now and returns how many were removed.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, span := m.tracer.Start(ctx, "session.PurgeExpired")
	defer span.End()

	n, err := m.repo.DeleteExpired(ctx, m.now().UTC())
	if err != nil {
		return 0, endSpan(span, storeError("delete expired", err))
	}
	span.SetAttributes(attribute.Int64("session.purged", n))
	m.metrics.Purged(ctx, n)
	return n, nil
}

// decode maps invalid and expired tokens to "no session" after logging them.
// Only key configuration failures are returned. op names the calling operation in the log.
func (m *Manager) decode(ctx context.Context, op, token string) (string, error) {
	id, err := m.codec.Decode(token)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, security.ErrExpiredToken):
		m.log.WarnContext(ctx, "session token expired", "op", op, "reason", telemetry.ReasonExpired)
		m.metrics.TokenRejected(ctx, telemetry.ReasonExpired)
		return "", nil
	case errors.Is(err, security.ErrInvalidToken):
		m.log.WarnContext(ctx, "session token rejected", "op", op, "reason", telemetry.ReasonInvalid, "error", err)
		m.metrics.TokenRejected(ctx, telemetry.ReasonInvalid)
		return "", nil
	default:
		return "", err
	}
}

func (m *Manager) audit(ctx context.Context, userID, action string) {
	if m.auditLog == nil {
		return
	}
	m.auditLog.LogEvent(ctx, userID, action, true, "")
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// endSpan records err on span and returns it unchanged.
func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// newSessionID returns a base64url-encoded random id.
func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
