package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"session-token-service/internal/audit/domain"
	"session-token-service/internal/audit/producer"
	auditrepo "session-token-service/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. Used by the session lifecycle.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action string, success bool, detail string)
}

// Logger implements AuditLogger using the audit repository, optional producers and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	producers   []producer.Producer
	ipExtractor IPExtractor
	log         *slog.Logger
	now         func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithProducer adds a producer that receives every event after it is persisted. Nil producers are ignored.
func WithProducer(p producer.Producer) Option {
	return func(l *Logger) {
		if p != nil {
			l.producers = append(l.producers, p)
		}
	}
}

// WithIPExtractor sets how the client IP is read from the request context.
func WithIPExtractor(fn IPExtractor) Option {
	return func(l *Logger) { l.ipExtractor = fn }
}

// WithSlog sets the logger used to report audit write failures.
func WithSlog(log *slog.Logger) Option {
	return func(l *Logger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLogger returns an AuditLogger that persists to repo. repo may be nil when only producers are wired.
// Without an IP extractor the IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, opts ...Option) *Logger {
	l := &Logger{repo: repo, log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action string, success bool, detail string) {
	if l == nil || (l.repo == nil && len(l.producers) == 0) {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.SysLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Success:   success,
		Detail:    detail,
		IP:        ip,
		CreatedAt: l.now().UTC(),
	}
	if l.repo != nil {
		if err := l.repo.Create(ctx, entry); err != nil {
			l.log.ErrorContext(ctx, "audit: failed to persist event", "action", action, "user_id", userID, "error", err)
		}
	}
	for _, p := range l.producers {
		if err := p.Publish(ctx, entry); err != nil {
			l.log.WarnContext(ctx, "audit: failed to publish event", "action", action, "user_id", userID, "error", err)
		}
	}
}

// Close closes every producer. Returns the last error.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var lastErr error
	for _, p := range l.producers {
		if err := p.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
