package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "session-token-service/session"

// Rejection reasons recorded on session.tokens.rejected.
const (
	ReasonInvalid = "invalid"
	ReasonExpired = "expired"
)

// SessionMetrics holds the counters for the session lifecycle.
type SessionMetrics struct {
	logins    metric.Int64Counter
	refreshes metric.Int64Counter
	logouts   metric.Int64Counter
	rejected  metric.Int64Counter
	purged    metric.Int64Counter
}

// NewSessionMetrics creates the session counters from mp. If mp is nil the global MeterProvider is used.
func NewSessionMetrics(mp metric.MeterProvider) (*SessionMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	m := &SessionMetrics{}
	var err error
	if m.logins, err = meter.Int64Counter("session.logins", metric.WithDescription("Sessions created by login.")); err != nil {
		return nil, err
	}
	if m.refreshes, err = meter.Int64Counter("session.refreshes", metric.WithDescription("Sessions refreshed.")); err != nil {
		return nil, err
	}
	if m.logouts, err = meter.Int64Counter("session.logouts", metric.WithDescription("Sessions removed by logout.")); err != nil {
		return nil, err
	}
	if m.rejected, err = meter.Int64Counter("session.tokens.rejected", metric.WithDescription("Presented tokens that failed verification.")); err != nil {
		return nil, err
	}
	if m.purged, err = meter.Int64Counter("session.purged", metric.WithDescription("Expired sessions deleted by the purge worker.")); err != nil {
		return nil, err
	}
	return m, nil
}

// Login records one successful login. All record methods are safe on a nil receiver.
func (m *SessionMetrics) Login(ctx context.Context) {
	if m != nil {
		m.logins.Add(ctx, 1)
	}
}

func (m *SessionMetrics) Refresh(ctx context.Context) {
	if m != nil {
		m.refreshes.Add(ctx, 1)
	}
}

func (m *SessionMetrics) Logout(ctx context.Context) {
	if m != nil {
		m.logouts.Add(ctx, 1)
	}
}

// TokenRejected records a token that failed verification with the given reason.
func (m *SessionMetrics) TokenRejected(ctx context.Context, reason string) {
	if m != nil {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m *SessionMetrics) Purged(ctx context.Context, n int64) {
	if m != nil && n > 0 {
		m.purged.Add(ctx, n)
	}
}
