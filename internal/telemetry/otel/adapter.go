package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"session-token-service/internal/audit/domain"
	"session-token-service/internal/audit/producer"
)

const auditScope = "session-token-service.audit"

// recordEmitter is the subset of otellog.Logger the audit emitter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewAuditEmitter returns a producer that sends audit events as OTel log records via the given LoggerProvider.
// If provider is nil, returns nil so the audit logger skips it.
func NewAuditEmitter(provider *sdklog.LoggerProvider) producer.Producer {
	if provider == nil {
		return nil
	}
	return &auditEmitter{logger: provider.Logger(auditScope)}
}

type auditEmitter struct {
	logger recordEmitter
}

// Publish converts the audit event to an OTel log record and emits it.
func (e *auditEmitter) Publish(ctx context.Context, event *domain.SysLog) error {
	if event == nil {
		return nil
	}
	e.logger.Emit(ctx, auditRecord(event))
	return nil
}

// Close is a no-op; the LoggerProvider is shut down with the other providers.
func (e *auditEmitter) Close() error { return nil }

func auditRecord(event *domain.SysLog) otellog.Record {
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetBody(otellog.StringValue(event.Action))
	if event.Success {
		rec.SetSeverity(otellog.SeverityInfo)
	} else {
		rec.SetSeverity(otellog.SeverityWarn)
	}
	rec.AddAttributes(
		otellog.String("audit.id", event.ID),
		otellog.String("audit.action", event.Action),
		otellog.Bool("audit.success", event.Success),
		otellog.String("client.ip", event.IP),
	)
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.Detail != "" {
		rec.AddAttributes(otellog.String("audit.detail", event.Detail))
	}
	return rec
}
