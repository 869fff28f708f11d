package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"session-token-service/internal/audit/domain"
)

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec   otellog.Record
	calls int
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
	r.calls++
}

func recordAttrs(rec otellog.Record) map[string]otellog.Value {
	out := make(map[string]otellog.Value)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestNewAuditEmitter_NilProvider(t *testing.T) {
	if p := NewAuditEmitter(nil); p != nil {
		t.Errorf("NewAuditEmitter(nil) = %v, want nil", p)
	}
}

func TestNewAuditEmitter_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewAuditEmitter(provider)
	if em == nil {
		t.Fatal("NewAuditEmitter returned nil")
	}
	if err := em.Publish(context.Background(), &domain.SysLog{ID: "1", Action: domain.ActionLogin}); err != nil {
		t.Errorf("Publish: %v", err)
	}
	if err := em.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestAuditEmitter_NilEvent(t *testing.T) {
	cap := &recordCapture{}
	em := &auditEmitter{logger: cap}
	if err := em.Publish(context.Background(), nil); err != nil {
		t.Errorf("Publish(nil): %v", err)
	}
	if cap.calls != 0 {
		t.Error("nil event should not be emitted")
	}
}

func TestAuditEmitter_AttributeMapping(t *testing.T) {
	cap := &recordCapture{}
	em := &auditEmitter{logger: cap}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &domain.SysLog{
		ID:        "log-1",
		UserID:    "user-1",
		Action:    domain.ActionLogout,
		Success:   true,
		Detail:    "manual",
		IP:        "10.0.0.2",
		CreatedAt: at,
	}
	if err := em.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if !cap.rec.Timestamp().Equal(at) {
		t.Errorf("timestamp = %v, want %v", cap.rec.Timestamp(), at)
	}
	if cap.rec.Body().AsString() != domain.ActionLogout {
		t.Errorf("body = %q, want %q", cap.rec.Body().AsString(), domain.ActionLogout)
	}
	if cap.rec.Severity() != otellog.SeverityInfo {
		t.Errorf("severity = %v, want info", cap.rec.Severity())
	}
	attrs := recordAttrs(cap.rec)
	want := map[string]string{
		"audit.id":     "log-1",
		"audit.action": domain.ActionLogout,
		"client.ip":    "10.0.0.2",
		"user_id":      "user-1",
		"audit.detail": "manual",
	}
	for k, v := range want {
		if got := attrs[k].AsString(); got != v {
			t.Errorf("attr %s = %q, want %q", k, got, v)
		}
	}
	if !attrs["audit.success"].AsBool() {
		t.Error("audit.success should be true")
	}
}

func TestAuditEmitter_FailureAndDefaults(t *testing.T) {
	cap := &recordCapture{}
	em := &auditEmitter{logger: cap}
	before := time.Now().Add(-time.Second)
	if err := em.Publish(context.Background(), &domain.SysLog{ID: "log-2", Action: domain.ActionLogin}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if cap.rec.Severity() != otellog.SeverityWarn {
		t.Errorf("severity = %v, want warn", cap.rec.Severity())
	}
	if cap.rec.Timestamp().Before(before) {
		t.Errorf("zero CreatedAt should default to now, got %v", cap.rec.Timestamp())
	}
	attrs := recordAttrs(cap.rec)
	if _, ok := attrs["user_id"]; ok {
		t.Error("empty user_id should not be set")
	}
	if _, ok := attrs["audit.detail"]; ok {
		t.Error("empty detail should not be set")
	}
}
