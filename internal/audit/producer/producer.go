// Package producer defines the interface for publishing audit events outside the database (e.g. to Kafka).
package producer

import (
	"context"

	"session-token-service/internal/audit/domain"
)

// Producer publishes audit events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Publish sends a single audit event. Implementations may block briefly.
	Publish(ctx context.Context, event *domain.SysLog) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
