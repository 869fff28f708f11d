// Package health keeps the standard gRPC health service in step with the backing stores.
package health

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Checker pings every dependency and publishes the overall status on the health server.
type Checker struct {
	hs      *health.Server
	pingers map[string]Pinger
	log     *slog.Logger
}

// NewChecker returns a Checker for the named pingers. log nil means slog.Default().
func NewChecker(hs *health.Server, pingers map[string]Pinger, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{hs: hs, pingers: pingers, log: log}
}

// Check pings all dependencies, updates the overall ("") service status and returns it.
// With no pingers the service is always SERVING.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	names := make([]string, 0, len(c.pingers))
	for name := range c.pingers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := c.pingers[name].PingContext(pingCtx)
		cancel()
		if err != nil {
			c.log.WarnContext(ctx, "health: dependency unreachable", "dependency", name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	c.hs.SetServingStatus("", status)
	return status
}

// Run checks immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
