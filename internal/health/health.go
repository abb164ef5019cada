// Package health checks the console's backing services and reports them over gRPC and HTTP.
package health

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// checkTimeout bounds each dependency ping.
const checkTimeout = 2 * time.Second

// Pinger is a dependency that can be probed (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Checker probes registered dependencies. The zero value has none and is always healthy.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]Pinger
}

// NewChecker returns an empty Checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Pinger)}
}

// Add registers p under name. A nil p is ignored.
func (c *Checker) Add(name string, p Pinger) {
	if p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checks == nil {
		c.checks = make(map[string]Pinger)
	}
	c.checks[name] = p
}

// Report is the outcome of one Check.
type Report struct {
	Status string `json:"status"`
	// Failures maps dependency name to its error text.
	Failures map[string]string `json:"failures,omitempty"`
}

// Healthy reports whether every dependency answered.
func (r Report) Healthy() bool { return len(r.Failures) == 0 }

// Check pings every dependency in name order, each under its own timeout.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for n := range c.checks {
		names = append(names, n)
	}
	checks := make(map[string]Pinger, len(c.checks))
	for n, p := range c.checks {
		checks[n] = p
	}
	c.mu.RUnlock()
	sort.Strings(names)

	rep := Report{Status: "ok"}
	for _, n := range names {
		pctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checks[n].PingContext(pctx)
		cancel()
		if err != nil {
			if rep.Failures == nil {
				rep.Failures = make(map[string]string)
			}
			rep.Failures[n] = err.Error()
		}
	}
	if !rep.Healthy() {
		rep.Status = "degraded"
	}
	return rep
}

// Watch runs Check every interval and mirrors the result into srv for the overall ("") service
// until ctx is done. The first check runs immediately.
func (c *Checker) Watch(ctx context.Context, srv *health.Server, interval time.Duration) {
	update := func() {
		rep := c.Check(ctx)
		st := healthpb.HealthCheckResponse_SERVING
		if !rep.Healthy() {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			log.Printf("health: degraded: %v", rep.Failures)
		}
		srv.SetServingStatus("", st)
	}
	update()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			update()
		}
	}
}
