// Package health reports service readiness for the HTTP and gRPC health endpoints.
package health

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single readiness check.
const DefaultTimeout = 3 * time.Second

// Pinger is used for database readiness (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is used for policy engine readiness (e.g. the OPA scope evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs the readiness probes. Nil dependencies are skipped.
type Checker struct {
	pinger  Pinger
	policy  PolicyChecker
	timeout time.Duration
}

// NewChecker returns a Checker. Either argument may be nil.
func NewChecker(pinger Pinger, policy PolicyChecker) *Checker {
	return &Checker{pinger: pinger, policy: policy, timeout: DefaultTimeout}
}

// Check returns nil when every configured dependency is ready, otherwise the first failure.
func (c *Checker) Check(ctx context.Context) error {
	if c == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if c.pinger != nil {
		if err := c.pinger.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return fmt.Errorf("policy engine: %w", err)
		}
	}
	return nil
}
