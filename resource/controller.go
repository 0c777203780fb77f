// Package resource bounds the load a search puts on reference backends.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resolve limits.
type Config struct {
	// MaxConcurrent is the maximum number of resolutions in flight across
	// all searches. If 0, unlimited.
	MaxConcurrent int64

	// RatePerSec is the sustained number of resolutions started per second.
	// If 0, unlimited.
	RatePerSec float64

	// Burst is the rate limiter's bucket size. Defaults to 1 when RatePerSec
	// is set.
	Burst int
}

// Controller gates resolutions. A nil *Controller admits everything.
type Controller struct {
	cfg Config

	sem      *semaphore.Weighted // nil if unlimited
	limiter  *rate.Limiter       // nil if unlimited
	inFlight atomic.Int64
	total    atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MaxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}

	if cfg.RatePerSec > 0 {
		if cfg.Burst <= 0 {
			cfg.Burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst)
	}

	return c
}

// Acquire waits for a rate token and a concurrency slot.
// Every successful Acquire must be paired with Release.
func (c *Controller) Acquire(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}

	c.inFlight.Add(1)
	c.total.Add(1)
	return nil
}

// TryAcquire reserves a slot without blocking.
func (c *Controller) TryAcquire() bool {
	if c == nil {
		return true
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return false
	}
	if c.sem != nil && !c.sem.TryAcquire(1) {
		return false
	}

	c.inFlight.Add(1)
	c.total.Add(1)
	return true
}

// Release returns a slot taken by Acquire or TryAcquire.
func (c *Controller) Release() {
	if c == nil {
		return
	}
	if c.sem != nil {
		c.sem.Release(1)
	}
	c.inFlight.Add(-1)
}

// InFlight returns the number of admitted, unreleased resolutions.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// Admitted returns the number of resolutions admitted so far.
func (c *Controller) Admitted() int64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}
