package service

import (
	"context"
	"time"
)

const defaultCooldown = 3 * time.Minute

// Pacer spaces consecutive dispatches of a sweep
type Pacer interface {
	Wait(ctx context.Context) error
}

// PacerFunc adapts a func to Pacer
type PacerFunc func(ctx context.Context) error

// Wait implements Pacer
func (f PacerFunc) Wait(ctx context.Context) error { return f(ctx) }

// IntervalPacer waits a fixed cooldown per call
type IntervalPacer struct {
	every time.Duration
}

// NewIntervalPacer returns a pacer sleeping every per Wait, zero disables pacing
func NewIntervalPacer(every time.Duration) *IntervalPacer {
	return &IntervalPacer{every: every}
}

// Wait blocks for the cooldown or until ctx is done
func (p *IntervalPacer) Wait(ctx context.Context) error {
	if p.every <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.every)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
