package service

import (
	"context"
	"time"
)

// Budgets caps the phases of one analysis job, zero means no extra limit
type Budgets struct {
	// Clone caps the repository clone
	Clone time.Duration
	// Analyze caps the analyzer subprocess
	Analyze time.Duration
	// Metadata caps the hosting metadata lookup
	Metadata time.Duration
}

func (b Budgets) withDefaults() Budgets {
	if b.Clone <= 0 {
		b.Clone = 5 * time.Minute
	}
	if b.Analyze <= 0 {
		b.Analyze = 10 * time.Minute
	}
	if b.Metadata <= 0 {
		b.Metadata = 30 * time.Second
	}
	return b
}

// remaining returns the time until the deadline on ctx or zero when none is set or already expired
func remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withBudget bounds ctx by d without ever extending a parent deadline
func withBudget(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
