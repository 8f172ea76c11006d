package pace

import (
	"context"
	"time"
)

var sleep = time.Sleep

// Pacer enforces a fixed delay between sequential remote calls so the
// process stays under the provider's requests-per-minute quota.
type Pacer struct {
	delay time.Duration
}

// NewFixedDelay returns a pacer that waits the given duration on every Wait.
// A non-positive delay makes Wait a no-op.
func NewFixedDelay(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks for the configured delay or until the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return WaitFor(ctx, p.delay)
}

// Delay reports the configured inter-call delay.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}

// WaitFor sleeps for d unless the context is canceled first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
