// Package rate paces outbound origin calls. The public content APIs all
// enforce per-key quotas; a leaky-bucket limiter fed through a small buffered
// channel smears bursts without dropping calls.
package rate

import (
	"context"

	"go.uber.org/ratelimit"
)

type Jitter struct {
	ch    chan struct{}
	l     ratelimit.Limiter
	limit int
}

// NewJitter allows roughly limit calls per second. The provider goroutine
// stops when ctx is cancelled; Take then drains whatever is buffered and
// stops blocking once the channel is closed.
func NewJitter(ctx context.Context, limit int) *Jitter {
	brst := int(float64(limit) * 0.1)
	if brst < 1 {
		brst = 1
	}
	jitter := &Jitter{
		limit: limit,
		ch:    make(chan struct{}, brst),
		l:     ratelimit.New(limit),
	}
	go jitter.provider(ctx)
	return jitter
}

func (l *Jitter) provider(ctx context.Context) {
	defer close(l.ch)
	for {
		l.l.Take()
		select {
		case <-ctx.Done():
			return
		case l.ch <- struct{}{}:
		}
	}
}

// Take blocks until the limiter grants a slot.
func (l *Jitter) Take() {
	<-l.ch
}
