package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTakeGrantsSlots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jitter := NewJitter(ctx, 100)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			jitter.Take()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("limiter should grant slots at the configured rate")
	}
}

func TestTakePaces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jitter := NewJitter(ctx, 10) // 10 per second
	jitter.Take()

	start := time.Now()
	for i := 0; i < 3; i++ {
		jitter.Take()
	}
	// three more grants at 10/s take roughly 300ms, allow generous slack
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	jitter := NewJitter(ctx, 1000)
	time.Sleep(10 * time.Millisecond)
	cancel()

	// once the provider exits, Take stops blocking for good
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			jitter.Take()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Take should not block after cancellation")
	}
}
