package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPipelineSkipsTickWhileInFlight(t *testing.T) {
	var runs atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	p := NewPipeline("test", time.Hour, func(context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	})

	ctx := context.Background()
	go p.tick(ctx)
	<-started

	// Second tick fires while the first is still running and must be
	// skipped, not queued.
	done := make(chan struct{})
	go func() {
		p.tick(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("skipped tick did not return immediately")
	}
	require.Equal(t, int64(1), runs.Load())

	close(release)
}

func TestPipelineGuardReleasedAfterError(t *testing.T) {
	var runs atomic.Int64
	p := NewPipeline("test", time.Hour, func(context.Context) error {
		runs.Add(1)
		return context.DeadlineExceeded
	})

	ctx := context.Background()
	p.tick(ctx)
	p.tick(ctx)
	require.Equal(t, int64(2), runs.Load())
}

func TestPipelineRecoversFromPanic(t *testing.T) {
	var runs atomic.Int64
	p := NewPipeline("test", time.Hour, func(context.Context) error {
		runs.Add(1)
		panic("boom")
	})

	ctx := context.Background()
	require.NotPanics(t, func() { p.tick(ctx) })
	// The guard must be released despite the panic.
	require.NotPanics(t, func() { p.tick(ctx) })
	require.Equal(t, int64(2), runs.Load())
}

func TestPipelineStopIsIdempotent(t *testing.T) {
	p := NewPipeline("test", time.Millisecond, func(context.Context) error { return nil })
	stop := p.Run(context.Background())
	stop()
	stop()
}
