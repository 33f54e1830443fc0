package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pixvest/settlement/internal/observability"
	"go.uber.org/zap"
)

// Pipeline runs a settlement tick at a fixed interval. Each tick executes
// in its own goroutine behind a single-flight guard: if the previous tick
// is still running, the new one is skipped and logged, never queued. The
// guard is released on every exit path, panics included.
type Pipeline struct {
	name     string
	interval time.Duration
	run      func(context.Context) error

	inFlight sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPipeline(name string, interval time.Duration, run func(context.Context) error) *Pipeline {
	return &Pipeline{
		name:     name,
		interval: interval,
		run:      run,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks and fires ticks until the context is canceled or Stop is
// called. The first tick fires immediately.
func (p *Pipeline) Start(ctx context.Context) {
	zap.L().Info("pipeline starting",
		zap.String("pipeline", p.name),
		zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	go p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("pipeline context canceled", zap.String("pipeline", p.name))
			return
		case <-p.stopCh:
			zap.L().Info("pipeline stop signal received", zap.String("pipeline", p.name))
			return
		case <-ticker.C:
			go p.tick(ctx)
		}
	}
}

// Stop stops the tick loop. An in-flight tick finishes on its own.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// Run starts the pipeline in a goroutine and returns a stop function.
func (p *Pipeline) Run(ctx context.Context) func() {
	go p.Start(ctx)
	return p.Stop
}

func (p *Pipeline) tick(ctx context.Context) {
	if !p.inFlight.TryLock() {
		observability.IncrementPipelineRun(p.name, "skipped")
		zap.L().Warn("pipeline tick skipped, previous run still in flight",
			zap.String("pipeline", p.name))
		return
	}
	defer p.inFlight.Unlock()

	start := time.Now()
	defer func() {
		observability.ObservePipelineTick(p.name, time.Since(start))
		if r := recover(); r != nil {
			observability.IncrementPipelineRun(p.name, "failed")
			zap.L().Error("pipeline tick panicked",
				zap.String("pipeline", p.name),
				zap.Any("panic", r))
		}
	}()

	if err := p.run(ctx); err != nil {
		observability.IncrementPipelineRun(p.name, "failed")
		zap.L().Error("pipeline tick failed",
			zap.String("pipeline", p.name),
			zap.Error(err))
		return
	}
	observability.IncrementPipelineRun(p.name, "success")
}

// String identifies the pipeline in logs and debug output.
func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(%s, interval=%v)", p.name, p.interval)
}
