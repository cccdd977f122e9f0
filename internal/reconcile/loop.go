package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Cycler runs one reconciliation cycle.
type Cycler interface {
	RunCycle(ctx context.Context) Outcome
}

// Loop runs cycles on a fixed interval. Cycles never overlap: a tick or
// trigger that arrives while a cycle runs is dropped.
type Loop struct {
	cycler   Cycler
	interval time.Duration

	running sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(cycler Cycler, interval time.Duration) *Loop {
	return &Loop{cycler: cycler, interval: interval}
}

// Run runs one cycle immediately and then one per interval until ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if l.interval <= 0 {
		return errors.New("reconcile interval must be positive")
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.Trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Trigger(ctx)
		}
	}
}

// Trigger runs a cycle now unless one is already running. The bool reports
// whether a cycle ran.
func (l *Loop) Trigger(ctx context.Context) (Outcome, bool) {
	if !l.running.TryLock() {
		slog.Info("cycle already running, skipping")
		return Outcome{}, false
	}
	defer l.running.Unlock()

	if ctx.Err() != nil {
		return Outcome{}, false
	}
	return l.cycler.RunCycle(ctx), true
}

// Start launches Run in a background goroutine.
func (l *Loop) Start(ctx context.Context) error {
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		if err := l.Run(ctx); err != nil {
			slog.Error("reconcile loop exited", "err", err)
		}
	}()

	return nil
}

// Stop cancels the loop and waits for the running cycle to finish.
func (l *Loop) Stop() error {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
	return nil
}
