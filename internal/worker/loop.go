package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrAlreadyRunning is returned by Start on a running Loop.
var ErrAlreadyRunning = errors.New("loop is already running")

// Loop runs a task at a fixed interval, once immediately on start.
type Loop struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLoop(name string, interval time.Duration, task func(ctx context.Context) error) *Loop {
	return &Loop{name: name, interval: interval, task: task}
}

// Start launches the loop in the background.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrAlreadyRunning
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})

	go l.run(ctx, l.stopCh, l.doneCh)

	slog.InfoContext(ctx, "Loop started", "loop", l.name, "interval", l.interval)
	return nil
}

// Run blocks until ctx is done, for use under an errgroup.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return l.Stop(context.Background())
}

// Stop signals the loop and waits for the current pass to finish.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	stopCh, doneCh := l.stopCh, l.doneCh
	l.running = false
	l.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Loop stopped gracefully", "loop", l.name)
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Loop stop timed out", "loop", l.name)
		return ctx.Err()
	}
}

func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.pass(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.pass(ctx)
		}
	}
}

func (l *Loop) pass(ctx context.Context) {
	if err := l.task(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Loop pass failed", "loop", l.name, "error", err)
	}
}
