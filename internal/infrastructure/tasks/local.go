// Package tasks runs the request path's side effects (memory embedding,
// notification emails) detached from the request that caused them.
package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/observability"
)

const defaultTimeout = 20 * time.Second

// JobHandler processes one memory job.
type JobHandler func(ctx context.Context, job application.MemoryJob) error

// Local runs jobs on detached goroutines. Each job gets a fresh context with
// its own timeout; errors and panics are logged and counted, never returned.
type Local struct {
	handler JobHandler
	timeout time.Duration
	logger  *logrus.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocal(handler JobHandler, timeout time.Duration, logger *logrus.Logger, m *observability.Metrics) *Local {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Local{handler: handler, timeout: timeout, logger: logger, metrics: m}
}

// Dispatch implements application.Dispatcher.
func (l *Local) Dispatch(job application.MemoryJob) {
	if l.handler == nil {
		return
	}
	l.Go("memory."+job.Kind, func(ctx context.Context) error {
		return l.handler(ctx, job)
	})
}

// Go implements application.Runner. Work submitted after Close is dropped.
func (l *Local) Go(name string, fn func(ctx context.Context) error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.metrics.Job("dropped")
		if l.logger != nil {
			l.logger.WithField("job", name).Warn("task runner closed, job dropped")
		}
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		start := time.Now()
		err := l.run(ctx, fn)
		fields := logrus.Fields{"job": name, "duration_ms": time.Since(start).Milliseconds()}
		switch {
		case err == nil:
			l.metrics.Job("ok")
			if l.logger != nil {
				l.logger.WithFields(fields).Debug("job done")
			}
		default:
			l.metrics.Job("failed")
			if l.logger != nil {
				l.logger.WithError(err).WithFields(fields).Warn("job failed")
			}
		}
	}()
}

func (l *Local) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

// Close stops accepting work and waits for in-flight jobs until ctx is done.
func (l *Local) Close(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
