package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/metrics"
)

// Dispatcher runs triggers on detached goroutines. The outcome is only ever
// logged, counted and passed to the optional completion hook.
type Dispatcher struct {
	trigger Trigger
	timeout time.Duration
	logger  *zap.Logger
	onDone  func(Request, error)

	wg sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

// WithCompletionHook registers a diagnostics callback run after every trigger.
func WithCompletionHook(fn func(Request, error)) DispatcherOption {
	return func(d *Dispatcher) {
		d.onDone = fn
	}
}

// NewDispatcher accepts a nil trigger; Configured then reports false.
func NewDispatcher(trigger Trigger, timeout time.Duration, logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	d := &Dispatcher{
		trigger: trigger,
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Configured() bool {
	return d != nil && d.trigger != nil
}

// Dispatch returns immediately.
func (d *Dispatcher) Dispatch(req Request) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.run(req)
		if d.onDone != nil {
			d.onDone(req, err)
		}
	}()
}

func (d *Dispatcher) run(req Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workflow trigger panicked: %v", r)
			d.logger.Error("Workflow trigger panicked",
				zap.String("submission_id", req.SubmissionID),
				zap.Any("panic", r))
		}
	}()

	// Detached from the HTTP request so the response can return first.
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	err = d.trigger.Trigger(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.WorkflowTriggers.WithLabelValues(d.trigger.Name(), "failed").Inc()
		d.logger.Error("Workflow trigger failed",
			zap.String("submission_id", req.SubmissionID),
			zap.String("transport", d.trigger.Name()),
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	metrics.WorkflowTriggers.WithLabelValues(d.trigger.Name(), "sent").Inc()
	d.logger.Info("Workflow triggered",
		zap.String("submission_id", req.SubmissionID),
		zap.String("transport", d.trigger.Name()),
		zap.Duration("duration", duration))
	return nil
}

// Wait blocks until in-flight triggers finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
