// Package poller watches a submitted job until its script is ready, the
// observation window closes or the caller goes away.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/script"
)

const (
	DefaultInterval = 3 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateResolved  State = "resolved"
	StateTimedOut  State = "timed_out"
	StateErrored   State = "errored"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the poller will not change state again.
func (s State) Terminal() bool {
	return s != StateIdle && s != StatePolling
}

type Client interface {
	Status(ctx context.Context, jobID string) (*models.JobStatus, error)
	Script(ctx context.Context, scriptID string) (*script.Script, error)
}

type Result struct {
	State  State
	Status *models.JobStatus
	Script *script.Script
	Checks int
	Err    error
}

type Poller struct {
	client   Client
	interval time.Duration
	timeout  time.Duration
	onState  func(State)
	onCheck  func(attempt int, status *models.JobStatus, err error)
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(p *Poller) {
		p.onState = fn
	}
}

// WithCheckHook is called after every status check, failed ones included.
func WithCheckHook(fn func(attempt int, status *models.JobStatus, err error)) Option {
	return func(p *Poller) {
		p.onCheck = fn
	}
}

func New(client Client, opts ...Option) *Poller {
	p := &Poller{
		client:   client,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll checks the job immediately and then once per interval. Checks never
// overlap: the next one is scheduled only after the previous one returned.
// Failed checks are skipped; polling only ends on a ready job, the timeout
// or ctx cancellation. The server side job is unaffected by a timeout.
func (p *Poller) Poll(ctx context.Context, jobID string) Result {
	p.transition(StateIdle)

	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.transition(StatePolling)

	var (
		last   *models.JobStatus
		checks int
	)
	for {
		status, err := p.client.Status(pollCtx, jobID)
		checks++
		if p.onCheck != nil {
			p.onCheck(checks, status, err)
		}

		if ctx.Err() != nil {
			return p.finish(Result{State: StateCancelled, Status: last, Checks: checks, Err: ctx.Err()})
		}
		if err == nil && status != nil {
			last = status
			if status.Ready() {
				return p.resolve(ctx, status, checks)
			}
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return p.finish(Result{State: StateCancelled, Status: last, Checks: checks, Err: ctx.Err()})
			}
			return p.finish(Result{State: StateTimedOut, Status: last, Checks: checks, Err: models.ErrTimeout})
		case <-timer.C:
		}
	}
}

func (p *Poller) resolve(ctx context.Context, status *models.JobStatus, checks int) Result {
	sc, err := p.client.Script(ctx, *status.ScriptID)
	if err != nil {
		state := StateErrored
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			state = StateCancelled
		} else {
			err = fmt.Errorf("fetch script %s: %w", *status.ScriptID, err)
		}
		return p.finish(Result{State: state, Status: status, Checks: checks, Err: err})
	}
	return p.finish(Result{State: StateResolved, Status: status, Script: sc, Checks: checks})
}

func (p *Poller) finish(r Result) Result {
	p.transition(r.State)
	return r
}

func (p *Poller) transition(s State) {
	if p.onState != nil {
		p.onState(s)
	}
}
