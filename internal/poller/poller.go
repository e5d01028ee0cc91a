// Package poller drives a remote asynchronous job from submission to a
// terminal state, a deadline, or a failure.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/ckwokli/pws/internal/retry"
)

// State of a polled job
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateTimedOut  State = "timed_out"
	StateFailed    State = "failed"
)

// sleepFunc waits between polls (injectable for tests)
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Job describes one kind of remote job
type Job[T any] struct {
	Name       string
	Submit     func(ctx context.Context) (T, error)
	Poll       func(ctx context.Context, id string) (T, error)
	ExtractID  func(T) string
	IsTerminal func(T) bool
}

// Config bounds polling
type Config struct {
	Interval time.Duration
	MaxWait  time.Duration
	Retry    retry.Policy
}

// Outcome is the final state of a job. Result is the zero value on timeout.
type Outcome[T any] struct {
	State   State
	ID      string
	Result  T
	Polls   int
	Elapsed time.Duration
}

// Run submits the job and polls it, first right away and then every
// Interval. A submission without an id is treated as a synchronous answer and
// returned as completed without polling. Reaching MaxWait, including in the
// middle of a retried poll, yields StateTimedOut with a nil error; retry
// exhaustion or cancellation yields StateFailed and the error.
func Run[T any](ctx context.Context, cfg Config, job Job[T]) (Outcome[T], error) {
	start := time.Now()
	out := Outcome[T]{State: StateSubmitted}

	submitted, err := retry.Execute(ctx, cfg.Retry, job.Submit)
	if err != nil {
		out.State = StateFailed
		out.Elapsed = time.Since(start)
		return out, fmt.Errorf("%s submit: %w", job.Name, err)
	}

	out.ID = job.ExtractID(submitted)
	if out.ID == "" {
		out.State = StateCompleted
		out.Result = submitted
		out.Elapsed = time.Since(start)
		return out, nil
	}

	out.State = StatePolling
	deadline := time.Now().Add(cfg.MaxWait)

	for {
		if time.Until(deadline) <= 0 {
			return timedOut(out, start), nil
		}

		result, err := pollOnce(ctx, cfg, job, out.ID, deadline)
		out.Polls++
		if err != nil {
			// the poll ran out of wall clock, not out of retries
			if ctx.Err() == nil && !time.Now().Before(deadline) {
				return timedOut(out, start), nil
			}
			out.State = StateFailed
			out.Elapsed = time.Since(start)
			return out, fmt.Errorf("%s %s poll: %w", job.Name, out.ID, err)
		}

		if job.IsTerminal(result) {
			out.State = StateCompleted
			out.Result = result
			out.Elapsed = time.Since(start)
			return out, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return timedOut(out, start), nil
		}
		if err := sleepFunc(ctx, min(cfg.Interval, remaining)); err != nil {
			out.State = StateFailed
			out.Elapsed = time.Since(start)
			return out, fmt.Errorf("%s %s: %w", job.Name, out.ID, err)
		}
	}
}

// pollOnce runs one retried status call that cannot outlive deadline
func pollOnce[T any](ctx context.Context, cfg Config, job Job[T], id string, deadline time.Time) (T, error) {
	pollCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	return retry.Execute(pollCtx, cfg.Retry, func(ctx context.Context) (T, error) {
		return job.Poll(ctx, id)
	})
}

func timedOut[T any](out Outcome[T], start time.Time) Outcome[T] {
	var zero T
	out.State = StateTimedOut
	out.Result = zero
	out.Elapsed = time.Since(start)
	return out
}
