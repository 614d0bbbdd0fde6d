// Package retry wraps a single stage invocation with bounded retries and
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds the retry loop. Defaults: 3 attempts, 500ms base delay
// doubling per attempt, capped at 8s.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// TransientError lets error types declare their own retry class. Errors that
// do not implement it are treated as transient, matching provider hiccups
// like resets and timeouts that arrive as plain errors.
type TransientError interface {
	error
	Transient() bool
}

// Attempt records one invocation for diagnostics.
type Attempt struct {
	Number  int           `json:"number"`
	Elapsed time.Duration `json:"elapsed"`
	Err     string        `json:"error,omitempty"`
}

// Result carries the outcome of the whole retry loop. Err is nil on success.
// Fatal marks an abort on a non-retryable error; otherwise a non-nil Err
// means the attempt budget was exhausted (or the context was cancelled).
type Result struct {
	Value    []byte
	Attempts []Attempt
	Err      error
	Fatal    bool
}

// Cancelled reports whether the loop stopped because the context ended.
func (r Result) Cancelled() bool {
	return errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)
}

func transient(err error) bool {
	var te TransientError
	if errors.As(err, &te) {
		return te.Transient()
	}
	return true
}

// Do invokes op at most p.MaxAttempts times, sleeping
// BaseDelay * 2^(attempt-1) (capped at MaxDelay) between transient failures.
// A fatal error stops the loop immediately; no invocation begins after one.
// Context cancellation aborts both the backoff wait and remaining attempts.
func Do(ctx context.Context, p Policy, op func(context.Context) ([]byte, error)) Result {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var res Result
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		start := time.Now()
		value, err := op(ctx)
		record := Attempt{Number: attempt, Elapsed: time.Since(start)}
		if err != nil {
			record.Err = err.Error()
		}
		res.Attempts = append(res.Attempts, record)

		if err == nil {
			res.Value = value
			return res
		}
		res.Err = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res
		}
		if !transient(err) {
			res.Fatal = true
			return res
		}
		if attempt == p.MaxAttempts {
			return res
		}

		if err := wait(ctx, backoff(p, attempt)); err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

func backoff(p Policy, attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt-1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
