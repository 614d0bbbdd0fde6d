package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classifiedError struct {
	msg       string
	transient bool
}

func (e *classifiedError) Error() string   { return e.msg }
func (e *classifiedError) Transient() bool { return e.transient }

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastPolicy(3), func(context.Context) ([]byte, error) {
		calls++
		return []byte("ok"), nil
	})

	require.NoError(t, res.Err)
	assert.Equal(t, []byte("ok"), res.Value)
	assert.Equal(t, 1, calls)
	assert.Len(t, res.Attempts, 1)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastPolicy(3), func(context.Context) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, &classifiedError{msg: "rate limited", transient: true}
		}
		return []byte("ok"), nil
	})

	require.NoError(t, res.Err)
	assert.Equal(t, 3, calls)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, "rate limited", res.Attempts[0].Err)
	assert.Empty(t, res.Attempts[2].Err)
}

func TestDoExhaustsExactlyMaxAttempts(t *testing.T) {
	calls := 0
	boom := &classifiedError{msg: "boom", transient: true}
	res := Do(context.Background(), fastPolicy(5), func(context.Context) ([]byte, error) {
		calls++
		return nil, boom
	})

	assert.Equal(t, 5, calls)
	assert.Len(t, res.Attempts, 5)
	require.Error(t, res.Err)
	assert.False(t, res.Fatal)
	assert.ErrorIs(t, res.Err, boom)
}

func TestDoFatalStopsAfterOneAttempt(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastPolicy(5), func(context.Context) ([]byte, error) {
		calls++
		return nil, &classifiedError{msg: "bad credentials", transient: false}
	})

	assert.Equal(t, 1, calls)
	assert.True(t, res.Fatal)
	require.Error(t, res.Err)
}

func TestDoUnclassifiedErrorsAreTransient(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastPolicy(2), func(context.Context) ([]byte, error) {
		calls++
		return nil, errors.New("connection reset")
	})

	assert.Equal(t, 2, calls)
	assert.False(t, res.Fatal)
}

func TestDoCancellationAbortsBackoffWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Minute, MaxDelay: time.Minute}

	calls := 0
	done := make(chan Result, 1)
	go func() {
		done <- Do(ctx, policy, func(context.Context) ([]byte, error) {
			calls++
			return nil, &classifiedError{msg: "transient", transient: true}
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.Equal(t, 1, calls)
		assert.True(t, res.Cancelled())
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	res := Do(ctx, fastPolicy(3), func(context.Context) ([]byte, error) {
		calls++
		return nil, nil
	})

	assert.Equal(t, 0, calls)
	assert.True(t, res.Cancelled())
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, backoff(p, 1))
	assert.Equal(t, 200*time.Millisecond, backoff(p, 2))
	assert.Equal(t, 350*time.Millisecond, backoff(p, 3))
	assert.Equal(t, 350*time.Millisecond, backoff(p, 4))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 8*time.Second, p.MaxDelay)
}
