package retryable_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besotti/retryable"
)

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context never cancelled")
	}
}

func TestMerge(t *testing.T) {
	t.Run("no signals follows the parent", func(t *testing.T) {
		parent, cancelParent := context.WithCancel(context.Background())
		merged, release := retryable.Merge(parent)
		defer release()

		require.NoError(t, merged.Err())
		cancelParent()
		waitDone(t, merged)
		assert.ErrorIs(t, context.Cause(merged), context.Canceled)
	})

	t.Run("nil signals are ignored", func(t *testing.T) {
		merged, release := retryable.Merge(context.Background(), nil, nil)
		defer release()
		assert.NoError(t, merged.Err())
	})

	t.Run("already cancelled signal cancels immediately", func(t *testing.T) {
		cause := errors.New("already down")
		sig, cancel := context.WithCancelCause(context.Background())
		cancel(cause)

		merged, release := retryable.Merge(context.Background(), sig)
		defer release()

		require.Error(t, merged.Err())
		assert.ErrorIs(t, context.Cause(merged), cause)
	})

	t.Run("first firing signal wins and latches", func(t *testing.T) {
		causeA := errors.New("cause a")
		causeB := errors.New("cause b")
		sigA, cancelA := context.WithCancelCause(context.Background())
		sigB, cancelB := context.WithCancelCause(context.Background())

		merged, release := retryable.Merge(context.Background(), sigA, sigB)
		defer release()

		cancelA(causeA)
		waitDone(t, merged)
		cancelB(causeB)

		assert.ErrorIs(t, context.Cause(merged), causeA)
		assert.NotErrorIs(t, context.Cause(merged), causeB)
	})

	t.Run("signal firing cancels the merged context", func(t *testing.T) {
		sig, cancel := context.WithCancel(context.Background())
		merged, release := retryable.Merge(context.Background(), sig)
		defer release()

		require.NoError(t, merged.Err())
		cancel()
		waitDone(t, merged)
	})

	t.Run("release detaches the subscriptions", func(t *testing.T) {
		cause := errors.New("late firing")
		sig, cancel := context.WithCancelCause(context.Background())

		merged, release := retryable.Merge(context.Background(), sig)
		release()
		cancel(cause)

		waitDone(t, merged)
		assert.NotErrorIs(t, context.Cause(merged), cause)
	})
}
