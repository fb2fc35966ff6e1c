package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeRunnable struct {
	startErr  error
	stopped   chan struct{}
	shutdowns atomic.Int32
}

func newFakeRunnable(startErr error) *fakeRunnable {
	return &fakeRunnable{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeRunnable) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeRunnable) Shutdown(ctx context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.stopped)
	}
	return nil
}

func TestRunServers(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger := discardLogger()

	t.Run("stops-on-context-cancel", func(t *testing.T) {
		api := newFakeRunnable(nil)
		metricsSrv := newFakeRunnable(nil)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- RunServers(ctx, logger, time.Second,
				NamedRunnable{Name: "api server", Runnable: api},
				NamedRunnable{Name: "metrics server", Runnable: metricsSrv},
			)
		}()

		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("RunServers did not return after cancel")
		}
		assert.Equal(t, int32(1), api.shutdowns.Load())
		assert.Equal(t, int32(1), metricsSrv.shutdowns.Load())
	})

	t.Run("failure-shuts-down-the-rest", func(t *testing.T) {
		healthy := newFakeRunnable(nil)
		broken := newFakeRunnable(errors.New("address already in use"))

		err := RunServers(context.Background(), logger, time.Second,
			NamedRunnable{Name: "api server", Runnable: healthy},
			NamedRunnable{Name: "metrics server", Runnable: broken},
		)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "metrics server error")
		assert.Contains(t, err.Error(), "address already in use")
		assert.Equal(t, int32(1), healthy.shutdowns.Load())
	})
}

func TestWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("shutdown-cancels-loop", func(t *testing.T) {
		w := NewWorker(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		result := make(chan error, 1)
		go func() { result <- w.Start(context.Background()) }()

		require.NoError(t, w.Shutdown(context.Background()))
		require.NoError(t, <-result)
	})

	t.Run("loop-error-is-returned", func(t *testing.T) {
		w := NewWorker(func(ctx context.Context) error {
			return errors.New("boom")
		})

		err := w.Start(context.Background())
		require.EqualError(t, err, "boom")
		require.NoError(t, w.Shutdown(context.Background()))
	})

	t.Run("shutdown-times-out", func(t *testing.T) {
		release := make(chan struct{})
		w := NewWorker(func(ctx context.Context) error {
			<-release
			return nil
		})

		result := make(chan error, 1)
		go func() { result <- w.Start(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, w.Shutdown(ctx), context.DeadlineExceeded)

		close(release)
		require.NoError(t, <-result)
	})
}
