package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/campusqa/campusqa/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunner_CompletesSuccessfully(t *testing.T) {
	r := NewRunner("rebuild", testutil.Logger())
	defer r.Close()

	require.NoError(t, r.Start(func(ctx context.Context) error {
		return nil
	}))

	require.Eventually(t, func() bool {
		return !r.Status().Running
	}, time.Second, 5*time.Millisecond)

	s := r.Status()
	assert.True(t, s.Completed)
	assert.Empty(t, s.Error)
}

func TestRunner_RecordsFailure(t *testing.T) {
	r := NewRunner("rebuild", testutil.Logger())
	defer r.Close()

	require.NoError(t, r.Start(func(ctx context.Context) error {
		return errors.New("disk full")
	}))

	require.Eventually(t, func() bool {
		return !r.Status().Running
	}, time.Second, 5*time.Millisecond)

	s := r.Status()
	assert.False(t, s.Completed)
	assert.Equal(t, "disk full", s.Error)
}

func TestRunner_RejectsConcurrentStart(t *testing.T) {
	r := NewRunner("rebuild", testutil.Logger())

	release := make(chan struct{})
	require.NoError(t, r.Start(func(ctx context.Context) error {
		<-release
		return nil
	}))

	err := r.Start(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.True(t, r.Status().Running, "rejection must not disturb the running task")

	close(release)
	r.Close()
}

func TestRunner_RestartableAfterCompletion(t *testing.T) {
	r := NewRunner("rebuild", testutil.Logger())
	defer r.Close()

	require.NoError(t, r.Start(func(ctx context.Context) error {
		return errors.New("first failure")
	}))
	require.Eventually(t, func() bool {
		return !r.Status().Running
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Start(func(ctx context.Context) error {
		return nil
	}))
	require.Eventually(t, func() bool {
		return !r.Status().Running
	}, time.Second, 5*time.Millisecond)

	s := r.Status()
	assert.True(t, s.Completed)
	assert.Empty(t, s.Error, "a successful run clears the previous failure")
}

func TestRunner_CloseCancelsTask(t *testing.T) {
	r := NewRunner("load", testutil.Logger())

	started := make(chan struct{})
	require.NoError(t, r.Start(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	<-started
	r.Close()

	s := r.Status()
	assert.False(t, s.Running)
	assert.False(t, s.Completed)
	assert.NotEmpty(t, s.Error)
}
