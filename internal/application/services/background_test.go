package services

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

func TestBackgroundRunner_DrainWaitsForTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newBackgroundRunner(time.Second, nil)
	var done atomic.Int32
	for i := 0; i < 5; i++ {
		r.Go(context.Background(), "count", func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			done.Add(1)
			return nil
		})
	}

	require.NoError(t, r.Drain(context.Background()))
	assert.Equal(t, int32(5), done.Load())
}

func TestBackgroundRunner_DetachesFromCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newBackgroundRunner(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	var ctxErr atomic.Value

	r.Go(ctx, "detached", func(taskCtx context.Context) error {
		cancel()
		time.Sleep(5 * time.Millisecond)
		if err := taskCtx.Err(); err != nil {
			ctxErr.Store(err)
		}
		return nil
	})

	require.NoError(t, r.Drain(context.Background()))
	assert.Nil(t, ctxErr.Load())
}

func TestBackgroundRunner_SurvivesFailuresAndPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newBackgroundRunner(time.Second, nil)
	r.Go(context.Background(), "fails", func(ctx context.Context) error {
		return errors.New("store unavailable")
	})
	r.Go(context.Background(), "panics", func(ctx context.Context) error {
		panic("boom")
	})

	assert.NoError(t, r.Drain(context.Background()))
}

func TestBackgroundRunner_DrainHonoursDeadline(t *testing.T) {
	r := newBackgroundRunner(time.Second, nil)
	release := make(chan struct{})
	r.Go(context.Background(), "slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Drain(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, r.Drain(context.Background()))
}
