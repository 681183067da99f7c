package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"authsvc/internal/metrics"
)

func TestNotificationDispatcher_StrictReturnsError(t *testing.T) {
	m := metrics.New()
	d := NewNotificationDispatcher(true, time.Second, discardLogger(), m)
	assert.True(t, d.Strict())

	boom := errors.New("boom")
	err := d.Dispatch(context.Background(), "welcome", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("welcome", "failed")))

	require.NoError(t, d.Dispatch(context.Background(), "welcome", func(context.Context) error { return nil }))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("welcome", "sent")))
}

func TestNotificationDispatcher_BestEffortSurvivesCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewNotificationDispatcher(false, time.Second, discardLogger(), nil)
	assert.False(t, d.Strict())

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	var sawCancel atomic.Bool

	err := d.Dispatch(ctx, "verification", func(ctx context.Context) error {
		<-release
		sawCancel.Store(ctx.Err() != nil)
		return errors.New("ignored")
	})
	require.NoError(t, err)

	cancel()
	close(release)
	d.Wait()

	assert.False(t, sawCancel.Load(), "request cancellation must not reach the send")
}

func TestNotificationDispatcher_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewNotificationDispatcher(false, 20*time.Millisecond, discardLogger(), nil)
	var timedOut atomic.Bool
	_ = d.Dispatch(context.Background(), "welcome", func(ctx context.Context) error {
		<-ctx.Done()
		timedOut.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})
	d.Wait()
	assert.True(t, timedOut.Load())
}
