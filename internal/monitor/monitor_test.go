package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/walletlink/internal/browser"
)

func quiet() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestRunOnceRecordsOutcome(t *testing.T) {
	failure := &browser.AssertionError{Stage: browser.StageConnection, Condition: "url matches .*trade/TON_USDT"}
	calls := 0
	m := New(func(ctx context.Context) error {
		calls++
		if calls == 2 {
			return failure
		}
		return nil
	}, Options{Logger: quiet()})

	first := m.RunOnce(context.Background())
	second := m.RunOnce(context.Background())

	assert.True(t, first.OK())
	assert.Empty(t, first.Stage)
	assert.False(t, second.OK())
	assert.Equal(t, browser.StageConnection, second.Stage)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, m.History(), 2)
}

func TestHistoryIsBounded(t *testing.T) {
	m := New(func(ctx context.Context) error { return nil }, Options{History: 3, Logger: quiet()})

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, m.RunOnce(context.Background()).ID)
	}

	history := m.History()
	require.Len(t, history, 3)
	assert.Equal(t, ids[2:], []string{history[0].ID, history[1].ID, history[2].ID})
}

func TestRunOnceTimeout(t *testing.T) {
	m := New(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, Options{Timeout: 20 * time.Millisecond, Logger: quiet()})

	r := m.RunOnce(context.Background())
	assert.True(t, errors.Is(r.Err, context.DeadlineExceeded))
}

func TestRunOnceRecoversPanic(t *testing.T) {
	m := New(func(ctx context.Context) error { panic("boom") }, Options{Logger: quiet()})

	r := m.RunOnce(context.Background())
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "boom")
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	m := New(func(ctx context.Context) error { return nil }, Options{Logger: quiet()})

	var ce *browser.ConfigurationError
	require.ErrorAs(t, m.Schedule("every minute"), &ce)
	require.ErrorAs(t, m.Schedule("*/5 * * * *"), &ce, "five-field specs lack seconds")
}

func TestScheduledRuns(t *testing.T) {
	var runs atomic.Int32
	m := New(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, Options{Logger: quiet()})

	require.NoError(t, m.Schedule("* * * * * *"))
	m.Start(context.Background())
	t.Cleanup(func() { m.Stop(context.Background()) })

	assert.False(t, m.Next().IsZero())
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	assert.NotEmpty(t, m.History())
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	var running, maxRunning atomic.Int32
	release := make(chan struct{})
	m := New(func(ctx context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			cur := maxRunning.Load()
			if n <= cur || maxRunning.CompareAndSwap(cur, n) {
				break
			}
		}
		<-release
		return nil
	}, Options{Logger: quiet()})

	require.NoError(t, m.Schedule("* * * * * *"))
	m.Start(context.Background())

	time.Sleep(2500 * time.Millisecond)
	close(release)
	m.Stop(context.Background())

	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestStartContextCancelsRunningCheck(t *testing.T) {
	started := make(chan struct{}, 1)
	m := New(func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}, Options{Timeout: time.Minute, Logger: quiet()})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Schedule("* * * * * *"))
	m.Start(ctx)

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("check never started")
	}
	cancel()

	stopCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	begin := time.Now()
	m.Stop(stopCtx)
	assert.Less(t, time.Since(begin), time.Second, "stop waits for a cancelled run only")

	require.NotEmpty(t, m.History())
	assert.ErrorIs(t, m.History()[0].Err, context.Canceled)
}
