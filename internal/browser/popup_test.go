package browser

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/walletlink/internal/browser/browsertest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestSession(t *testing.T) (*Session, *browsertest.Context, *browsertest.Page) {
	t.Helper()
	site := browsertest.NewPage("https://app.storm.tg/")
	bc := browsertest.NewContext(site)
	s := NewSession(bc, SessionOptions{
		Engine: EngineChromium,
		Dir:    t.TempDir(),
		Expect: browsertest.Expect{},
		Logger: discardLogger(),
	})
	t.Cleanup(func() { _ = s.Close() })
	return s, bc, site
}

func TestAwaitNextWindowResolvesPopupOpenedByTrigger(t *testing.T) {
	s, bc, _ := newTestSession(t)
	popup := browsertest.NewPage("chrome-extension://wallet/index.html")

	page, err := AwaitNextWindow(context.Background(), s, func() error {
		bc.Open(popup)
		return nil
	}, time.Second)
	require.NoError(t, err)

	assert.Same(t, popup, page.PlaywrightPage())
	assert.Equal(t, 1, popup.Loads(), "window is returned only after its load wait")
	assert.Len(t, s.ListPages(), 2)
}

func TestPendingWindowResolvesOnlyFirstWindow(t *testing.T) {
	s, bc, _ := newTestSession(t)
	first := browsertest.NewPage("about:first")
	second := browsertest.NewPage("about:second")

	page, err := AwaitNextWindow(context.Background(), s, func() error {
		bc.Open(first)
		bc.Open(second)
		return nil
	}, time.Second)
	require.NoError(t, err)
	assert.Same(t, first, page.PlaywrightPage())

	// A later arm is independent and never sees windows opened before it.
	w, err := s.Arm()
	require.NoError(t, err)
	_, err = w.Wait(context.Background(), 20*time.Millisecond)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
}

func TestArmAllowsOneOutstandingWindow(t *testing.T) {
	s, _, _ := newTestSession(t)

	w, err := s.Arm()
	require.NoError(t, err)
	_, err = s.Arm()
	assert.ErrorIs(t, err, ErrWindowArmed)

	_, err = w.Wait(context.Background(), 10*time.Millisecond)
	require.Error(t, err)

	_, err = s.Arm()
	assert.NoError(t, err, "a timed out window is disarmed")
}

func TestAwaitNextWindowTimeout(t *testing.T) {
	s, _, _ := newTestSession(t)

	_, err := AwaitNextWindow(context.Background(), s, func() error { return nil }, 20*time.Millisecond)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "new window", te.Awaited)
}

func TestAwaitNextWindowTriggerFailure(t *testing.T) {
	s, _, _ := newTestSession(t)
	boom := errors.New("click failed")

	_, err := AwaitNextWindow(context.Background(), s, func() error { return boom }, time.Second)
	assert.ErrorIs(t, err, boom)
}

func TestAwaitNextWindowLoadFailure(t *testing.T) {
	s, bc, _ := newTestSession(t)
	popup := browsertest.NewPage("about:blank")
	popup.LoadErr = errors.New("load never fired")

	_, err := AwaitNextWindow(context.Background(), s, func() error {
		bc.Open(popup)
		return nil
	}, time.Second)
	require.Error(t, err)
}

func TestPendingWindowAbandonedOnClose(t *testing.T) {
	s, _, _ := newTestSession(t)

	w, err := s.Arm()
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = s.Close()
	}()
	_, err = w.Wait(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = s.Arm()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestPendingWindowContextCancel(t *testing.T) {
	s, _, _ := newTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AwaitNextWindow(ctx, s, func() error { return nil }, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPendingWindowContextDeadline(t *testing.T) {
	s, _, _ := newTestSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := AwaitNextWindow(ctx, s, func() error { return nil }, time.Second)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "new window", te.Awaited)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	WithStage(err, StageConnection)
	assert.Equal(t, StageConnection, StageOf(err))
}

func TestPendingWindowLoadTimeout(t *testing.T) {
	s, bc, _ := newTestSession(t)
	popup := browsertest.NewPage("chrome-extension://wallet/index.html")

	w, err := s.Arm()
	require.NoError(t, err)
	w.LoadTimeout = 3 * time.Second
	_, err = w.Await(context.Background(), func() error {
		bc.Open(popup)
		return nil
	}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, popup.LoadTimeout())
}
