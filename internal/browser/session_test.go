package browser

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/walletlink/internal/browser/browsertest"
)

func TestTargetString(t *testing.T) {
	assert.Equal(t, `button "Get started"`, Button("Get started").String())
	assert.Equal(t, `text "Wallet"`, Text("Wallet").String())
	assert.Equal(t, `css "input" (first)`, CSS("input").FirstMatch().String())
}

func TestClickMissingElementIsTimeout(t *testing.T) {
	s, _, site := newTestSession(t)
	site.Button("connect wallet").SetVisible(false)

	page, err := s.InitialPage()
	require.NoError(t, err)

	err = page.Click(context.Background(), Button("connect wallet"), time.Second)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, `button "connect wallet"`, te.Awaited)

	assert.Equal(t, StageConnection, StageOf(WithStage(err, StageConnection)))
}

func TestFillEachIsPositional(t *testing.T) {
	s, _, site := newTestSession(t)
	fields := site.El("input").SetCount(3)
	page, _ := s.InitialPage()

	require.NoError(t, page.FillEach(context.Background(), CSS("input"), []string{"a", "b", "c"}, time.Second))
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, fields[i].Value())
	}
}

func TestFillEachCountMismatch(t *testing.T) {
	s, _, site := newTestSession(t)
	fields := site.El("input").SetCount(2)
	page, _ := s.InitialPage()

	err := page.FillEach(context.Background(), CSS("input"), []string{"a", "b", "c"}, time.Second)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	for _, f := range fields {
		assert.Empty(t, f.Value(), "nothing is filled on a count mismatch")
	}
}

func TestExpectations(t *testing.T) {
	s, _, site := newTestSession(t)
	site.El("input").SetCount(24)
	site.Text("Connect wallet").SetVisible(false)
	page, _ := s.InitialPage()
	ctx := context.Background()

	assert.NoError(t, page.ExpectCount(ctx, CSS("input"), 24, 50*time.Millisecond))
	assert.Error(t, page.ExpectCount(ctx, CSS("input"), 2, 20*time.Millisecond))
	assert.NoError(t, page.ExpectHidden(ctx, Text("Connect wallet"), 20*time.Millisecond))
	assert.NoError(t, page.ExpectVisible(ctx, Text("Wallet"), 20*time.Millisecond))
	assert.NoError(t, page.ExpectURL(ctx, regexp.MustCompile(`storm\.tg`), 20*time.Millisecond))

	err := page.ExpectURL(ctx, regexp.MustCompile(`trade/TON_USDT`), 20*time.Millisecond)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Condition, "trade/TON_USDT")
}

func TestActionsRespectContext(t *testing.T) {
	s, _, _ := newTestSession(t)
	page, _ := s.InitialPage()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, page.Click(ctx, Button("Retry"), time.Second), context.Canceled)
	assert.ErrorIs(t, page.Navigate(ctx, "https://example.com", time.Second), context.Canceled)
}

func TestActionsReportExpiredContextAsTimeout(t *testing.T) {
	s, _, _ := newTestSession(t)
	page, _ := s.InitialPage()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := page.Click(ctx, Button("Retry"), time.Second)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, `button "Retry"`, te.Awaited)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = page.ExpectVisible(ctx, Text("Wallet"), time.Second)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, `text "Wallet" visible`, te.Awaited)
}

func TestNavigateAndViewport(t *testing.T) {
	s, _, site := newTestSession(t)
	page, _ := s.InitialPage()

	require.NoError(t, page.Navigate(context.Background(), "https://example.com/", time.Second))
	assert.Equal(t, "https://example.com/", page.URL())

	require.NoError(t, page.SetViewport(Viewport{}))
	assert.Equal(t, &playwright.Size{Width: 1280, Height: 720}, site.ViewportSize())
	require.NoError(t, page.SetViewport(Viewport{Width: 800, Height: 600}))
	assert.Equal(t, &playwright.Size{Width: 800, Height: 600}, site.ViewportSize())
}

func TestStandingHandlerFiresEachTimeElementAppears(t *testing.T) {
	s, _, site := newTestSession(t)
	page, _ := s.InitialPage()

	reload := site.Button("reload the page").SetVisible(false)
	reload.OnClick = func() error {
		reload.SetVisible(false)
		return nil
	}
	require.NoError(t, page.AddStandingHandler(Button("reload the page")))

	assert.Zero(t, site.FireHandlers(), "absent element never triggers the handler")
	assert.Zero(t, page.Firings(Button("reload the page")))

	for i := 1; i <= 3; i++ {
		reload.SetVisible(true)
		assert.Equal(t, 1, site.FireHandlers())
		assert.Equal(t, i, page.Firings(Button("reload the page")))
	}
	assert.Equal(t, 3, reload.Clicks())
}

func TestPageCloseIsIdempotent(t *testing.T) {
	s, _, site := newTestSession(t)
	page, _ := s.InitialPage()

	require.NoError(t, page.Close())
	require.NoError(t, page.Close())
	assert.True(t, site.IsClosed())

	_, err := s.InitialPage()
	assert.Error(t, err)
	assert.ErrorIs(t, page.Click(context.Background(), Button("x"), time.Second), ErrSessionClosed)
}

func TestAuditLogRedactsFilledValues(t *testing.T) {
	var buf bytes.Buffer
	site := browsertest.NewPage("chrome-extension://wallet/import.html")
	site.El("input").SetCount(2)
	s := NewSession(browsertest.NewContext(site), SessionOptions{
		Engine: EngineChromium,
		Dir:    t.TempDir(),
		Expect: browsertest.Expect{},
		Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	t.Cleanup(func() { _ = s.Close() })
	page, err := s.InitialPage()
	require.NoError(t, err)

	require.NoError(t, page.FillEach(context.Background(), CSS("input"), []string{"hunter22", "hunter22"}, time.Second))
	require.NoError(t, page.Click(context.Background(), CSS("input").FirstMatch(), time.Second))

	logs := buf.String()
	assert.Contains(t, logs, "action=fill")
	assert.Contains(t, logs, "values=2")
	assert.Contains(t, logs, "action=click")
	assert.NotContains(t, logs, "hunter22")
}
