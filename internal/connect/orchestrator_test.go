package connect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/connect/connecttest"
	"github.com/neboloop/walletlink/internal/wallet"
)

func newOrchestrator(cred wallet.Credential) *Orchestrator {
	logger := slog.New(slog.DiscardHandler)
	onboarder := wallet.NewOnboarder(connecttest.Phrase(), cred, wallet.Options{
		StepTimeout:   200 * time.Millisecond,
		WindowTimeout: 200 * time.Millisecond,
		Logger:        logger,
	})
	return New(onboarder, Options{
		StepTimeout:   200 * time.Millisecond,
		WindowTimeout: 200 * time.Millisecond,
		VerifyTimeout: 200 * time.Millisecond,
		Logger:        logger,
	})
}

func TestConnect(t *testing.T) {
	sc := connecttest.New()
	session := sc.Session(t)
	o := newOrchestrator(wallet.DefaultCredential())

	page, err := o.Connect(context.Background(), session)
	require.NoError(t, err)

	assert.Same(t, sc.Site, page.PlaywrightPage())
	assert.Equal(t, connecttest.ConnectedURL, page.URL())
	assert.Equal(t, Connected, o.State())

	assert.Equal(t, 1, sc.Site.Button("connect wallet").Clicks())
	assert.Equal(t, 1, sc.Site.Button("tonkeeper").Clicks())
	assert.Equal(t, 1, sc.Site.Button("Browser Extension").Clicks())
	assert.Equal(t, 1, sc.Final.Button("Connect wallet").Clicks(), "the final popup is confirmed exactly once")
	assert.True(t, sc.Wizard.IsClosed())
	assert.Equal(t, 1, sc.Welcome.Loads(), "the extension window is returned after its load")
}

func TestConnectIsRepeatable(t *testing.T) {
	var urls []string
	for i := 0; i < 2; i++ {
		sc := connecttest.New()
		o := newOrchestrator(wallet.DefaultCredential())

		page, err := o.Connect(context.Background(), sc.Session(t))
		require.NoError(t, err, "run %d", i+1)
		assert.Equal(t, Connected, o.State())
		urls = append(urls, page.URL())
	}
	assert.Equal(t, urls[0], urls[1])
}

func TestConnectDismissesContinuePrompt(t *testing.T) {
	sc := connecttest.New()
	sc.Site.Button("Continue").SetVisible(true)
	session := sc.Session(t)

	page, err := newOrchestrator(wallet.DefaultCredential()).Connect(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Firings(continueInBrowser))

	// The prompt may come back at any time; the handler stays registered.
	sc.Site.Button("Continue").SetVisible(true)
	sc.Site.FireHandlers()
	assert.Equal(t, 2, page.Firings(continueInBrowser))
}

func TestConnectClicksReloadWhenOffered(t *testing.T) {
	sc := connecttest.New()
	page, err := newOrchestrator(wallet.DefaultCredential()).Connect(context.Background(), sc.Session(t))
	require.NoError(t, err)
	assert.Zero(t, page.Firings(reloadPage))

	sc.Site.Button("reload the page").SetVisible(true)
	sc.Site.FireHandlers()
	assert.Equal(t, 1, page.Firings(reloadPage))
	assert.False(t, sc.Site.Button("reload the page").Visible())
}

func TestConnectVerificationFailure(t *testing.T) {
	sc := connecttest.New()
	sc.Final.Button("Connect wallet").OnClick = nil
	o := newOrchestrator(wallet.DefaultCredential())

	_, err := o.Connect(context.Background(), sc.Session(t))

	var ae *browser.AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, browser.StageConnection, ae.Stage)
	assert.Contains(t, ae.Condition, "url matches")
	assert.Equal(t, AwaitingOnboarding, o.State())
}

func TestVerifyStillShowingConnectPrompt(t *testing.T) {
	sc := connecttest.New()
	session := sc.Session(t)
	site, err := session.InitialPage()
	require.NoError(t, err)
	sc.Site.SetURL(connecttest.ConnectedURL)

	err = newOrchestrator(wallet.DefaultCredential()).Verify(context.Background(), site)

	var ae *browser.AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, browser.StageConnection, ae.Stage)
	assert.Equal(t, `text "Connect wallet" (first) not visible`, ae.Condition)
}

func TestConnectOnboardingFailureKeepsItsStage(t *testing.T) {
	sc := connecttest.New()
	o := newOrchestrator(wallet.Credential{Password: "12345678", Confirm: "00000000"})

	_, err := o.Connect(context.Background(), sc.Session(t))

	require.Error(t, err)
	assert.Equal(t, browser.StageOnboarding, browser.StageOf(err))
	assert.Equal(t, AwaitingOnboarding, o.State())
	assert.Zero(t, sc.Final.Button("Connect wallet").Clicks())
}

func TestConnectMissingWalletTile(t *testing.T) {
	sc := connecttest.New()
	sc.Site.Button("tonkeeper").SetVisible(false)
	o := newOrchestrator(wallet.DefaultCredential())

	_, err := o.Connect(context.Background(), sc.Session(t))

	var te *browser.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, browser.StageConnection, te.Stage)
	assert.Equal(t, `button "tonkeeper"`, te.Awaited)
	assert.Equal(t, ConnectPrompted, o.State())
}

func TestConnectExtensionWindowNeverOpens(t *testing.T) {
	sc := connecttest.New()
	sc.Site.Button("Browser Extension").OnClick = nil
	o := newOrchestrator(wallet.DefaultCredential())

	_, err := o.Connect(context.Background(), sc.Session(t))

	var te *browser.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "new window", te.Awaited)
	assert.Equal(t, browser.StageConnection, te.Stage)
	assert.Equal(t, ExtensionChosen, o.State())
}

func TestConnectNavigationTimeout(t *testing.T) {
	sc := connecttest.New()
	sc.Site.GotoErr = fmt.Errorf("%w: page.goto", playwright.ErrTimeout)

	_, err := newOrchestrator(wallet.DefaultCredential()).Connect(context.Background(), sc.Session(t))

	var te *browser.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "navigation to "+SiteURL, te.Awaited)
	assert.Equal(t, browser.StageConnection, browser.StageOf(err))
}

func TestConnectClosedSession(t *testing.T) {
	sc := connecttest.New()
	session := sc.Session(t)
	require.NoError(t, session.Close())

	_, err := newOrchestrator(wallet.DefaultCredential()).Connect(context.Background(), session)
	assert.True(t, errors.Is(err, browser.ErrSessionClosed))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "unknown", State(42).String())
}
