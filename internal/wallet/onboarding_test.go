package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/browser/browsertest"
)

func testPhrase(n int) SeedPhrase {
	words := make(SeedPhrase, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i+1)
	}
	return words
}

// extension scripts the wallet extension's wizard on fake pages.
type extension struct {
	session *browser.Session
	site    *browsertest.Page
	welcome *browsertest.Page
	wizard  *browsertest.Page
	final   *browsertest.Page

	seedFields     []*browsertest.Locator
	passwordFields []*browsertest.Locator
}

func newExtension(t *testing.T) *extension {
	t.Helper()
	e := &extension{
		site:    browsertest.NewPage("https://app.storm.tg/"),
		welcome: browsertest.NewPage("chrome-extension://wallet/index.html"),
		wizard:  browsertest.NewPage("chrome-extension://wallet/import.html"),
		final:   browsertest.NewPage("chrome-extension://wallet/connect.html"),
	}
	bc := browsertest.NewContext(e.site, e.welcome)

	e.welcome.Text("Existing Wallet").OnClick = func() error {
		bc.Open(e.wizard)
		return nil
	}

	inputs := e.wizard.El("input")
	e.seedFields = inputs.SetCount(SeedWords)
	congrats := e.wizard.Text("Congratulations!").SetVisible(false)
	e.wizard.Button("Continue").OnClick = func() error {
		e.passwordFields = inputs.SetCount(passwordFields)
		return nil
	}
	submits := 0
	e.wizard.El("button").OnClick = func() error {
		submits++
		if submits == 2 && e.passwordFields[0].Value() == e.passwordFields[1].Value() {
			congrats.SetVisible(true)
		}
		return nil
	}
	e.site.Button("Retry").OnClick = func() error {
		bc.Open(e.final)
		return nil
	}

	e.session = browser.NewSession(bc, browser.SessionOptions{
		Engine: browser.EngineChromium,
		Dir:    t.TempDir(),
		Expect: browsertest.Expect{},
		Logger: slog.New(slog.DiscardHandler),
	})
	t.Cleanup(func() { _ = e.session.Close() })
	return e
}

func (e *extension) pages(t *testing.T) (site, welcome *browser.Page) {
	t.Helper()
	pages := e.session.ListPages()
	require.Len(t, pages, 2)
	return pages[0], pages[1]
}

func testOptions() Options {
	return Options{
		StepTimeout:   200 * time.Millisecond,
		WindowTimeout: 200 * time.Millisecond,
		Logger:        slog.New(slog.DiscardHandler),
	}
}

func TestOnboardingRestoresWallet(t *testing.T) {
	e := newExtension(t)
	site, welcome := e.pages(t)
	phrase := testPhrase(SeedWords)

	final, err := NewOnboarder(phrase, DefaultCredential(), testOptions()).Run(context.Background(), site, welcome)
	require.NoError(t, err)
	assert.Same(t, e.final, final.PlaywrightPage())

	for i, field := range e.seedFields {
		assert.Equal(t, phrase[i], field.Value(), "word %d lands in field %d", i+1, i+1)
	}
	assert.Equal(t, DefaultPassword, e.passwordFields[0].Value())
	assert.Equal(t, DefaultPassword, e.passwordFields[1].Value())
	assert.Equal(t, 1, e.welcome.Button("Get started").Clicks())
	assert.Equal(t, 2, e.wizard.El("button").Clicks())
	assert.True(t, e.wizard.IsClosed(), "the wizard window is closed once done")
	assert.Equal(t, 1, e.site.Button("Retry").Clicks())
}

func TestOnboardingRejectsWrongPhraseLengthBeforeFilling(t *testing.T) {
	for _, n := range []int{0, 12, 23, 25} {
		e := newExtension(t)
		site, welcome := e.pages(t)

		_, err := NewOnboarder(testPhrase(n), DefaultCredential(), testOptions()).Run(context.Background(), site, welcome)
		var ce *browser.ConfigurationError
		require.ErrorAs(t, err, &ce, "length %d", n)

		assert.Zero(t, e.welcome.Button("Get started").Clicks())
		for _, field := range e.seedFields {
			assert.Empty(t, field.Value())
		}
	}
}

func TestOnboardingPasswordMismatchTimesOut(t *testing.T) {
	e := newExtension(t)
	site, welcome := e.pages(t)
	cred := Credential{Password: "12345678", Confirm: "87654321"}

	_, err := NewOnboarder(testPhrase(SeedWords), cred, testOptions()).Run(context.Background(), site, welcome)

	var ae *browser.AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, browser.StageOnboarding, ae.Stage)
	assert.Contains(t, ae.Condition, "Congratulations!")
	assert.False(t, e.wizard.Text("Congratulations!").Visible())
	assert.False(t, e.wizard.IsClosed())
	assert.Zero(t, e.site.Button("Retry").Clicks())
}

func TestOnboardingWrongSeedInputCount(t *testing.T) {
	e := newExtension(t)
	fields := e.wizard.El("input").SetCount(12)
	site, welcome := e.pages(t)

	_, err := NewOnboarder(testPhrase(SeedWords), DefaultCredential(), testOptions()).Run(context.Background(), site, welcome)

	var ae *browser.AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, browser.StageOnboarding, ae.Stage)
	assert.Contains(t, ae.Condition, "count == 24")
	for _, field := range fields {
		assert.Empty(t, field.Value())
	}
}

func TestOnboardingMissingControlIsTimeout(t *testing.T) {
	e := newExtension(t)
	e.welcome.Button("Get started").SetVisible(false)
	site, welcome := e.pages(t)

	_, err := NewOnboarder(testPhrase(SeedWords), DefaultCredential(), testOptions()).Run(context.Background(), site, welcome)

	var te *browser.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, browser.StageOnboarding, te.Stage)
	assert.Equal(t, `button "Get started"`, te.Awaited)
}

func TestOnboardingExtensionNeverReopens(t *testing.T) {
	e := newExtension(t)
	e.site.Button("Retry").OnClick = nil
	site, welcome := e.pages(t)

	_, err := NewOnboarder(testPhrase(SeedWords), DefaultCredential(), testOptions()).Run(context.Background(), site, welcome)

	var te *browser.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "new window", te.Awaited)
	assert.Equal(t, browser.StageOnboarding, browser.StageOf(err))
}
