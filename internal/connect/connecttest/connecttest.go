// Package connecttest scripts the target site and the wallet extension on fake
// pages, so the connect flow can run end to end without a browser.
package connecttest

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/browser/browsertest"
)

// ConnectedURL is where the site lands once the wallet is linked.
const ConnectedURL = "https://app.storm.tg/trade/TON_USDT"

// Scenario is one site plus extension pair. Each control behaves like the real one
// does on the happy path; tests break individual controls to exercise failures.
type Scenario struct {
	Context *browsertest.Context
	Site    *browsertest.Page
	Welcome *browsertest.Page
	Wizard  *browsertest.Page
	Final   *browsertest.Page

	mu             sync.Mutex
	seedFields     []*browsertest.Locator
	passwordFields []*browsertest.Locator
	submits        int
}

// New returns a scenario whose site page is open and blank.
func New() *Scenario {
	s := &Scenario{
		Site:    browsertest.NewPage("about:blank"),
		Welcome: browsertest.NewPage("chrome-extension://wallet/index.html"),
		Wizard:  browsertest.NewPage("chrome-extension://wallet/import.html"),
		Final:   browsertest.NewPage("chrome-extension://wallet/connect.html"),
	}
	s.Context = browsertest.NewContext(s.Site)
	s.scriptSite()
	s.scriptExtension()
	return s
}

func (s *Scenario) scriptSite() {
	site := s.Site

	site.Button("Continue").SetVisible(false).OnClick = func() error {
		site.Button("Continue").SetVisible(false)
		return nil
	}
	site.Button("reload the page").SetVisible(false).OnClick = func() error {
		site.Button("reload the page").SetVisible(false)
		return nil
	}
	site.Text("Wallet").SetVisible(false)
	site.Text("Connect wallet")

	// Playwright checks locator handlers before each action.
	site.Button("connect wallet").OnClick = func() error {
		site.FireHandlers()
		return nil
	}
	site.Button("tonkeeper")
	site.Button("Browser Extension").OnClick = func() error {
		s.Context.Open(s.Welcome)
		return nil
	}
	site.Button("Retry").OnClick = func() error {
		s.Context.Open(s.Final)
		return nil
	}

	s.Final.Button("Connect wallet").OnClick = func() error {
		site.SetURL(ConnectedURL)
		site.Text("Connect wallet").SetVisible(false)
		site.Text("Wallet").SetVisible(true)
		return nil
	}
}

func (s *Scenario) scriptExtension() {
	s.Welcome.Button("Get started")
	s.Welcome.Text("Existing Wallet").OnClick = func() error {
		s.Context.Open(s.Wizard)
		return nil
	}

	inputs := s.Wizard.El("input")
	s.seedFields = inputs.SetCount(24)
	congrats := s.Wizard.Text("Congratulations!").SetVisible(false)
	s.Wizard.Button("Continue").OnClick = func() error {
		fields := inputs.SetCount(2)
		s.mu.Lock()
		s.passwordFields = fields
		s.mu.Unlock()
		return nil
	}
	s.Wizard.El("button").OnClick = func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.submits++
		if s.submits == 2 && s.passwordFields[0].Value() == s.passwordFields[1].Value() {
			congrats.SetVisible(true)
		}
		return nil
	}
}

// SeedFields returns the seed-entry inputs.
func (s *Scenario) SeedFields() []*browsertest.Locator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedFields
}

// PasswordFields returns the password inputs, once the wizard has shown them.
func (s *Scenario) PasswordFields() []*browsertest.Locator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwordFields
}

// Session wraps the scenario's context in a session closed at the end of the test.
func (s *Scenario) Session(t testing.TB) *browser.Session {
	t.Helper()
	session := browser.NewSession(s.Context, browser.SessionOptions{
		Engine: browser.EngineChromium,
		Dir:    t.TempDir(),
		Expect: browsertest.Expect{},
		Logger: slog.New(slog.DiscardHandler),
	})
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// Phrase returns a well-formed 24-word phrase.
func Phrase() []string {
	words := make([]string, 24)
	for i := range words {
		words[i] = "word" + string(rune('a'+i))
	}
	return words
}
