// Package fixture hands tests a page already connected to the site with a freshly
// restored wallet, and tears it down afterwards.
//
//	func TestTrade(t *testing.T) {
//		page := fixture.Ready(t, fixture.Options{Config: cfg})
//		...
//	}
package fixture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/config"
	"github.com/neboloop/walletlink/internal/connect"
	"github.com/neboloop/walletlink/internal/defaults"
	"github.com/neboloop/walletlink/internal/wallet"
)

// SessionLauncher starts one persistent session.
type SessionLauncher interface {
	Launch(ctx context.Context, cfg browser.LaunchConfig) (*browser.Session, error)
}

// Options configures a bootstrap.
type Options struct {
	Config config.Config

	// Launcher defaults to Playwright's, started on first use.
	Launcher SessionLauncher
	// Phrase defaults to wallet.LoadSeedPhrase.
	Phrase wallet.SeedPhrase

	Logger *slog.Logger
}

// Connected is a session whose site page has a linked wallet.
type Connected struct {
	Session *browser.Session
	Page    *browser.Page
}

// Close closes the page, then the session, removing its profile directory.
func (c *Connected) Close() error {
	return errors.Join(c.Page.Close(), c.Session.Close())
}

// Bootstrap launches a session, restores the wallet and connects it to the site,
// all within the configured bootstrap bound. On failure nothing is left behind.
func Bootstrap(ctx context.Context, opts Options) (*Connected, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "fixture")

	phrase := opts.Phrase
	if phrase == nil {
		p, err := wallet.LoadSeedPhrase()
		if err != nil {
			return nil, err
		}
		phrase = p
	}
	if err := phrase.Validate(); err != nil {
		return nil, err
	}

	launcher := opts.Launcher
	if launcher == nil {
		pw, err := browser.Driver(cfg.Browser.Install, cfg.Engine())
		if err != nil {
			return nil, &browser.LaunchError{Engine: cfg.Engine(), Err: err}
		}
		launcher = browser.NewLauncher(pw, logger)
	}

	timeout := cfg.Timeouts.Bootstrap
	if timeout <= 0 {
		timeout = config.DefaultBootstrapTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := launcher.Launch(ctx, cfg.LaunchConfig())
	if err != nil {
		logger.Error("launch failed", "engine", cfg.Engine(), "error", err)
		return nil, err
	}

	page, err := connectSession(ctx, session, phrase, cfg, logger)
	if err != nil {
		logFailure(ctx, logger, session, err)
		_ = session.Close()
		return nil, err
	}

	logger.Info("session ready", "session", session.ID(), "url", page.URL())
	return &Connected{Session: session, Page: page}, nil
}

func connectSession(ctx context.Context, session *browser.Session, phrase wallet.SeedPhrase, cfg config.Config, logger *slog.Logger) (*browser.Page, error) {
	onboarder := wallet.NewOnboarder(phrase, cfg.Credential(), wallet.Options{
		StepTimeout:   cfg.Timeouts.Step,
		WindowTimeout: cfg.Timeouts.Window,
		LoadTimeout:   cfg.Timeouts.Load,
		Logger:        logger,
	})
	orchestrator := connect.New(onboarder, connect.Options{
		SiteURL:         cfg.Site.URL,
		WalletName:      cfg.Site.Wallet,
		ConnectedURL:    cfg.ConnectedURL(),
		NavigateTimeout: cfg.Timeouts.Navigate,
		StepTimeout:     cfg.Timeouts.Step,
		WindowTimeout:   cfg.Timeouts.Window,
		LoadTimeout:     cfg.Timeouts.Load,
		VerifyTimeout:   cfg.Timeouts.Verify,
		Logger:          logger,
	})

	page, err := orchestrator.Connect(ctx, session)
	if err != nil {
		return nil, err
	}
	// The engine may have resized the window during onboarding.
	if err := page.SetViewport(cfg.Browser.Viewport); err != nil {
		return nil, err
	}
	return page, nil
}

// logFailure records what every open page looked like when bootstrap failed.
func logFailure(ctx context.Context, logger *slog.Logger, session *browser.Session, err error) {
	logger.Error("bootstrap failed", "stage", browser.StageOf(err), "error", err)
	for _, p := range session.ListPages() {
		logger.Info("page at failure", "diagnostics", p.Diagnostics())
		if !logger.Enabled(ctx, slog.LevelDebug) {
			continue
		}
		if snapshot, err := p.Snapshot(); err == nil {
			logger.Debug("page snapshot", "page", p.TargetID(), "snapshot", snapshot)
		}
	}
}

// Ready bootstraps a connected page for t and closes it when t finishes. A failed
// bootstrap fails t, naming the stage that broke.
func Ready(t testing.TB, opts Options) *browser.Page {
	t.Helper()

	c, err := Bootstrap(context.Background(), opts)
	require.NoError(t, err, "bootstrap failed in stage %q", browser.StageOf(err))

	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("fixture teardown: %v", err)
		}
	})
	return c.Page
}

// Sweep removes the whole profile root. A root that no longer exists is fine.
func Sweep(root string) error {
	if root == "" {
		r, err := defaults.ProfileRoot()
		if err != nil {
			return err
		}
		root = r
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("sweep %s: %w", root, err)
	}
	return nil
}

// Main runs the package's tests and then sweeps root. Call it from TestMain.
func Main(m *testing.M, root string) {
	code := m.Run()
	if err := Sweep(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	_ = browser.StopDriver()
	os.Exit(code)
}
