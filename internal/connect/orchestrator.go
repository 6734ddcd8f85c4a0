// Package connect links the wallet extension to the target site and verifies the
// site reports the wallet as connected.
package connect

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/wallet"
)

// Options configures an Orchestrator. Zero values take the package defaults.
type Options struct {
	SiteURL      string
	WalletName   string
	ConnectedURL *regexp.Regexp

	// NavigateTimeout bounds the initial page load.
	NavigateTimeout time.Duration
	// StepTimeout bounds each click on the site.
	StepTimeout time.Duration
	// WindowTimeout bounds waiting for the extension window.
	WindowTimeout time.Duration
	// LoadTimeout bounds the extension window's initial load.
	LoadTimeout time.Duration
	// VerifyTimeout bounds each post-connect assertion.
	VerifyTimeout time.Duration

	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.SiteURL == "" {
		o.SiteURL = SiteURL
	}
	if o.WalletName == "" {
		o.WalletName = DefaultWallet
	}
	if o.ConnectedURL == nil {
		o.ConnectedURL = ConnectedRoute
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = browser.DefaultActionTimeout
	}
	if o.StepTimeout <= 0 {
		o.StepTimeout = browser.DefaultActionTimeout
	}
	if o.WindowTimeout <= 0 {
		o.WindowTimeout = browser.DefaultWindowTimeout
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = browser.DefaultLoadTimeout
	}
	if o.VerifyTimeout <= 0 {
		o.VerifyTimeout = browser.DefaultActionTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Orchestrator walks the site from first load to a connected wallet.
type Orchestrator struct {
	onboarder *wallet.Onboarder
	opts      Options
	logger    *slog.Logger

	mu    sync.Mutex
	state State
}

// New returns an Orchestrator that hands the extension window to onboarder.
func New(onboarder *wallet.Onboarder, opts Options) *Orchestrator {
	opts.applyDefaults()
	return &Orchestrator{
		onboarder: onboarder,
		opts:      opts,
		logger:    opts.Logger.With("component", "connect"),
	}
}

// State returns the last state the flow reached.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) enter(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.logger.Info("connect state", "state", s.String())
}

// Connect drives the session's initial page through the site's connect flow and
// returns it once the site shows the wallet as connected. Onboarding failures keep
// their onboarding stage; everything else is attributed to the connection stage.
func (o *Orchestrator) Connect(ctx context.Context, s *browser.Session) (*browser.Page, error) {
	site, err := s.InitialPage()
	if err != nil {
		return nil, err
	}
	if err := o.connect(ctx, site); err != nil {
		o.logger.Error("connect failed", "state", o.State().String(), "error", err)
		o.logger.Debug("site state", "diagnostics", site.Diagnostics())
		return nil, browser.WithStage(err, browser.StageConnection)
	}
	return site, nil
}

func (o *Orchestrator) connect(ctx context.Context, site *browser.Page) error {
	step := o.opts.StepTimeout

	if err := site.Navigate(ctx, o.opts.SiteURL, o.opts.NavigateTimeout); err != nil {
		return err
	}
	o.enter(Loaded)

	// The mobile layout asks to continue in the browser, possibly more than once.
	if err := site.AddStandingHandler(continueInBrowser); err != nil {
		return err
	}
	if err := site.Click(ctx, connectEntry, step); err != nil {
		return err
	}
	o.enter(ConnectPrompted)

	if err := site.Click(ctx, walletTile(o.opts.WalletName), step); err != nil {
		return err
	}
	o.enter(ExtensionChosen)

	next, err := site.Session().Arm()
	if err != nil {
		return err
	}
	next.LoadTimeout = o.opts.LoadTimeout
	welcome, err := next.Await(ctx, func() error {
		return site.Click(ctx, browserExtension, step)
	}, o.opts.WindowTimeout)
	if err != nil {
		return fmt.Errorf("open extension: %w", err)
	}
	o.enter(AwaitingOnboarding)
	final, err := o.onboarder.Run(ctx, site, welcome)
	if err != nil {
		return err
	}
	if err := final.Click(ctx, wallet.ConnectWallet, step); err != nil {
		return err
	}

	if err := site.AddStandingHandler(reloadPage); err != nil {
		return err
	}
	if err := o.Verify(ctx, site); err != nil {
		return err
	}
	o.enter(Connected)
	return nil
}

// Verify asserts the site shows a connected wallet: the post-connect route, no
// "Connect wallet" prompt and a "Wallet" label. Failures are attributed to the
// connection stage.
func (o *Orchestrator) Verify(ctx context.Context, site *browser.Page) error {
	d := o.opts.VerifyTimeout

	err := site.ExpectURL(ctx, o.opts.ConnectedURL, d)
	if err == nil {
		err = site.ExpectHidden(ctx, connectLabel, d)
	}
	if err == nil {
		err = site.ExpectVisible(ctx, walletLabel, d)
	}
	return browser.WithStage(err, browser.StageConnection)
}
