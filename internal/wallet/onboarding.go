package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neboloop/walletlink/internal/browser"
)

// Options bounds the onboarding waits.
type Options struct {
	// StepTimeout bounds each click, fill and assertion.
	StepTimeout time.Duration
	// WindowTimeout bounds waiting for an extension window to open.
	WindowTimeout time.Duration
	// LoadTimeout bounds each extension window's initial load.
	LoadTimeout time.Duration
	Logger      *slog.Logger
}

// Onboarder restores a wallet from a seed phrase through the extension's wizard.
type Onboarder struct {
	phrase SeedPhrase
	cred   Credential
	opts   Options
	logger *slog.Logger
}

// NewOnboarder returns an Onboarder entering phrase and cred.
func NewOnboarder(phrase SeedPhrase, cred Credential, opts Options) *Onboarder {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = browser.DefaultActionTimeout
	}
	if opts.WindowTimeout <= 0 {
		opts.WindowTimeout = browser.DefaultWindowTimeout
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = browser.DefaultLoadTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Onboarder{
		phrase: phrase,
		cred:   cred,
		opts:   opts,
		logger: logger.With("component", "onboarding"),
	}
}

// Run drives welcome, the extension window showing the wizard's first screen,
// through the restore path. site is the page that asked for the wallet; it is used
// to re-trigger the extension once the wallet exists. Run returns the extension
// window asking to confirm the connection.
//
// Every step waits for its control; a missing control or a wrong number of
// inputs fails the run. Failures are attributed to the onboarding stage.
func (o *Onboarder) Run(ctx context.Context, site, welcome *browser.Page) (*browser.Page, error) {
	final, err := o.run(ctx, site, welcome)
	if err != nil {
		o.logger.Error("onboarding failed", "error", err)
		return nil, browser.WithStage(err, browser.StageOnboarding)
	}
	return final, nil
}

func (o *Onboarder) run(ctx context.Context, site, welcome *browser.Page) (*browser.Page, error) {
	if err := o.phrase.Validate(); err != nil {
		return nil, err
	}
	session := welcome.Session()
	step := o.opts.StepTimeout

	o.logger.Info("choosing restore path")
	if err := welcome.Click(ctx, getStarted, step); err != nil {
		return nil, err
	}
	entry, err := session.Arm()
	if err != nil {
		return nil, err
	}
	entry.LoadTimeout = o.opts.LoadTimeout
	wizard, err := entry.Await(ctx, func() error {
		return welcome.Click(ctx, existingWallet, step)
	}, o.opts.WindowTimeout)
	if err != nil {
		return nil, fmt.Errorf("open seed entry: %w", err)
	}

	if err := o.enterSeed(ctx, wizard); err != nil {
		o.logger.Debug("wizard state", "diagnostics", wizard.Diagnostics())
		return nil, err
	}
	if err := o.setPassword(ctx, wizard); err != nil {
		o.logger.Debug("wizard state", "diagnostics", wizard.Diagnostics())
		return nil, err
	}

	// Arm before closing: the extension may reopen as soon as the wizard is gone.
	next, err := session.Arm()
	if err != nil {
		return nil, err
	}
	next.LoadTimeout = o.opts.LoadTimeout
	if err := wizard.Close(); err != nil {
		next.Cancel()
		return nil, err
	}

	o.logger.Info("reconnecting from site")
	final, err := next.Await(ctx, func() error {
		return site.Click(ctx, retry, step)
	}, o.opts.WindowTimeout)
	if err != nil {
		return nil, fmt.Errorf("reopen extension: %w", err)
	}
	return final, nil
}

func (o *Onboarder) enterSeed(ctx context.Context, wizard *browser.Page) error {
	step := o.opts.StepTimeout

	o.logger.Info("entering seed phrase", "words", len(o.phrase))
	if err := wizard.ExpectCount(ctx, wizardInputs, SeedWords, step); err != nil {
		return err
	}
	if err := wizard.FillEach(ctx, wizardInputs, o.phrase, step); err != nil {
		return err
	}
	if err := wizard.Click(ctx, wizardSubmit, step); err != nil {
		return err
	}
	return wizard.Click(ctx, wizardContinue, step)
}

func (o *Onboarder) setPassword(ctx context.Context, wizard *browser.Page) error {
	step := o.opts.StepTimeout

	o.logger.Info("setting password")
	if err := wizard.ExpectCount(ctx, wizardInputs, passwordFields, step); err != nil {
		return err
	}
	if err := wizard.FillEach(ctx, wizardInputs, []string{o.cred.Password, o.cred.Confirm}, step); err != nil {
		return err
	}

	// Submitting can navigate away at once, so the success wait starts with the click.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wizard.ExpectVisible(gctx, congratulations, step)
	})
	g.Go(func() error {
		return wizard.Click(gctx, wizardSubmit, step)
	})
	return g.Wait()
}
