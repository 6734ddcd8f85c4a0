package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	// Playwright driver (singleton per process)
	pwOnce     sync.Once
	pwInstance *playwright.Playwright
	pwErr      error
)

// Driver returns the process-wide Playwright driver, starting it on first use.
// With install set, the driver and the browsers for engines are installed first.
func Driver(install bool, engines ...Engine) (*playwright.Playwright, error) {
	pwOnce.Do(func() {
		if install {
			browsers := make([]string, 0, len(engines))
			for _, e := range engines {
				browsers = append(browsers, string(e.Family()))
			}
			if err := playwright.Install(&playwright.RunOptions{Browsers: browsers}); err != nil {
				pwErr = fmt.Errorf("failed to install playwright browsers: %w", err)
				return
			}
		}

		pw, err := playwright.Run()
		if err != nil {
			pwErr = fmt.Errorf("failed to start playwright: %w", err)
			return
		}
		pwInstance = pw
	})

	return pwInstance, pwErr
}

// StopDriver stops the process-wide driver if it was started.
func StopDriver() error {
	if pwInstance == nil {
		return nil
	}
	return pwInstance.Stop()
}

// Launcher starts persistent sessions with the wallet extension pre-installed.
type Launcher struct {
	// browserType resolves the Playwright browser type for an engine family.
	browserType func(family Engine) playwright.BrowserType
	now         func() time.Time
	expect      Expect
	logger      *slog.Logger
}

// NewLauncher returns a Launcher using pw's browser types.
func NewLauncher(pw *playwright.Playwright, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		browserType: func(family Engine) playwright.BrowserType {
			if family == EngineFirefox {
				return pw.Firefox
			}
			return pw.Chromium
		},
		now:    time.Now,
		logger: logger.With("component", "launcher"),
	}
}

// Launch starts a session for cfg with exactly one page open. It fails before
// touching the browser if the engine is unknown or the extension artifact is missing.
func (l *Launcher) Launch(ctx context.Context, cfg LaunchConfig) (*Session, error) {
	opts, err := cfg.contextOptions()
	if err != nil {
		return nil, err
	}
	if err := cfg.checkArtifact(); err != nil {
		return nil, &LaunchError{Engine: cfg.Engine, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := l.makeProfileDir(cfg)
	if err != nil {
		return nil, &LaunchError{Engine: cfg.Engine, Dir: dir, Err: err}
	}
	if d, err := remaining(ctx, DefaultLaunchTimeout, "browser launch"); err == nil {
		opts.Timeout = ms(d)
	}

	logger := l.logger.With("engine", cfg.Engine, "dir", dir)
	logger.Info("launching persistent context", "extension", cfg.ExtensionPath, "mobile", cfg.IsMobile)

	bc, err := l.browserType(cfg.Engine.Family()).LaunchPersistentContext(dir, opts)
	if err != nil {
		_ = RemoveProfile(dir)
		return nil, &LaunchError{Engine: cfg.Engine, Dir: dir, Err: err}
	}

	if len(bc.Pages()) == 0 {
		if _, err := bc.NewPage(); err != nil {
			_ = bc.Close()
			_ = RemoveProfile(dir)
			return nil, &LaunchError{Engine: cfg.Engine, Dir: dir, Err: fmt.Errorf("open initial page: %w", err)}
		}
	}

	session := NewSession(bc, SessionOptions{
		Engine: cfg.Engine,
		Dir:    dir,
		Expect: l.expect,
		Logger: l.logger,
	})
	logger.Info("session started", "session", session.ID())
	return session, nil
}

// makeProfileDir creates the profile directory. Two sessions landing on the same
// millisecond for the same project and worker move to the next free millisecond.
func (l *Launcher) makeProfileDir(cfg LaunchConfig) (string, error) {
	stamp := l.now().UnixMilli()
	dir := ProfileDir(cfg.ProfileRoot, cfg.Project, cfg.Worker, stamp)
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return dir, fmt.Errorf("create profile parent: %w", err)
	}

	for {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return dir, fmt.Errorf("create profile dir: %w", err)
		}
		stamp++
		dir = ProfileDir(cfg.ProfileRoot, cfg.Project, cfg.Worker, stamp)
	}
}
