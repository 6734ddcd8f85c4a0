package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Engine identifies the browser a session runs in.
type Engine string

const (
	EngineChromium Engine = "chromium"
	EngineChrome   Engine = "chrome"
	EngineEdge     Engine = "edge"
	EngineFirefox  Engine = "firefox"
)

// Viewport is the page geometry in CSS pixels.
type Viewport struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DefaultViewport returns the fixed desktop viewport.
func DefaultViewport() Viewport {
	return Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
}

// LaunchConfig is everything needed to start one session. It is built once and not
// modified afterwards.
type LaunchConfig struct {
	Engine Engine

	// ExtensionPath is an unpacked extension directory for the chromium family, or a
	// directory holding FirefoxExtensionFile for firefox.
	ExtensionPath string

	IsMobile  bool
	UserAgent string
	Viewport  Viewport
	Headless  bool

	// ProfileRoot, Project and Worker place the profile directory on disk.
	ProfileRoot string
	Project     string
	Worker      int

	// ExecutablePath overrides the browser binary Playwright would pick.
	ExecutablePath string
}

// extensionOptions builds the engine-specific part of the persistent context options.
type extensionOptions func(extensionPath string) playwright.BrowserTypeLaunchPersistentContextOptions

// launchStrategy is one row of the engine table.
type launchStrategy struct {
	// family selects the Playwright browser type.
	family Engine
	// channel is the Playwright distribution channel, if any.
	channel string
	// artifact returns the path that must exist before launching.
	artifact func(extensionPath string) string
	options  extensionOptions
}

// strategies is the closed engine mapping. Adding an engine is adding a row.
var strategies = map[Engine]launchStrategy{
	EngineChromium: {family: EngineChromium, artifact: unpackedArtifact, options: chromiumOptions},
	EngineChrome:   {family: EngineChromium, channel: "chrome", artifact: unpackedArtifact, options: chromiumOptions},
	EngineEdge:     {family: EngineChromium, channel: "msedge", artifact: unpackedArtifact, options: chromiumOptions},
	EngineFirefox:  {family: EngineFirefox, artifact: packagedArtifact, options: firefoxOptions},
}

// ParseEngine resolves an engine name. Unknown names are a configuration error.
func ParseEngine(name string) (Engine, error) {
	e := Engine(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := strategies[e]; !ok {
		return "", &ConfigurationError{Field: "engine", Value: name, Err: fmt.Errorf("unsupported browser")}
	}
	return e, nil
}

// Engines lists the supported engine names.
func Engines() []string {
	return []string{string(EngineChromium), string(EngineChrome), string(EngineEdge), string(EngineFirefox)}
}

// Family reports the Playwright browser family the engine launches.
func (e Engine) Family() Engine {
	if s, ok := strategies[e]; ok {
		return s.family
	}
	return ""
}

func chromiumOptions(extensionPath string) playwright.BrowserTypeLaunchPersistentContextOptions {
	return playwright.BrowserTypeLaunchPersistentContextOptions{
		Args: []string{
			"--disable-extensions-except=" + extensionPath,
			"--load-extension=" + extensionPath,
			"--no-sandbox",
		},
	}
}

func firefoxOptions(extensionPath string) playwright.BrowserTypeLaunchPersistentContextOptions {
	return playwright.BrowserTypeLaunchPersistentContextOptions{
		FirefoxUserPrefs: map[string]interface{}{
			"xpinstall.signatures.required":    false,
			"devtools.debugger.remote-enabled": true,
			"extensions.autoDisableScopes":     0,
			"extensions.logging.enabled":       true,
			"devtools.chrome.enabled":          true,
			"extensions.enabledAddons":         FirefoxExtensionID,
		},
		Args: []string{"-install-extension", packagedArtifact(extensionPath)},
	}
}

func unpackedArtifact(extensionPath string) string {
	return extensionPath
}

func packagedArtifact(extensionPath string) string {
	if strings.EqualFold(filepath.Ext(extensionPath), ".xpi") {
		return extensionPath
	}
	return filepath.Join(extensionPath, FirefoxExtensionFile)
}

// contextOptions resolves the full persistent context options for cfg.
func (cfg LaunchConfig) contextOptions() (playwright.BrowserTypeLaunchPersistentContextOptions, error) {
	strategy, ok := strategies[cfg.Engine]
	if !ok {
		return playwright.BrowserTypeLaunchPersistentContextOptions{},
			&ConfigurationError{Field: "engine", Value: string(cfg.Engine), Err: fmt.Errorf("unsupported browser")}
	}

	opts := strategy.options(cfg.ExtensionPath)
	if strategy.channel != "" {
		opts.Channel = playwright.String(strategy.channel)
	}
	if cfg.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(cfg.ExecutablePath)
	}

	viewport := cfg.Viewport
	if viewport.Width == 0 || viewport.Height == 0 {
		viewport = DefaultViewport()
	}

	opts.Headless = playwright.Bool(cfg.Headless)
	opts.IsMobile = playwright.Bool(false)
	opts.Viewport = &playwright.Size{Width: viewport.Width, Height: viewport.Height}
	if cfg.IsMobile {
		opts.UserAgent = playwright.String(DesktopUserAgent)
	} else if cfg.UserAgent != "" {
		opts.UserAgent = playwright.String(cfg.UserAgent)
	}
	opts.Timeout = playwright.Float(float64(DefaultLaunchTimeout.Milliseconds()))

	return opts, nil
}

// checkArtifact verifies the engine-compatible extension artifact exists.
func (cfg LaunchConfig) checkArtifact() error {
	strategy := strategies[cfg.Engine]
	path := strategy.artifact(cfg.ExtensionPath)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("extension artifact: %w", err)
	}
	if strategy.family == EngineChromium && !info.IsDir() {
		return fmt.Errorf("extension artifact %s: unpacked directory expected", path)
	}
	if strategy.family == EngineFirefox && info.IsDir() {
		return fmt.Errorf("extension artifact %s: packaged .xpi expected", path)
	}
	return nil
}

// ProfileDir derives the profile directory for one session. The same inputs always
// yield the same path; uniqueness comes from the millisecond timestamp.
func ProfileDir(root, project string, worker int, unixMillis int64) string {
	if root == "" {
		root = DefaultProfileRoot
	}
	if project == "" {
		project = DefaultProject
	}
	return filepath.Join(root, project, fmt.Sprintf("%d", worker), fmt.Sprintf("%d", unixMillis))
}
