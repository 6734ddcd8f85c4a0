// Package config loads walletlink.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/connect"
	"github.com/neboloop/walletlink/internal/defaults"
	"github.com/neboloop/walletlink/internal/wallet"
)

// DefaultBootstrapTimeout bounds launching, onboarding and connecting one session.
const DefaultBootstrapTimeout = 90 * time.Second

type Config struct {
	Site struct {
		URL            string `yaml:"url"`
		ConnectedRoute string `yaml:"connectedRoute"`
		Wallet         string `yaml:"wallet"`
	} `yaml:"site"`
	Browser struct {
		Engine         string           `yaml:"engine"`
		Headless       bool             `yaml:"headless"`
		ExtensionDir   string           `yaml:"extensionDir"`
		ProfileRoot    string           `yaml:"profileRoot"`
		Project        string           `yaml:"project"`
		Worker         int              `yaml:"worker"`
		Mobile         bool             `yaml:"mobile"`
		UserAgent      string           `yaml:"userAgent"`
		Viewport       browser.Viewport `yaml:"viewport"`
		Install        bool             `yaml:"install"`
		ExecutablePath string           `yaml:"executablePath"`
	} `yaml:"browser"`
	Wallet struct {
		Password        string `yaml:"password"`
		ConfirmPassword string `yaml:"confirmPassword"`
	} `yaml:"wallet"`
	Timeouts struct {
		Bootstrap time.Duration `yaml:"bootstrap"`
		Navigate  time.Duration `yaml:"navigate"`
		Window    time.Duration `yaml:"window"`
		Load      time.Duration `yaml:"load"`
		Step      time.Duration `yaml:"step"`
		Verify    time.Duration `yaml:"verify"`
	} `yaml:"timeouts"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Watch struct {
		Schedule string `yaml:"schedule"`
		History  int    `yaml:"history"`
	} `yaml:"watch"`
}

// Load reads the configuration at path. An empty path means the default location;
// a missing file there falls back to the embedded defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := defaults.ConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		data, err = defaults.GetDefault(defaults.ConfigFile)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	c.applyEnv()
	if err := c.applyDefaults(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// applyEnv lets WALLETLINK_* variables override the file, the way CI selects an
// engine per job.
func (c *Config) applyEnv() {
	if v := os.Getenv("WALLETLINK_ENGINE"); v != "" {
		c.Browser.Engine = v
	}
	if v := os.Getenv("WALLETLINK_EXTENSION_DIR"); v != "" {
		c.Browser.ExtensionDir = v
	}
	if v := os.Getenv("WALLETLINK_PROJECT"); v != "" {
		c.Browser.Project = v
	}
	c.Browser.Headless = parseBool(os.Getenv("WALLETLINK_HEADLESS"), c.Browser.Headless)
	c.Browser.Mobile = parseBool(os.Getenv("WALLETLINK_MOBILE"), c.Browser.Mobile)
}

func (c *Config) applyDefaults() error {
	if c.Site.URL == "" {
		c.Site.URL = connect.SiteURL
	}
	if c.Site.ConnectedRoute == "" {
		c.Site.ConnectedRoute = connect.ConnectedRoute.String()
	}
	if c.Site.Wallet == "" {
		c.Site.Wallet = connect.DefaultWallet
	}
	if c.Browser.Engine == "" {
		c.Browser.Engine = string(browser.EngineChromium)
	}
	if c.Browser.Project == "" {
		c.Browser.Project = browser.DefaultProject
	}
	if c.Browser.Viewport.Width == 0 || c.Browser.Viewport.Height == 0 {
		c.Browser.Viewport = browser.DefaultViewport()
	}
	if c.Browser.ProfileRoot == "" {
		root, err := defaults.ProfileRoot()
		if err != nil {
			return err
		}
		c.Browser.ProfileRoot = root
	}
	if c.Browser.ExtensionDir == "" {
		dir, err := defaults.ExtensionDir(strings.ToLower(c.Browser.Engine))
		if err != nil {
			return err
		}
		c.Browser.ExtensionDir = dir
	}
	if c.Wallet.Password == "" {
		c.Wallet.Password = wallet.DefaultPassword
	}
	if c.Wallet.ConfirmPassword == "" {
		c.Wallet.ConfirmPassword = c.Wallet.Password
	}
	setDuration(&c.Timeouts.Bootstrap, DefaultBootstrapTimeout)
	setDuration(&c.Timeouts.Navigate, browser.DefaultActionTimeout)
	setDuration(&c.Timeouts.Window, browser.DefaultWindowTimeout)
	setDuration(&c.Timeouts.Load, browser.DefaultLoadTimeout)
	setDuration(&c.Timeouts.Step, browser.DefaultActionTimeout)
	setDuration(&c.Timeouts.Verify, browser.DefaultActionTimeout)
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 */15 * * * *"
	}
	if c.Watch.History <= 0 {
		c.Watch.History = 20
	}
	return nil
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

// Validate rejects values no run could succeed with.
func (c Config) Validate() error {
	if _, err := browser.ParseEngine(c.Browser.Engine); err != nil {
		return err
	}
	if _, err := regexp.Compile(c.Site.ConnectedRoute); err != nil {
		return &browser.ConfigurationError{Field: "site.connectedRoute", Value: c.Site.ConnectedRoute, Err: err}
	}
	if c.Browser.Worker < 0 {
		return &browser.ConfigurationError{Field: "browser.worker", Value: fmt.Sprint(c.Browser.Worker), Err: errors.New("must not be negative")}
	}
	return nil
}

// Engine returns the configured engine. Validate has already accepted it.
func (c Config) Engine() browser.Engine {
	e, _ := browser.ParseEngine(c.Browser.Engine)
	return e
}

// ConnectedURL returns the compiled post-connect route.
func (c Config) ConnectedURL() *regexp.Regexp {
	return regexp.MustCompile(c.Site.ConnectedRoute)
}

// Credential returns the wallet password pair.
func (c Config) Credential() wallet.Credential {
	return wallet.Credential{Password: c.Wallet.Password, Confirm: c.Wallet.ConfirmPassword}
}

// LaunchConfig builds the session launch parameters.
func (c Config) LaunchConfig() browser.LaunchConfig {
	return browser.LaunchConfig{
		Engine:         c.Engine(),
		ExtensionPath:  c.Browser.ExtensionDir,
		IsMobile:       c.Browser.Mobile,
		UserAgent:      c.Browser.UserAgent,
		Viewport:       c.Browser.Viewport,
		Headless:       c.Browser.Headless,
		ProfileRoot:    c.Browser.ProfileRoot,
		Project:        c.Browser.Project,
		Worker:         c.Browser.Worker,
		ExecutablePath: c.Browser.ExecutablePath,
	}
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty returns default; anything else is false.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}
