// Package browser launches persistent Playwright sessions with a wallet extension
// pre-installed and tracks the windows that extension opens.
package browser

import "time"

// Profile defaults.
const (
	// DefaultProfileRoot is the working-directory-relative parent of all session profiles.
	DefaultProfileRoot = "user-data"

	// DefaultProject names the profile subtree when no project is configured.
	DefaultProject = "default"

	// DefaultViewportWidth and DefaultViewportHeight are the fixed desktop geometry
	// every session is launched and finished with.
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720

	// DesktopUserAgent replaces the user agent when mobile emulation is requested.
	// Extensions do not load in mobile contexts, so the session stays a desktop one.
	DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36"
)

// Firefox extension packaging.
const (
	// FirefoxExtensionID is the add-on ID enabled through firefox preferences.
	FirefoxExtensionID = "wallet@tonkeeper.com"

	// FirefoxExtensionFile is the packaged add-on expected inside the extension directory.
	FirefoxExtensionFile = "tonkeeper.xpi"
)

// Wait bounds.
const (
	// DefaultWindowTimeout bounds how long a PendingWindow waits for a window to open.
	DefaultWindowTimeout = 30 * time.Second

	// DefaultLoadTimeout bounds the initial load of a freshly opened window.
	DefaultLoadTimeout = 5 * time.Second

	// DefaultActionTimeout bounds a single click, fill or assertion.
	DefaultActionTimeout = 30 * time.Second

	// DefaultLaunchTimeout bounds the persistent context launch.
	DefaultLaunchTimeout = 60 * time.Second
)

// maxPageMessages caps the console history kept per page.
const (
	maxPageMessages = 100
	maxPageErrors   = 50
)
