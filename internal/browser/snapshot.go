package browser

import (
	"fmt"
	"strings"
)

// snapshotMaxChars keeps failure logs readable.
const snapshotMaxChars = 4000

// Snapshot returns the aria snapshot of the page body, truncated for logging.
func (p *Page) Snapshot() (string, error) {
	if p.isClosed() {
		return "", ErrSessionClosed
	}

	snapshot, err := p.page.Locator("body").AriaSnapshot()
	if err != nil {
		return "", fmt.Errorf("aria snapshot failed: %w", err)
	}
	return truncate(snapshot, snapshotMaxChars), nil
}

// Diagnostics summarizes the page's URL, uncaught errors and console warnings.
func (p *Page) Diagnostics() string {
	var b strings.Builder

	state := p.State()
	fmt.Fprintf(&b, "page %s url=%s\n", p.targetID, state.URL)

	for _, e := range state.Errors {
		fmt.Fprintf(&b, "  page error: %s\n", e.Message)
	}
	for _, m := range state.ConsoleMessages {
		if m.Type == "error" || m.Type == "warning" {
			fmt.Fprintf(&b, "  console %s: %s\n", m.Type, m.Text)
		}
	}
	return b.String()
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "\n... (truncated)"
}
