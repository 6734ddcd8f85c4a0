package browser

import (
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Expect runs retrying UI assertions. Each call waits up to timeout for the
// condition to hold and returns an error otherwise.
type Expect interface {
	Count(loc playwright.Locator, n int, timeout time.Duration) error
	Visible(loc playwright.Locator, timeout time.Duration) error
	Hidden(loc playwright.Locator, timeout time.Duration) error
	URL(page playwright.Page, pattern *regexp.Regexp, timeout time.Duration) error
}

type playwrightExpect struct {
	assertions playwright.PlaywrightAssertions
}

// NewPlaywrightExpect returns an Expect backed by Playwright's web-first assertions.
func NewPlaywrightExpect() Expect {
	return &playwrightExpect{assertions: playwright.NewPlaywrightAssertions()}
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (e *playwrightExpect) Count(loc playwright.Locator, n int, timeout time.Duration) error {
	return e.assertions.Locator(loc).ToHaveCount(n, playwright.LocatorAssertionsToHaveCountOptions{
		Timeout: ms(timeout),
	})
}

func (e *playwrightExpect) Visible(loc playwright.Locator, timeout time.Duration) error {
	return e.assertions.Locator(loc).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: ms(timeout),
	})
}

func (e *playwrightExpect) Hidden(loc playwright.Locator, timeout time.Duration) error {
	return e.assertions.Locator(loc).Not().ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: ms(timeout),
	})
}

func (e *playwrightExpect) URL(page playwright.Page, pattern *regexp.Regexp, timeout time.Duration) error {
	return e.assertions.Page(page).ToHaveURL(pattern, playwright.PageAssertionsToHaveURLOptions{
		Timeout: ms(timeout),
	})
}
