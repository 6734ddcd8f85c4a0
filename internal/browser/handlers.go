package browser

import (
	"github.com/playwright-community/playwright-go"
)

// AddStandingHandler clicks t whenever it appears on the page, for the page's whole
// life. Playwright evaluates the handler before each action it performs, so the
// foreground flow is never interrupted mid-action. Handlers on one page never run
// concurrently.
func (p *Page) AddStandingHandler(t Target) error {
	if p.isClosed() {
		return ErrSessionClosed
	}
	loc := p.Locate(t)
	key := t.String()
	logger := p.session.logger.With("handler", key, "page", p.targetID)

	err := p.page.AddLocatorHandler(loc, func(matched playwright.Locator) {
		p.handlerMu.Lock()
		defer p.handlerMu.Unlock()

		if err := matched.Click(); err != nil {
			logger.Warn("standing handler click failed", "error", err)
			return
		}

		p.mu.Lock()
		p.firings[key]++
		n := p.firings[key]
		p.mu.Unlock()
		logger.Warn("standing handler fired", "count", n)
	})
	if err != nil {
		return classify(err, "register handler for "+key)
	}
	logger.Debug("standing handler registered")
	return nil
}

// Firings reports how often the standing handler for t has fired.
func (p *Page) Firings(t Target) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.firings[t.String()]
}
