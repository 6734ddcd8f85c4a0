package browser

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// Session is one isolated persistent browser profile and the pages open in it.
// Sessions are never shared between tests.
type Session struct {
	mu sync.RWMutex

	id      string
	engine  Engine
	dir     string
	context playwright.BrowserContext
	expect  Expect
	logger  *slog.Logger
	audit   *actionAuditLogger

	// pages maps targetID to Page wrapper; order keeps opening order.
	pages map[string]*Page
	order []string

	// pending is the window armed to receive the next opened page.
	pending *PendingWindow

	closed bool
	done   chan struct{}
}

// Page wraps a Playwright page with state tracking.
type Page struct {
	mu sync.RWMutex

	targetID string
	page     playwright.Page
	session  *Session
	state    *PageState
	closed   bool

	// handlerMu serializes standing handlers so two never act on the same UI pass.
	handlerMu sync.Mutex
	firings   map[string]int
}

// PageState tracks page state for failure diagnostics.
type PageState struct {
	URL             string           `json:"url"`
	ConsoleMessages []ConsoleMessage `json:"console_messages,omitempty"`
	Errors          []PageError      `json:"errors,omitempty"`
}

// ConsoleMessage represents a browser console message.
type ConsoleMessage struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PageError represents an uncaught page error.
type PageError struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionOptions configures NewSession.
type SessionOptions struct {
	Engine Engine
	// Dir is the profile directory removed when the session closes.
	Dir string
	// Expect runs UI assertions. Defaults to Playwright's assertions.
	Expect Expect
	Logger *slog.Logger
}

// NewSession wraps an already launched persistent context. Every page the context
// opens from now on is tracked and offered to the armed PendingWindow, if any.
func NewSession(bc playwright.BrowserContext, opts SessionOptions) *Session {
	s := &Session{
		id:      uuid.New().String(),
		engine:  opts.Engine,
		dir:     opts.Dir,
		context: bc,
		expect:  opts.Expect,
		pages:   make(map[string]*Page),
		done:    make(chan struct{}),
	}
	if s.expect == nil {
		s.expect = NewPlaywrightExpect()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger.With("component", "session", "session", s.id[:8])
	s.audit = newActionAuditLogger(logger.With("session", s.id[:8]))

	for _, p := range bc.Pages() {
		s.track(p)
	}
	bc.OnPage(s.onPage)

	return s
}

// ID returns the session's unique run ID.
func (s *Session) ID() string { return s.id }

// Dir returns the profile directory.
func (s *Session) Dir() string { return s.dir }

// Engine returns the engine the session runs in.
func (s *Session) Engine() Engine { return s.engine }

// Context returns the underlying Playwright browser context.
func (s *Session) Context() playwright.BrowserContext { return s.context }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// InitialPage returns the first page the session opened with.
func (s *Session) InitialPage() (*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	for _, id := range s.order {
		if p := s.pages[id]; !p.isClosed() {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no pages available")
}

// ListPages returns all open pages in opening order.
func (s *Session) ListPages() []*Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pages []*Page
	for _, id := range s.order {
		if p := s.pages[id]; !p.isClosed() {
			pages = append(pages, p)
		}
	}
	return pages
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close closes the browser context and deletes the profile directory. Outstanding
// waits on the session are abandoned. Calling Close again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.pending = nil
	for _, page := range s.pages {
		page.markClosed()
	}
	close(s.done)
	s.mu.Unlock()

	var closeErr error
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			closeErr = fmt.Errorf("close browser context: %w", err)
		}
	}
	if err := RemoveProfile(s.dir); err != nil && closeErr == nil {
		closeErr = err
	}

	s.logger.Info("session closed", "dir", s.dir)
	return closeErr
}

// RemoveProfile deletes a profile directory. A missing directory is not an error.
func RemoveProfile(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove profile %s: %w", dir, err)
	}
	return nil
}

func (s *Session) onPage(p playwright.Page) {
	page := s.track(p)
	if page == nil {
		return
	}

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if pending != nil {
		pending.resolve(page)
		return
	}
	s.logger.Debug("unobserved window opened", "page", page.targetID)
}

func (s *Session) track(p playwright.Page) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	for _, existing := range s.pages {
		if existing.page == p {
			return existing
		}
	}

	page := &Page{
		targetID: getTargetID(p),
		page:     p,
		session:  s,
		state:    &PageState{},
		firings:  make(map[string]int),
	}
	s.pages[page.targetID] = page
	s.order = append(s.order, page.targetID)
	setupPageListeners(page)
	return page
}

// Page methods

// PlaywrightPage returns the underlying Playwright page.
func (p *Page) PlaywrightPage() playwright.Page {
	return p.page
}

// TargetID returns the page's target ID.
func (p *Page) TargetID() string {
	return p.targetID
}

// Session returns the owning session.
func (p *Page) Session() *Session {
	return p.session
}

// URL returns the page's current URL.
func (p *Page) URL() string {
	return p.page.URL()
}

// State returns a copy of the page state.
func (p *Page) State() PageState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state := *p.state
	state.URL = p.page.URL()
	state.ConsoleMessages = append([]ConsoleMessage(nil), p.state.ConsoleMessages...)
	state.Errors = append([]PageError(nil), p.state.Errors...)
	return state
}

// Close closes the page. Closing an already closed page is a no-op.
func (p *Page) Close() error {
	if p.isClosed() {
		return nil
	}
	p.markClosed()
	if err := p.page.Close(); err != nil {
		return fmt.Errorf("close page: %w", err)
	}
	return nil
}

func (p *Page) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Page) markClosed() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Helper functions

func getTargetID(_ playwright.Page) string {
	return fmt.Sprintf("page-%s", uuid.New().String()[:8])
}

func setupPageListeners(page *Page) {
	pwPage := page.page

	pwPage.OnConsole(func(msg playwright.ConsoleMessage) {
		page.mu.Lock()
		defer page.mu.Unlock()

		page.state.ConsoleMessages = append(page.state.ConsoleMessages, ConsoleMessage{
			Type:      msg.Type(),
			Text:      msg.Text(),
			Timestamp: time.Now(),
		})
		if len(page.state.ConsoleMessages) > maxPageMessages {
			page.state.ConsoleMessages = page.state.ConsoleMessages[len(page.state.ConsoleMessages)-maxPageMessages:]
		}
	})

	pwPage.OnPageError(func(err error) {
		page.mu.Lock()
		defer page.mu.Unlock()

		page.state.Errors = append(page.state.Errors, PageError{
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		if len(page.state.Errors) > maxPageErrors {
			page.state.Errors = page.state.Errors[len(page.state.Errors)-maxPageErrors:]
		}
	})

	pwPage.OnClose(func(playwright.Page) {
		page.markClosed()
	})
}
