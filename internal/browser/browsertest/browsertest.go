// Package browsertest provides in-memory fakes of the Playwright objects the browser
// package drives, so flows can be tested without a real browser.
//
// Each fake embeds the Playwright interface it stands in for; calling a method the
// fake does not implement panics.
package browsertest

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RoleKey is the locator key GetByRole resolves to.
func RoleKey(role, name string) string {
	return fmt.Sprintf("role=%s[name=%s]", role, name)
}

// TextKey is the locator key GetByText resolves to.
func TextKey(text string) string {
	return "text=" + text
}

// BrowserType is a fake browser type that hands out one prepared context.
type BrowserType struct {
	playwright.BrowserType

	mu      sync.Mutex
	Context *Context
	Err     error
	Dirs    []string
	Options []playwright.BrowserTypeLaunchPersistentContextOptions
}

func (b *BrowserType) LaunchPersistentContext(userDataDir string, options ...playwright.BrowserTypeLaunchPersistentContextOptions) (playwright.BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Dirs = append(b.Dirs, userDataDir)
	if len(options) > 0 {
		b.Options = append(b.Options, options[0])
	}
	if b.Err != nil {
		return nil, b.Err
	}
	return b.Context, nil
}

// Launches reports how many launches were attempted.
func (b *BrowserType) Launches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Dirs)
}

// Context is a fake browser context.
type Context struct {
	playwright.BrowserContext

	mu       sync.Mutex
	pages    []*Page
	handlers []func(playwright.Page)
	closed   bool
}

// NewContext returns a context with the given pages already open.
func NewContext(pages ...*Page) *Context {
	return &Context{pages: pages}
}

func (c *Context) Pages() []playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]playwright.Page, 0, len(c.pages))
	for _, p := range c.pages {
		out = append(out, p)
	}
	return out
}

func (c *Context) NewPage() (playwright.Page, error) {
	p := NewPage("about:blank")
	c.Open(p)
	return p, nil
}

func (c *Context) OnPage(fn func(playwright.Page)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

func (c *Context) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Open simulates the browser opening p as a new window.
func (c *Context) Open(p *Page) {
	c.mu.Lock()
	c.pages = append(c.pages, p)
	handlers := append([]func(playwright.Page){}, c.handlers...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(p)
	}
}

type locatorHandler struct {
	locator *Locator
	handler func(playwright.Locator)
}

// Page is a fake page whose elements are addressed by locator key.
type Page struct {
	playwright.Page

	mu       sync.Mutex
	url      string
	closed   bool
	locators map[string]*Locator
	handlers []locatorHandler
	viewport *playwright.Size
	onClose  []func(playwright.Page)

	// LoadErr is returned by WaitForLoadState.
	LoadErr error
	// GotoErr is returned by Goto.
	GotoErr error
	loads   int

	// Bounds passed to the last Goto and WaitForLoadState calls.
	gotoTimeout time.Duration
	loadTimeout time.Duration
}

// NewPage returns an open page at url.
func NewPage(url string) *Page {
	return &Page{url: url, locators: make(map[string]*Locator)}
}

// El returns the element registered under key, creating a visible one if needed.
func (p *Page) El(key string) *Locator {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.locators[key]
	if !ok {
		l = &Locator{key: key, visible: true}
		p.locators[key] = l
	}
	return l
}

// Button is shorthand for El(RoleKey("button", name)).
func (p *Page) Button(name string) *Locator {
	return p.El(RoleKey("button", name))
}

// Text is shorthand for El(TextKey(text)).
func (p *Page) Text(text string) *Locator {
	return p.El(TextKey(text))
}

func (p *Page) GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator {
	name := ""
	if len(options) > 0 && options[0].Name != nil {
		name = fmt.Sprint(options[0].Name)
	}
	return p.El(RoleKey(string(role), name))
}

func (p *Page) GetByText(text interface{}, options ...playwright.PageGetByTextOptions) playwright.Locator {
	return p.El(TextKey(fmt.Sprint(text)))
}

func (p *Page) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return p.El(selector)
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(options) > 0 && options[0].Timeout != nil {
		p.gotoTimeout = time.Duration(*options[0].Timeout) * time.Millisecond
	}
	if p.GotoErr != nil {
		return nil, p.GotoErr
	}
	p.url = url
	return nil, nil
}

// GotoTimeout reports the bound passed to the last Goto call.
func (p *Page) GotoTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gotoTimeout
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// SetURL moves the page to url without a navigation.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *Page) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads++
	if len(options) > 0 && options[0].Timeout != nil {
		p.loadTimeout = time.Duration(*options[0].Timeout) * time.Millisecond
	}
	return p.LoadErr
}

// Loads reports how many times WaitForLoadState was called.
func (p *Page) Loads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads
}

// LoadTimeout reports the bound passed to the last WaitForLoadState call.
func (p *Page) LoadTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadTimeout
}

func (p *Page) Close(options ...playwright.PageCloseOptions) error {
	p.mu.Lock()
	p.closed = true
	fns := append([]func(playwright.Page){}, p.onClose...)
	p.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
	return nil
}

func (p *Page) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) SetViewportSize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = &playwright.Size{Width: width, Height: height}
	return nil
}

func (p *Page) ViewportSize() *playwright.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport
}

func (p *Page) OnConsole(fn func(playwright.ConsoleMessage)) {}

func (p *Page) OnPageError(fn func(error)) {}

func (p *Page) OnClose(fn func(playwright.Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = append(p.onClose, fn)
}

func (p *Page) AddLocatorHandler(locator playwright.Locator, handler func(playwright.Locator), options ...playwright.PageAddLocatorHandlerOptions) error {
	l, ok := locator.(*Locator)
	if !ok {
		return fmt.Errorf("browsertest: foreign locator %T", locator)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, locatorHandler{locator: l, handler: handler})
	return nil
}

// FireHandlers runs every registered locator handler whose element is visible,
// the way Playwright does before an action. It returns how many ran.
func (p *Page) FireHandlers() int {
	p.mu.Lock()
	handlers := append([]locatorHandler{}, p.handlers...)
	p.mu.Unlock()

	n := 0
	for _, h := range handlers {
		if h.locator.Visible() {
			h.handler(h.locator)
			n++
		}
	}
	return n
}

// pwLocator keeps the embedded interface from shadowing its own Locator method.
type pwLocator = playwright.Locator

var (
	_ playwright.BrowserType    = (*BrowserType)(nil)
	_ playwright.BrowserContext = (*Context)(nil)
	_ playwright.Page           = (*Page)(nil)
	_ playwright.Locator        = (*Locator)(nil)
)

// Locator is a fake element, or a list of elements when it has items.
type Locator struct {
	pwLocator

	mu      sync.Mutex
	key     string
	visible bool
	items   []*Locator
	clicks  int
	value   string

	// OnClick runs on every click; its error is returned by Click.
	OnClick func() error
}

// Key returns the locator key.
func (l *Locator) Key() string { return l.key }

// SetVisible shows or hides the element.
func (l *Locator) SetVisible(v bool) *Locator {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visible = v
	return l
}

// Visible reports whether the element is shown.
func (l *Locator) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// SetCount replaces the matched elements with n fresh visible ones.
func (l *Locator) SetCount(n int) []*Locator {
	items := make([]*Locator, n)
	for i := range items {
		items[i] = &Locator{key: fmt.Sprintf("%s >> nth=%d", l.key, i), visible: true}
	}
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return items
}

// Items returns the matched elements.
func (l *Locator) Items() []*Locator {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Locator{}, l.items...)
}

// Clicks reports how many times the element was clicked.
func (l *Locator) Clicks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clicks
}

// Value returns the last filled value.
func (l *Locator) Value() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

func (l *Locator) Click(options ...playwright.LocatorClickOptions) error {
	l.mu.Lock()
	if !l.visible {
		l.mu.Unlock()
		return fmt.Errorf("%w: waiting for %s to be visible", playwright.ErrTimeout, l.key)
	}
	l.clicks++
	fn := l.OnClick
	l.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

func (l *Locator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.visible {
		return fmt.Errorf("%w: waiting for %s to be visible", playwright.ErrTimeout, l.key)
	}
	l.value = value
	return nil
}

func (l *Locator) All() ([]playwright.Locator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]playwright.Locator, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item)
	}
	return out, nil
}

func (l *Locator) Count() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.items != nil {
		return len(l.items), nil
	}
	if l.visible {
		return 1, nil
	}
	return 0, nil
}

func (l *Locator) First() playwright.Locator {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) > 0 {
		return l.items[0]
	}
	return l
}

// pollInterval is how often Expect re-checks a condition.
const pollInterval = 5 * time.Millisecond

// Expect evaluates assertions against fake locators, retrying until the timeout
// like Playwright's web-first assertions.
type Expect struct{}

func poll(timeout time.Duration, cond func() bool, describe func() string) error {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", playwright.ErrTimeout, describe())
		}
		time.Sleep(pollInterval)
	}
}

func (Expect) Count(loc playwright.Locator, n int, timeout time.Duration) error {
	l := loc.(*Locator)
	return poll(timeout, func() bool {
		c, _ := l.Count()
		return c == n
	}, func() string {
		c, _ := l.Count()
		return fmt.Sprintf("%s: expected %d elements, got %d", l.key, n, c)
	})
}

func (Expect) Visible(loc playwright.Locator, timeout time.Duration) error {
	l := loc.(*Locator)
	return poll(timeout, l.Visible, func() string { return l.key + " not visible" })
}

func (Expect) Hidden(loc playwright.Locator, timeout time.Duration) error {
	l := loc.(*Locator)
	return poll(timeout, func() bool { return !l.Visible() }, func() string { return l.key + " still visible" })
}

func (Expect) URL(page playwright.Page, pattern *regexp.Regexp, timeout time.Duration) error {
	return poll(timeout, func() bool { return pattern.MatchString(page.URL()) }, func() string {
		return fmt.Sprintf("url %s does not match %s", page.URL(), pattern)
	})
}
