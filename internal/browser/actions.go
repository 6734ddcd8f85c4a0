package browser

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Target describes an element by what is visible to the user.
type Target struct {
	Role     string // ARIA role, matched together with Name
	Name     string
	Text     string // visible text
	Selector string // CSS selector
	Exact    bool
	First    bool // take the first match instead of requiring a single one
}

// Button targets a button by its accessible name.
func Button(name string) Target {
	return Target{Role: "button", Name: name}
}

// Text targets an element by visible text.
func Text(text string) Target {
	return Target{Text: text}
}

// CSS targets elements by CSS selector.
func CSS(selector string) Target {
	return Target{Selector: selector}
}

// FirstMatch returns t restricted to its first match.
func (t Target) FirstMatch() Target {
	t.First = true
	return t
}

func (t Target) String() string {
	var s string
	switch {
	case t.Role != "":
		s = fmt.Sprintf("%s %q", t.Role, t.Name)
	case t.Text != "":
		s = fmt.Sprintf("text %q", t.Text)
	default:
		s = fmt.Sprintf("css %q", t.Selector)
	}
	if t.First {
		s += " (first)"
	}
	return s
}

// Locate resolves t to a Playwright locator on the page.
func (p *Page) Locate(t Target) playwright.Locator {
	var loc playwright.Locator
	switch {
	case t.Role != "":
		opts := playwright.PageGetByRoleOptions{Name: t.Name}
		if t.Exact {
			opts.Exact = playwright.Bool(true)
		}
		loc = p.page.GetByRole(playwright.AriaRole(t.Role), opts)
	case t.Text != "":
		opts := playwright.PageGetByTextOptions{}
		if t.Exact {
			opts.Exact = playwright.Bool(true)
		}
		loc = p.page.GetByText(t.Text, opts)
	default:
		loc = p.page.Locator(t.Selector)
	}
	if t.First {
		loc = loc.First()
	}
	return loc
}

// remaining trims d to what is left of ctx. Playwright treats a zero timeout as
// infinite, so an exhausted context never yields one; it is reported as a
// timeout waiting for awaited.
func remaining(ctx context.Context, d time.Duration, awaited string) (time.Duration, error) {
	if ctx.Err() != nil {
		return 0, contextError(ctx, awaited)
	}
	if d <= 0 {
		d = DefaultActionTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d < time.Millisecond {
		return 0, &TimeoutError{Awaited: awaited, Err: context.DeadlineExceeded}
	}
	return d, nil
}

// Navigate loads url and waits for the load event.
func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if p.isClosed() {
		return ErrSessionClosed
	}
	d, err := remaining(ctx, timeout, "navigation to "+url)
	if err != nil {
		return err
	}

	p.session.audit.logAction(p.targetID, "navigate", url, 0)
	_, err = p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   ms(d),
	})
	if err != nil {
		return classify(err, "navigation to "+url)
	}

	p.mu.Lock()
	p.state.URL = p.page.URL()
	p.mu.Unlock()
	return nil
}

// Click waits for t to become clickable and clicks it.
func (p *Page) Click(ctx context.Context, t Target, timeout time.Duration) error {
	if p.isClosed() {
		return ErrSessionClosed
	}
	d, err := remaining(ctx, timeout, t.String())
	if err != nil {
		return err
	}

	p.session.audit.logAction(p.targetID, "click", t.String(), 0)
	err = p.Locate(t).Click(playwright.LocatorClickOptions{Timeout: ms(d)})
	return classify(err, t.String())
}

// FillEach fills the elements matching t positionally: values[i] goes into the
// i-th match. The number of matches must equal len(values).
func (p *Page) FillEach(ctx context.Context, t Target, values []string, timeout time.Duration) error {
	if p.isClosed() {
		return ErrSessionClosed
	}

	fields, err := p.Locate(t).All()
	if err != nil {
		return classify(err, t.String())
	}
	if len(fields) != len(values) {
		return &AssertionError{
			Condition: fmt.Sprintf("%s count == %d", t, len(values)),
			Err:       fmt.Errorf("found %d", len(fields)),
		}
	}

	p.session.audit.logAction(p.targetID, "fill", t.String(), len(values))
	for i, field := range fields {
		d, err := remaining(ctx, timeout, fmt.Sprintf("%s #%d", t, i+1))
		if err != nil {
			return err
		}
		if err := field.Fill(values[i], playwright.LocatorFillOptions{Timeout: ms(d)}); err != nil {
			return classify(err, fmt.Sprintf("%s #%d", t, i+1))
		}
	}
	return nil
}

// ExpectCount asserts exactly n elements match t.
func (p *Page) ExpectCount(ctx context.Context, t Target, n int, timeout time.Duration) error {
	d, err := remaining(ctx, timeout, fmt.Sprintf("%s count == %d", t, n))
	if err != nil {
		return err
	}
	if err := p.session.expect.Count(p.Locate(t), n, d); err != nil {
		return &AssertionError{Condition: fmt.Sprintf("%s count == %d", t, n), Err: err}
	}
	return nil
}

// ExpectVisible asserts t becomes visible.
func (p *Page) ExpectVisible(ctx context.Context, t Target, timeout time.Duration) error {
	d, err := remaining(ctx, timeout, t.String()+" visible")
	if err != nil {
		return err
	}
	if err := p.session.expect.Visible(p.Locate(t), d); err != nil {
		return &AssertionError{Condition: t.String() + " visible", Err: err}
	}
	return nil
}

// ExpectHidden asserts t is not visible.
func (p *Page) ExpectHidden(ctx context.Context, t Target, timeout time.Duration) error {
	d, err := remaining(ctx, timeout, t.String()+" not visible")
	if err != nil {
		return err
	}
	if err := p.session.expect.Hidden(p.Locate(t), d); err != nil {
		return &AssertionError{Condition: t.String() + " not visible", Err: err}
	}
	return nil
}

// ExpectURL asserts the page URL matches pattern.
func (p *Page) ExpectURL(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) error {
	d, err := remaining(ctx, timeout, fmt.Sprintf("url matches %s", pattern))
	if err != nil {
		return err
	}
	if err := p.session.expect.URL(p.page, pattern, d); err != nil {
		return &AssertionError{Condition: fmt.Sprintf("url matches %s", pattern), Err: err}
	}
	return nil
}

// SetViewport resizes the page.
func (p *Page) SetViewport(v Viewport) error {
	if v.Width == 0 || v.Height == 0 {
		v = DefaultViewport()
	}
	if err := p.page.SetViewportSize(v.Width, v.Height); err != nil {
		return fmt.Errorf("set viewport %dx%d: %w", v.Width, v.Height, err)
	}
	return nil
}
