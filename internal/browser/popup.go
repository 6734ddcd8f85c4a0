package browser

import (
	"context"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/errgroup"
)

// PendingWindow is the next window a session opens. It must be armed before the
// action that opens the window, resolves at most once and is discarded afterwards.
//
// Only the first window opened after arming is observed; a second window opened by
// the same trigger goes unobserved and is only logged by the session.
type PendingWindow struct {
	session *Session
	ch      chan *Page
	once    sync.Once

	// LoadTimeout bounds the new window's initial load.
	LoadTimeout time.Duration
}

// Arm registers a PendingWindow for the next page the session opens. At most one
// window can be outstanding per session.
func (s *Session) Arm() (*PendingWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.pending != nil {
		return nil, ErrWindowArmed
	}

	w := &PendingWindow{
		session:     s,
		ch:          make(chan *Page, 1),
		LoadTimeout: DefaultLoadTimeout,
	}
	s.pending = w
	return w, nil
}

func (w *PendingWindow) resolve(p *Page) {
	w.once.Do(func() {
		w.ch <- p
	})
}

// Cancel withdraws the window if it is still the session's outstanding one, so
// another can be armed. A resolved window is unaffected.
func (w *PendingWindow) Cancel() {
	s := w.session
	s.mu.Lock()
	if s.pending == w {
		s.pending = nil
	}
	s.mu.Unlock()
}

// Wait blocks until the window opens and finishes its initial load, the timeout
// passes, ctx is done, or the session closes.
func (w *PendingWindow) Wait(ctx context.Context, timeout time.Duration) (*Page, error) {
	if timeout <= 0 {
		timeout = DefaultWindowTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var page *Page
	select {
	case page = <-w.ch:
	case <-timer.C:
		w.Cancel()
		return nil, &TimeoutError{Awaited: "new window"}
	case <-ctx.Done():
		w.Cancel()
		return nil, contextError(ctx, "new window")
	case <-w.session.done:
		return nil, ErrSessionClosed
	}

	load := w.LoadTimeout
	if load <= 0 {
		load = DefaultLoadTimeout
	}
	d, err := remaining(ctx, load, "new window load")
	if err != nil {
		return nil, err
	}
	err = page.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: ms(d),
	})
	if err != nil {
		return nil, classify(err, "new window load")
	}

	w.session.logger.Info("window opened", "page", page.targetID, "url", page.URL())
	return page, nil
}

// Await runs trigger and the wait as a joined pair: both must succeed. The window
// is already armed, so a popup opened synchronously with the trigger is not missed.
func (w *PendingWindow) Await(ctx context.Context, trigger func() error, timeout time.Duration) (*Page, error) {
	g, gctx := errgroup.WithContext(ctx)

	var page *Page
	g.Go(func() error {
		p, err := w.Wait(gctx, timeout)
		page = p
		return err
	})
	g.Go(trigger)

	if err := g.Wait(); err != nil {
		w.Cancel()
		return nil, err
	}
	return page, nil
}

// AwaitNextWindow arms a window on s, runs trigger alongside the wait, and returns
// the window trigger opened.
func AwaitNextWindow(ctx context.Context, s *Session, trigger func() error, timeout time.Duration) (*Page, error) {
	w, err := s.Arm()
	if err != nil {
		return nil, err
	}
	return w.Await(ctx, trigger, timeout)
}
