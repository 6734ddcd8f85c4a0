package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Stage identifies which part of the bootstrap a failure belongs to.
type Stage string

const (
	StageLaunch     Stage = "launch"
	StageOnboarding Stage = "onboarding"
	StageConnection Stage = "connection"
)

// ErrSessionClosed is returned by waits abandoned because their session closed.
var ErrSessionClosed = errors.New("session is closed")

// ErrWindowArmed is returned when a second window is armed while one is outstanding.
var ErrWindowArmed = errors.New("a pending window is already armed")

// ConfigurationError reports invalid static input: an unknown engine, a malformed secret.
// It is never retried.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration: %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LaunchError reports a failure to start a persistent session.
type LaunchError struct {
	Engine Engine
	Dir    string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s session in %s: %v", e.Engine, e.Dir, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// TimeoutError reports an element or window that never appeared within its bound.
type TimeoutError struct {
	Stage   Stage
	Awaited string
	Err     error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out waiting for %s", e.Awaited)
	if e.Stage != "" {
		msg = string(e.Stage) + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// AssertionError reports a UI invariant that did not hold.
type AssertionError struct {
	Stage     Stage
	Condition string
	Err       error
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("assertion failed: %s", e.Condition)
	if e.Stage != "" {
		msg = string(e.Stage) + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AssertionError) Unwrap() error { return e.Err }

// WithStage stamps stage onto any TimeoutError or AssertionError in err's chain
// that does not carry one yet, and returns err.
func WithStage(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	var te *TimeoutError
	if errors.As(err, &te) && te.Stage == "" {
		te.Stage = stage
	}
	var ae *AssertionError
	if errors.As(err, &ae) && ae.Stage == "" {
		ae.Stage = stage
	}
	return err
}

// StageOf reports the stage a failure is attributed to, or "" if unknown.
func StageOf(err error) Stage {
	var ae *AssertionError
	if errors.As(err, &ae) {
		return ae.Stage
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return te.Stage
	}
	var le *LaunchError
	if errors.As(err, &le) {
		return StageLaunch
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return StageLaunch
	}
	return ""
}

// classify maps a Playwright failure while waiting for awaited onto the taxonomy.
func classify(err error, awaited string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return &TimeoutError{Awaited: awaited, Err: err}
	}
	if errors.Is(err, playwright.ErrTargetClosed) {
		return fmt.Errorf("%s: %w", awaited, ErrSessionClosed)
	}
	return fmt.Errorf("%s: %w", awaited, err)
}

// contextError reports why ctx ended. An expired deadline becomes a TimeoutError
// naming awaited; cancellation is returned as is.
func contextError(ctx context.Context, awaited string) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Awaited: awaited, Err: err}
	}
	return err
}
