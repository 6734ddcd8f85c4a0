// Package logging configures the process-wide slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu       sync.Mutex
	disabled = false
	current  = slog.Default()
)

// Setup installs a handler writing to w (stdout when nil) at level, in "text" or
// "json" format, as the default logger.
func Setup(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	logger := slog.New(h)
	mu.Lock()
	current = logger
	if !disabled {
		slog.SetDefault(logger)
	}
	mu.Unlock()
	return logger, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// Disable turns off all logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	disabled = true
	slog.SetDefault(slog.New(slog.DiscardHandler))
}

// Enable turns logging back on
func Enable() {
	mu.Lock()
	defer mu.Unlock()
	disabled = false
	slog.SetDefault(current)
}
