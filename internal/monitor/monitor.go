// Package monitor runs the connect check on a cron schedule and keeps the most
// recent outcomes.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	cronlib "github.com/robfig/cron/v3"

	"github.com/neboloop/walletlink/internal/browser"
)

// Check performs one end-to-end run.
type Check func(ctx context.Context) error

// Result is the outcome of one run.
type Result struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Err      error
	// Stage is where a failed run broke.
	Stage browser.Stage
}

// OK reports whether the run succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Options configures a Monitor.
type Options struct {
	// History is how many results are kept.
	History int
	// Timeout bounds each run.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Monitor schedules a Check. A run still in progress when the next one is due
// causes that one to be skipped.
type Monitor struct {
	check  Check
	opts   Options
	logger *slog.Logger
	cron   *cronlib.Cron
	parser cronlib.Parser
	now    func() time.Time

	mu      sync.Mutex
	results []Result
	entry   cronlib.EntryID
	// base parents scheduled runs; set by Start.
	base context.Context
}

// New returns a Monitor running check.
func New(check Check, opts Options) *Monitor {
	if opts.History <= 0 {
		opts.History = 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "monitor")

	cronLogger := cronlib.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return &Monitor{
		check:  check,
		opts:   opts,
		logger: logger,
		cron: cronlib.New(
			cronlib.WithSeconds(),
			cronlib.WithLogger(cronLogger),
			cronlib.WithChain(cronlib.SkipIfStillRunning(cronLogger)),
		),
		parser: cronlib.NewParser(cronlib.Second | cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow),
		now:    time.Now,
	}
}

// Schedule sets when the check runs, replacing any earlier schedule. spec is a
// six-field cron expression with seconds.
func (m *Monitor) Schedule(spec string) error {
	schedule, err := m.parser.Parse(spec)
	if err != nil {
		return &browser.ConfigurationError{Field: "watch.schedule", Value: spec, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry != 0 {
		m.cron.Remove(m.entry)
	}
	m.entry = m.cron.Schedule(schedule, cronlib.FuncJob(func() {
		m.RunOnce(m.baseContext())
	}))
	m.logger.Info("check scheduled", "schedule", spec)
	return nil
}

// Next returns when the check runs next, or the zero time if it is not scheduled
// or the scheduler is not running.
func (m *Monitor) Next() time.Time {
	m.mu.Lock()
	id := m.entry
	m.mu.Unlock()
	return m.cron.Entry(id).Next
}

// Start starts the scheduler in the background. Scheduled runs are cancelled
// when ctx ends.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	m.base = ctx
	m.mu.Unlock()
	m.cron.Start()
}

func (m *Monitor) baseContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.base == nil {
		return context.Background()
	}
	return m.base
}

// Stop stops scheduling and waits for a running check to finish or ctx to end.
func (m *Monitor) Stop(ctx context.Context) {
	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce runs the check now and records its result.
func (m *Monitor) RunOnce(ctx context.Context) Result {
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	r := Result{ID: uuid.New().String(), Started: m.now()}
	r.Err = m.run(ctx)
	r.Duration = m.now().Sub(r.Started)
	if r.Err != nil {
		r.Stage = browser.StageOf(r.Err)
	}

	m.record(r)
	logger := m.logger.With("run", r.ID[:8], "duration", r.Duration.Round(time.Millisecond))
	if r.OK() {
		logger.Info("check passed", "passed", m.passed())
	} else {
		logger.Error("check failed", "stage", r.Stage, "error", r.Err)
	}
	return r
}

func (m *Monitor) run(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("check panicked: %v", p)
		}
	}()
	return m.check(ctx)
}

func (m *Monitor) record(r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	if len(m.results) > m.opts.History {
		m.results = m.results[len(m.results)-m.opts.History:]
	}
}

// passed counts successful runs in the kept history.
func (m *Monitor) passed() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.results {
		if r.OK() {
			n++
		}
	}
	return fmt.Sprintf("%d/%d", n, len(m.results))
}

// History returns the kept results, oldest first.
func (m *Monitor) History() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Result(nil), m.results...)
}
