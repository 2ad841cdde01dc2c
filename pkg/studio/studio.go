// File: pkg/studio/studio.go
// Package studio is the library entry point: it signs in to the publishing
// console once per call and runs a batch of upload, edit or comment jobs
// against that session.
//
// Every call owns its browser for its whole duration and closes it before
// returning. Two calls for the same account must not run at the same time;
// the cookie file they share is not locked.
package studio

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/observability"
	"github.com/xkilldash9x/tubepilot/internal/runner"
	"github.com/xkilldash9x/tubepilot/internal/session"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/browser/cdp"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// SessionStore persists cookies between calls.
type SessionStore = session.Store

// Timings bounds every wait and pause of the flows.
type Timings = timings.Timings

// DefaultTimings returns the production timings.
func DefaultTimings() Timings { return timings.Default() }

// NewFileSessionStore returns the default directory-backed cookie store.
func NewFileSessionStore(dir string) (SessionStore, error) {
	return session.NewFileStore(dir)
}

type options struct {
	launch    browser.LaunchOptions
	transport schemas.MessageTransport
	store     SessionStore
	storeSet  bool
	launcher  browser.Launcher
	logger    *zap.Logger
	timings   Timings
	registry  prometheus.Registerer
}

// Option customizes a call.
type Option func(*options)

// WithLaunchOptions passes launch options through to the browser. Setting
// UserDataDir disables the cookie store.
func WithLaunchOptions(opts browser.LaunchOptions) Option {
	return func(o *options) { o.launch = opts }
}

// WithTransport routes user-facing messages, and SMS prompts when the
// transport implements schemas.SMSCodeProvider.
func WithTransport(t schemas.MessageTransport) Option {
	return func(o *options) { o.transport = t }
}

// WithSessionStore replaces the default ./yt-auth cookie directory. A nil
// store disables persistence.
func WithSessionStore(s SessionStore) Option {
	return func(o *options) {
		o.store = s
		o.storeSet = true
	}
}

// WithLauncher replaces the chromedp launcher.
func WithLauncher(l browser.Launcher) Option {
	return func(o *options) { o.launcher = l }
}

// WithLogger sets the structured logger. Defaults to the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTimings overrides wait bounds and retry counts.
func WithTimings(t Timings) Option {
	return func(o *options) { o.timings = t }
}

// WithMetrics registers job and login counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

func newRunner(opts []Option) (*runner.Runner, browser.LaunchOptions) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = observability.GetLogger()
	}
	if o.transport == nil {
		o.transport = observability.NewZapTransport(o.logger)
	}
	if o.launcher == nil {
		o.launcher = cdp.NewLauncher(o.logger)
	}
	if !o.storeSet {
		fs, err := session.NewFileStore(session.DefaultDir)
		if err != nil {
			o.logger.Warn("Cookie store unavailable, sessions will not persist", zap.Error(err))
		} else {
			o.store = fs
		}
	}
	var metrics *runner.Metrics
	if o.registry != nil {
		metrics = runner.NewMetrics(o.registry)
	}
	return runner.New(runner.Options{
		Launcher:  o.launcher,
		Store:     o.store,
		Transport: o.transport,
		Timings:   o.timings,
		Logger:    o.logger,
		Metrics:   metrics,
	}), o.launch
}

// Upload publishes every job in order and returns the video links in the
// same order. The first failure aborts the batch; no partial list is returned.
func Upload(ctx context.Context, creds schemas.Credentials, jobs []schemas.UploadJob, opts ...Option) ([]string, error) {
	r, launch := newRunner(opts)
	return r.RunUploads(ctx, creds, launch, jobs)
}

// Update edits existing videos. A job that fails is reported in its Result
// and the batch moves on, unless the failure ends the session.
func Update(ctx context.Context, creds schemas.Credentials, jobs []schemas.EditJob, opts ...Option) ([]schemas.Result, error) {
	r, launch := newRunner(opts)
	return r.RunEdits(ctx, creds, launch, jobs)
}

// Comment posts comments. Failures are reported per job like Update.
func Comment(ctx context.Context, creds schemas.Credentials, jobs []schemas.CommentJob, opts ...Option) ([]schemas.Result, error) {
	r, launch := newRunner(opts)
	return r.RunComments(ctx, creds, launch, jobs)
}
