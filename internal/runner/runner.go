// File: internal/runner/runner.go
// Package runner executes batches of upload, edit and comment jobs against one
// authenticated browser session.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/auth"
	"github.com/xkilldash9x/tubepilot/internal/channel"
	"github.com/xkilldash9x/tubepilot/internal/procedures"
	"github.com/xkilldash9x/tubepilot/internal/retry"
	"github.com/xkilldash9x/tubepilot/internal/session"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// CustomProfileNotice is sent to the transport when a user data directory
// replaces the cookie store.
const CustomProfileNotice = "custom profile directory detected in launch options; cookie store disabled"

// closeTimeout bounds the page teardown, which runs even after ctx is done.
const closeTimeout = 10 * time.Second

// Options wires a Runner. Launcher is required; everything else has a default.
type Options struct {
	Launcher  browser.Launcher
	Store     session.Store
	Transport schemas.MessageTransport
	Timings   timings.Timings
	Logger    *zap.Logger
	Metrics   *Metrics
}

// Runner owns the browser page for the duration of one batch.
type Runner struct {
	launcher  browser.Launcher
	store     session.Store
	transport schemas.MessageTransport
	timings   timings.Timings
	logger    *zap.Logger
	metrics   *Metrics

	auth     *auth.Authenticator
	channels *channel.Selector
	procs    *procedures.Procedures
}

// New builds a Runner from opts.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	t := opts.Timings
	if t == (timings.Timings{}) {
		t = timings.Default()
	}
	transport := opts.Transport
	if transport == nil {
		transport = nopTransport{}
	}
	return &Runner{
		launcher:  opts.Launcher,
		store:     opts.Store,
		transport: transport,
		timings:   t,
		logger:    logger.Named("runner"),
		metrics:   opts.Metrics,
		auth:      auth.New(opts.Store, transport, t, logger),
		channels:  channel.NewSelector(t, logger),
		procs:     procedures.New(t, transport, logger),
	}
}

// Open launches the browser and returns a signed-in session. Restored cookies
// are used when they pass the liveness probe; otherwise the login flow runs,
// retried once unless the failure is fatal. The page is closed on any error.
func (r *Runner) Open(ctx context.Context, creds schemas.Credentials, launch browser.LaunchOptions) (*session.Session, error) {
	if r.launcher == nil {
		return nil, schemas.NewError(schemas.KindConfiguration, "runner.open", "no browser launcher configured", nil)
	}
	log := r.logger.With(zap.String("account_key", session.AccountKey(creds.Email)))

	page, err := r.launcher.Launch(ctx, launch)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	persist := launch.UserDataDir == ""
	sess := session.New(creds.Email, page, persist)
	log = log.With(zap.String("session_id", sess.ID()))

	ready := false
	defer func() {
		if !ready {
			r.closePage(ctx, page)
		}
	}()

	restored := false
	if persist {
		restored = r.restore(ctx, sess, log)
	} else {
		r.transport.Log(CustomProfileNotice)
		log.Info("Cookie store disabled", zap.String("user_data_dir", launch.UserDataDir))
	}

	if restored {
		r.metrics.recordLogin("restored")
	} else {
		if err := r.login(ctx, sess, creds, log); err != nil {
			r.metrics.recordLogin("failure")
			return nil, err
		}
		r.metrics.recordLogin("success")
	}

	if err := r.auth.EnsureHomeLanguage(ctx, page); err != nil {
		log.Warn("Could not switch the interface to English", zap.Error(err))
	}
	ready = true
	log.Info("Session ready", zap.Bool("restored", restored))
	return sess, nil
}

// restore injects stored cookies and reports whether they produced a live session.
func (r *Runner) restore(ctx context.Context, sess *session.Session, log *zap.Logger) bool {
	if r.store == nil {
		return false
	}
	cookies, err := r.store.Load(ctx, sess.AccountID())
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			log.Debug("Stored session unreadable, signing in", zap.Error(err))
		}
		return false
	}
	if len(cookies) == 0 {
		return false
	}
	if err := sess.Page().SetCookies(ctx, cookies); err != nil {
		log.Warn("Failed to inject stored cookies", zap.Error(err))
		return false
	}
	sess.SetCookies(cookies)
	if err := r.auth.ProbeLiveness(ctx, sess.Page()); err != nil {
		log.Warn("Stored session is no longer valid, signing in again", zap.Error(err))
		return false
	}
	r.transport.Log("Restored the previous session")
	return true
}

func (r *Runner) login(ctx context.Context, sess *session.Session, creds schemas.Credentials, log *zap.Logger) error {
	policy := retry.Policy{
		MaxAttempts: r.timings.LoginAttempts,
		Retryable:   func(err error) bool { return !schemas.IsFatal(err) },
		OnRetry: func(attempt int, err error) {
			log.Warn("Login failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		},
	}
	return policy.Do(ctx, func(ctx context.Context, _ int) error {
		return r.auth.Login(ctx, sess, creds)
	})
}

func (r *Runner) closePage(ctx context.Context, page browser.Page) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	if err := page.Close(closeCtx); err != nil {
		r.logger.Warn("Failed to close the browser", zap.Error(err))
	}
}

// Close releases the session's browser.
func (r *Runner) Close(ctx context.Context, sess *session.Session) {
	if sess == nil {
		return
	}
	r.closePage(ctx, sess.Page())
}

type nopTransport struct{}

func (nopTransport) Log(string)        {}
func (nopTransport) UserAction(string) {}
func (nopTransport) Debug(string)      {}
func (nopTransport) Error(string)      {}
func (nopTransport) Warn(string)       {}
