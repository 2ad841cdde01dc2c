// -- cmd/app.go --
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/config"
	"github.com/xkilldash9x/tubepilot/internal/observability"
	"github.com/xkilldash9x/tubepilot/internal/session"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
	"github.com/xkilldash9x/tubepilot/pkg/studio"
)

// appContext carries what PersistentPreRunE resolved to the subcommands.
type appContext struct {
	viper *viper.Viper
	cfg   *config.Config
}

// credentials merges the account section with the batch file; the file wins
// field by field.
func (a *appContext) credentials(fromFile schemas.Credentials) schemas.Credentials {
	acc := a.cfg.Account()
	creds := schemas.Credentials{Email: acc.Email, Password: acc.Password, RecoveryEmail: acc.RecoveryEmail}
	if fromFile.Email != "" {
		creds.Email = fromFile.Email
	}
	if fromFile.Password != "" {
		creds.Password = fromFile.Password
	}
	if fromFile.RecoveryEmail != "" {
		creds.RecoveryEmail = fromFile.RecoveryEmail
	}
	return creds
}

// options builds the studio options for one command run. The returned
// function releases the database pool and writes the metrics textfile.
func (a *appContext) options(cmd *cobra.Command) ([]studio.Option, func(), error) {
	ctx := cmd.Context()
	logger := observability.GetLogger()
	cleanup := func() {}

	launch := a.cfg.Browser().LaunchOptions()
	if a.viper.GetBool("headful") {
		launch.Headless = false
	}

	opts := []studio.Option{
		studio.WithLogger(logger),
		studio.WithLaunchOptions(launch),
		studio.WithTimings(a.cfg.Timings()),
		studio.WithTransport(newPromptTransport(logger, cmd.InOrStdin(), cmd.OutOrStdout())),
	}

	store, closeStore, err := openStore(ctx, a.cfg.Session(), logger)
	if err != nil {
		return nil, cleanup, err
	}
	opts = append(opts, studio.WithSessionStore(store))
	cleanup = closeStore

	if m := a.cfg.Metrics(); m.Enabled {
		reg := prometheus.NewRegistry()
		opts = append(opts, studio.WithMetrics(reg))
		if m.Textfile != "" {
			prev := cleanup
			cleanup = func() {
				prev()
				if err := prometheus.WriteToTextfile(m.Textfile, reg); err != nil {
					logger.Warn("Failed to write metrics textfile", zap.String("path", m.Textfile), zap.Error(err))
				}
			}
		}
	}
	return opts, cleanup, nil
}

// openStore returns the configured session store. A nil store disables persistence.
func openStore(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (studio.SessionStore, func(), error) {
	switch strings.ToLower(cfg.Store) {
	case config.StoreNone:
		return nil, func() {}, nil
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to create database pool: %w", err)
		}
		store, err := session.NewPostgresStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return store, pool.Close, nil
	default:
		store, err := session.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() {}, nil
	}
}

// promptTransport logs through zap and asks for SMS codes on the terminal.
type promptTransport struct {
	*observability.ZapTransport
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

var _ schemas.SMSCodeProvider = (*promptTransport)(nil)

func newPromptTransport(logger *zap.Logger, in io.Reader, out io.Writer) *promptTransport {
	return &promptTransport{
		ZapTransport: observability.NewZapTransport(logger),
		in:           bufio.NewReader(in),
		out:          out,
	}
}

// UserAction also goes to the terminal, since it needs a human.
func (p *promptTransport) UserAction(msg string) {
	p.ZapTransport.UserAction(msg)
	fmt.Fprintln(p.out, msg)
}

// OnSmsVerificationCodeSent reads one line from the terminal. ctx is checked
// before reading only; a blocked read ends with the process.
func (p *promptTransport) OnSmsVerificationCodeSent(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, "Enter the SMS verification code: ")
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read verification code: %w", err)
	}
	return strings.TrimSpace(line), nil
}
