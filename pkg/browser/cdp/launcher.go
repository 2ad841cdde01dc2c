// pkg/browser/cdp/launcher.go
package cdp

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/pkg/browser"
)

const (
	defaultWidth   = 900
	defaultHeight  = 900
	defaultTimeout = 60 * time.Second
	startupTimeout = 30 * time.Second
)

// Launcher starts a local Chrome through chromedp.
type Launcher struct {
	logger *zap.Logger
}

var _ browser.Launcher = (*Launcher)(nil)

// NewLauncher returns a chromedp backed launcher.
func NewLauncher(logger *zap.Logger) *Launcher {
	return &Launcher{logger: logger.Named("browser_launcher")}
}

// Launch starts the browser process, opens a tab and verifies it responds.
// The returned page owns the process; closing it terminates the browser.
func (l *Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Page, error) {
	l.logger.Info("Initializing browser allocator...", zap.Bool("headless", opts.Headless))

	// The allocator lives independently of ctx so that closing the page, not
	// the caller's context, decides when the process ends.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), BuildAllocatorOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(l.logger.Sugar().Debugf),
		chromedp.WithErrorf(l.logger.Sugar().Errorf),
	)

	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	p := newPage(tabCtx, tabCancel, allocCancel, l.logger, timeout)

	// Run a simple task to confirm the browser is alive.
	if err := p.run(ctx, startupTimeout, applyStealth(DefaultPersona, l.logger), chromedp.Navigate("about:blank")); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	l.logger.Info("Browser launched successfully and is responsive.")
	return p, nil
}

// BuildAllocatorOptions assembles the launch flags for opts.
func BuildAllocatorOptions(opts browser.LaunchOptions) []chromedp.ExecAllocatorOption {
	width, height := opts.WindowWidth, opts.WindowHeight
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	out := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	out = append(out,
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", opts.Headless),
		chromedp.Flag("lang", "en-US"),
		chromedp.WindowSize(width, height),
	)
	if opts.UserDataDir != "" {
		out = append(out, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.Proxy != "" {
		out = append(out, chromedp.ProxyServer(opts.Proxy))
	}
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}

	for _, arg := range opts.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			out = append(out, chromedp.Flag(name, parts[1]))
		} else {
			out = append(out, chromedp.Flag(name, true))
		}
	}

	// Containers on Linux need these to start at all.
	if runtime.GOOS == "linux" {
		out = append(out,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	return out
}
