// File: internal/procedures/progress.go
package procedures

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// ParsePercent extracts the percentage from a progress label such as
// "Uploading 42% ... 3 minutes left". ok is false when no token holds a '%'.
func ParsePercent(label string) (int, bool) {
	for _, tok := range strings.Fields(label) {
		i := strings.IndexByte(tok, '%')
		if i < 0 {
			continue
		}
		n, err := strconv.Atoi(tok[:i])
		if err != nil {
			return 0, false
		}
		return min(max(n, 0), 100), true
	}
	return 0, false
}

// progressPoller reads the upload label on a fixed interval and reports
// percentage changes. Its goroutine is the only writer of last.
type progressPoller struct {
	page     browser.Page
	interval time.Duration
	emit     func(schemas.Progress)
	logger   *zap.Logger

	cancel context.CancelFunc
	group  errgroup.Group
	once   sync.Once
	last   int
}

// startProgress emits the initial upload event and starts polling.
func startProgress(ctx context.Context, page browser.Page, interval time.Duration, emit func(schemas.Progress), logger *zap.Logger) *progressPoller {
	pollCtx, cancel := context.WithCancel(ctx)
	pp := &progressPoller{
		page:     page,
		interval: max(interval, time.Millisecond),
		emit:     emit,
		logger:   logger,
		cancel:   cancel,
	}
	emit(schemas.Progress{Percentage: 0, Stage: schemas.StageUploading})
	pp.group.Go(func() error {
		pp.run(pollCtx)
		return nil
	})
	return pp
}

func (pp *progressPoller) run(ctx context.Context) {
	ticker := time.NewTicker(pp.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pct, ok := pp.read(ctx)
		if !ok || pct <= pp.last || ctx.Err() != nil {
			continue
		}
		pp.last = pct
		pp.emit(schemas.Progress{Percentage: pct, Stage: schemas.StageUploading})
	}
}

func (pp *progressPoller) read(ctx context.Context) (int, bool) {
	labels, err := pp.page.Texts(ctx, selectors.ProgressLabel)
	if err != nil {
		pp.logger.Debug("Progress label unreadable", zap.Error(err))
		return 0, false
	}
	for _, label := range labels {
		if strings.Contains(label, "%") {
			return ParsePercent(label)
		}
	}
	return 0, false
}

// Stop ends polling and waits for the goroutine to exit. Safe to call twice.
func (pp *progressPoller) Stop() {
	pp.once.Do(func() {
		pp.cancel()
		_ = pp.group.Wait()
	})
}
