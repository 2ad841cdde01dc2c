// File: internal/procedures/procedures.go
//
// Package procedures holds the page-level flows a job runs once the session is
// authenticated: publishing a file, editing a video and posting a comment.
package procedures

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Field limits enforced by the console.
const (
	MaxTitleRunes       = 100
	MaxDescriptionRunes = 5000
	MaxTagsRunes        = 495
	MaxPlaylistRunes    = 148
	MaxCommentRunes     = 10000
	MaxLiveCommentRunes = 200
)

const (
	clearBeforeUnload = "window.onbeforeunload = null; true"
	autoScrollStep    = 1000
	liveAutoScrolls   = 6
)

// Procedures runs flows on a page. It keeps no per-job state.
type Procedures struct {
	timings   timings.Timings
	transport schemas.MessageTransport
	logger    *zap.Logger
}

func New(t timings.Timings, transport schemas.MessageTransport, logger *zap.Logger) *Procedures {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Procedures{timings: t, transport: transport, logger: logger.Named("procedures")}
}

// Truncate cuts s to at most n runes. It is idempotent.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// TagList renders tags the way the tags field expects them: comma separated,
// cut to the field limit and terminated so the last tag is committed.
func TagList(tags []string) string {
	return Truncate(strings.Join(tags, ", "), MaxTagsRunes) + ", "
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	out, err := json.MarshalToString(s)
	if err != nil {
		return `""`
	}
	return out
}

// waitCount polls until selector matches more than above elements.
func (p *Procedures) waitCount(ctx context.Context, page browser.Page, selector string, above int, timeout time.Duration) error {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	interval := max(p.timings.LinkPoll, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if n, err := page.Count(waitCtx, selector); err == nil && n > above {
			return nil
		}
		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			return waitCtx.Err()
		}
	}
}

// scrollUntilFocusable scrolls the page until selector accepts focus.
func (p *Procedures) scrollUntilFocusable(ctx context.Context, page browser.Page, selector string) error {
	var err error
	for i := 0; i <= p.timings.MaxScrolls; i++ {
		if err = page.Focus(ctx, selector); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if serr := page.ScrollBy(ctx, autoScrollStep); serr != nil {
			return serr
		}
		timings.Sleep(ctx, p.timings.Settle)
	}
	return err
}

// clickIfShown clicks selector when it becomes visible within timeout.
func (p *Procedures) clickIfShown(ctx context.Context, page browser.Page, selector string, timeout time.Duration) bool {
	if err := page.WaitFor(ctx, selector, browser.Visible, timeout); err != nil {
		return false
	}
	return page.Click(ctx, selector) == nil
}
