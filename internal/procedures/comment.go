// File: internal/procedures/comment.go
package procedures

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// CommentMode is the posting flow a comment job takes.
type CommentMode string

const (
	CommentStandard CommentMode = "standard"
	CommentShort    CommentMode = "short"
	CommentLive     CommentMode = "live"
)

// ModeFor picks the flow for job: live chat, shorts panel or the regular section.
func ModeFor(job schemas.CommentJob) CommentMode {
	switch {
	case job.Live:
		return CommentLive
	case strings.Contains(job.Link, "/shorts"):
		return CommentShort
	default:
		return CommentStandard
	}
}

// Comment posts job.Text and returns schemas.CommentSuccess.
func (p *Procedures) Comment(ctx context.Context, page browser.Page, job schemas.CommentJob) (string, error) {
	mode := ModeFor(job)
	p.logger.Debug("Posting comment", zap.String("link", job.Link), zap.String("mode", string(mode)), zap.Bool("pin", job.Pin))

	var err error
	switch mode {
	case CommentLive:
		err = p.liveComment(ctx, page, job)
	case CommentShort:
		err = p.shortComment(ctx, page, job)
	default:
		err = p.standardComment(ctx, page, job)
	}
	if err != nil {
		return "", err
	}
	return schemas.CommentSuccess, nil
}

func (p *Procedures) standardComment(ctx context.Context, page browser.Page, job schemas.CommentJob) error {
	const op = "comment.standard"
	t := p.timings
	if err := page.Navigate(ctx, job.Link); err != nil {
		return schemas.TransientUIError(op, "failed to open the video", err)
	}
	timings.Sleep(ctx, 2*t.Settle)
	if err := p.scrollUntilFocusable(ctx, page, selectors.CommentInput); err != nil {
		return schemas.TransientUIError(op, "comment box not found", err)
	}
	if err := page.Click(ctx, selectors.CommentInput); err != nil {
		return schemas.TransientUIError(op, "comment box not clickable", err)
	}
	if err := page.Type(ctx, selectors.CommentInput, Truncate(job.Text, MaxCommentRunes), 0); err != nil {
		return schemas.TransientUIError(op, "failed to type the comment", err)
	}

	if !job.Pin {
		if err := page.Click(ctx, selectors.CommentSubmit); err != nil {
			return schemas.TransientUIError(op, "failed to submit the comment", err)
		}
		return nil
	}
	return p.submitAndPin(ctx, page)
}

// submitAndPin submits the typed comment and pins it once it shows up at the
// top of the comment list.
func (p *Procedures) submitAndPin(ctx context.Context, page browser.Page) error {
	const op = "comment.pin"
	t := p.timings
	var (
		pinCtx context.Context
		cancel context.CancelFunc
	)
	if t.Pin > 0 {
		pinCtx, cancel = context.WithTimeout(ctx, t.Pin)
	} else {
		pinCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	added, err := page.WatchChildren(pinCtx, selectors.CommentList)
	if err != nil {
		return schemas.TransientUIError(op, "comment list not found", err)
	}
	if err := page.Click(ctx, selectors.CommentSubmit); err != nil {
		return schemas.TransientUIError(op, "failed to submit the comment", err)
	}

	select {
	case _, ok := <-added:
		if !ok {
			return schemas.TransientUIError(op, "posted comment did not appear", pinCtx.Err())
		}
	case <-pinCtx.Done():
		return schemas.TransientUIError(op, "posted comment did not appear", pinCtx.Err())
	}

	for _, sel := range []string{selectors.CommentActionMenu, selectors.PinMenuItem, selectors.PinConfirm} {
		if err := page.WaitFor(pinCtx, sel, browser.Visible, 0); err != nil {
			return schemas.TransientUIError(op, "pin control not found", err)
		}
		if err := page.Click(pinCtx, sel); err != nil {
			return schemas.TransientUIError(op, "failed to pin the comment", err)
		}
	}
	return nil
}

func (p *Procedures) shortComment(ctx context.Context, page browser.Page, job schemas.CommentJob) error {
	const op = "comment.short"
	t := p.timings
	if err := page.Navigate(ctx, job.Link); err != nil {
		return schemas.TransientUIError(op, "failed to open the short", err)
	}
	timings.Sleep(ctx, t.PageSettle)
	if err := page.WaitFor(ctx, selectors.CommentsButton, browser.Visible, t.Default); err != nil {
		return schemas.TransientUIError(op, "comments button not found", err)
	}
	if err := page.Click(ctx, selectors.CommentsButton); err != nil {
		return schemas.TransientUIError(op, "failed to open comments", err)
	}
	if err := page.WaitFor(ctx, selectors.CommentInput, browser.Visible, t.Default); err != nil {
		return schemas.TransientUIError(op, "comment box not found", err)
	}
	if err := page.Focus(ctx, selectors.CommentInput); err != nil {
		return schemas.TransientUIError(op, "comment box not focusable", err)
	}
	if err := page.Click(ctx, selectors.CommentInput); err != nil {
		return schemas.TransientUIError(op, "comment box not clickable", err)
	}
	if err := page.Type(ctx, selectors.CommentInput, Truncate(job.Text, MaxCommentRunes), 0); err != nil {
		return schemas.TransientUIError(op, "failed to type the comment", err)
	}
	if err := page.Click(ctx, selectors.CommentSubmit); err != nil {
		return schemas.TransientUIError(op, "failed to submit the comment", err)
	}
	return nil
}

func (p *Procedures) liveComment(ctx context.Context, page browser.Page, job schemas.CommentJob) error {
	const op = "comment.live"
	t := p.timings
	if err := page.Navigate(ctx, job.Link); err != nil {
		return schemas.TransientUIError(op, "failed to open the stream", err)
	}
	timings.Sleep(ctx, t.PageSettle)
	if err := p.scrollUntilFocusable(ctx, page, selectors.LiveChatLabel); err != nil {
		return schemas.OwnershipError(op, "video may not be live", err)
	}
	for range liveAutoScrolls {
		if err := page.ScrollBy(ctx, autoScrollStep); err != nil {
			return schemas.TransientUIError(op, "failed to scroll", err)
		}
	}
	if err := page.Focus(ctx, selectors.LiveChatInput); err != nil {
		return schemas.TransientUIError(op, "chat input not found", err)
	}
	if err := page.ClickAt(ctx, selectors.LiveChatInputX, selectors.LiveChatInputY); err != nil {
		return schemas.TransientUIError(op, "failed to focus the chat input", err)
	}
	if err := page.TypeActive(ctx, Truncate(job.Text, MaxLiveCommentRunes), 0); err != nil {
		return schemas.TransientUIError(op, "failed to type the message", err)
	}
	timings.Sleep(ctx, t.ChatSend)
	if err := page.ClickAt(ctx, selectors.LiveChatSendX, selectors.LiveChatSendY); err != nil {
		return schemas.TransientUIError(op, "failed to send the message", err)
	}
	return nil
}
