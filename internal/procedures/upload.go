// File: internal/procedures/upload.go
package procedures

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/retry"
	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// VisibilityHint is attached to the error raised when the upload dialog never
// reaches its final state.
const VisibilityHint = "check that your default video visibility is set up correctly"

// renameLegacyClose retitles the hidden Close control left over from the
// composer so that later waits only match the confirmation dialog's button.
var renameLegacyClose = `(() => { const el = document.evaluate(` + jsString(selectors.CloseButton) +
	`, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue; if (el) { el.textContent = 'oldclosse'; } return true; })()`

// Upload publishes job.Path and returns the video link.
func (p *Procedures) Upload(ctx context.Context, page browser.Page, job schemas.UploadJob) (string, error) {
	log := p.logger.With(zap.String("title", job.Title))
	c := p.composer(page, job.Title, "upload.metadata")
	state := func(name string) { log.Debug("Upload state", zap.String("state", name)) }

	state("open_composer")
	if err := p.openComposer(ctx, page); err != nil {
		return "", err
	}
	c.debug("Upload URL opened")
	if err := page.Evaluate(ctx, renameLegacyClose, nil); err != nil {
		log.Debug("Could not rename the legacy close button", zap.Error(err))
	}

	state("file_select")
	if err := page.ChooseFile(ctx, selectors.SelectFilesButton, job.Path); err != nil {
		return "", schemas.TransientUIError("upload.file_select", "file chooser did not accept the file", err)
	}
	c.debug("File chooser accepted")

	state("uploading")
	var poller *progressPoller
	if job.OnProgress != nil {
		poller = startProgress(ctx, page, p.timings.ProgressInterval, job.OnProgress, log)
		defer poller.Stop()
	}
	if msg := p.platformError(ctx, page); msg != "" {
		return "", schemas.NewError(schemas.KindPlatform, "upload.file_select", "platform returned an error: "+msg, nil)
	}

	state("limit_check")
	winner, err := firstPresent(ctx, page, 0, selectors.UploadComplete, selectors.DailyLimitReached)
	if err != nil {
		return "", schemas.TransientUIError("upload.uploading", "upload did not finish", err)
	}
	if winner == 1 {
		return "", schemas.QuotaError("upload.limit_check")
	}

	state("processing_wait")
	if job.SkipProcessingWait {
		timings.Sleep(ctx, p.timings.SkipProcessing)
	} else {
		if err := page.WaitFor(ctx, selectors.ProcessingBanner, browser.Hidden, 0); err != nil {
			return "", schemas.TransientUIError("upload.processing_wait", "processing banner did not clear", err)
		}
		c.debug("Video upload finished")
	}
	if poller != nil {
		poller.Stop()
		job.OnProgress(schemas.Progress{Percentage: 0, Stage: schemas.StageProcessing})
		job.OnProgress(schemas.Progress{Percentage: 100, Stage: schemas.StageDone})
	}

	state("metadata_entry")
	if job.Thumbnail != "" {
		thumb := selectors.ContainsTextFold(selectors.ThumbnailLabel)
		if err := page.WaitFor(ctx, thumb, browser.Visible, p.timings.Default); err != nil {
			return "", schemas.TransientUIError("upload.thumbnail", "thumbnail uploader not found", err)
		}
		if err := page.ChooseFile(ctx, thumb, job.Thumbnail); err != nil {
			return "", schemas.TransientUIError("upload.thumbnail", "thumbnail chooser did not accept the file", err)
		}
	}
	if err := c.waitTextboxes(ctx); err != nil {
		return "", err
	}
	if err := c.titleAndDescription(ctx, job.Title, job.Description); err != nil {
		return "", err
	}
	c.debug("Title and description set")

	state("detail_options")
	if err := p.uploadDetails(ctx, c, job); err != nil {
		return "", err
	}

	state("visibility_step")
	if err := p.clickNext(ctx, page); err != nil {
		return "", err
	}
	if job.ChannelMonetized {
		p.monetize(ctx, page)
		c.debug("Channel monetization set")
	}
	for range 2 {
		if err := p.clickNext(ctx, page); err != nil {
			return "", err
		}
	}
	if job.PublishType != "" {
		if err := p.uploadVisibility(ctx, page, job.PublishType); err != nil {
			return "", err
		}
		c.debug("Publish type set")
	}

	state("publish")
	if err := page.WaitFor(ctx, selectors.PublishButton, browser.Present, p.timings.Default); err != nil {
		return "", schemas.TransientUIError("upload.publish", "publish button not enabled", err)
	}

	state("link_capture")
	link, err := p.captureLink(ctx, page)
	if err != nil {
		return "", err
	}

	state("close")
	if err := p.closeDialog(ctx, page, job); err != nil {
		return "", err
	}
	log.Debug("Upload finished", zap.String("link", link))
	return link, nil
}

// openComposer loads the upload dialog, retrying with a fresh navigation.
func (p *Procedures) openComposer(ctx context.Context, page browser.Page) error {
	t := p.timings
	policy := retry.Policy{
		MaxAttempts: t.ComposerAttempts,
		OnRetry: func(attempt int, err error) {
			p.transport.Log("Failed to find the select files button trying again")
			p.logger.Debug("Composer not ready", zap.Int("attempt", attempt), zap.Error(err))
		},
	}
	err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		if err := page.Evaluate(ctx, clearBeforeUnload, nil); err != nil {
			p.logger.Debug("Could not clear beforeunload handler", zap.Error(err))
		}
		if err := page.Navigate(ctx, selectors.UploadURL); err != nil {
			return err
		}
		p.clickIfShown(ctx, page, selectors.CreateIcon, t.Probe)
		p.clickIfShown(ctx, page, selectors.UploadVideosItem, t.Probe)
		if err := page.WaitFor(ctx, selectors.SelectFilesButton, browser.Present, t.Default); err != nil {
			return err
		}
		return page.WaitFor(ctx, selectors.CloseButton, browser.Present, t.Default)
	})
	if err != nil {
		return schemas.TransientUIError("upload.open_composer", "failed to find the select files button", err)
	}
	return nil
}

func (p *Procedures) platformError(ctx context.Context, page browser.Page) string {
	texts, err := page.Texts(ctx, selectors.UploadErrorArea)
	if err != nil {
		return ""
	}
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return ""
}

func (p *Procedures) uploadDetails(ctx context.Context, c *composer, job schemas.UploadJob) error {
	if err := c.setAudience(ctx, audience{NotForKids: job.NotForKids, AgeRestricted: job.AgeRestricted}); err != nil {
		return err
	}
	if job.Playlist != "" {
		c.selectPlaylist(ctx, selectors.UploadPlaylistDropdown, job.Playlist)
	}
	if err := c.showMore(ctx); err != nil {
		return err
	}
	if len(job.Tags) > 0 {
		if err := c.setTags(ctx, job.Tags, false); err != nil {
			p.logger.Warn("Tags not set", zap.Error(err))
		}
	}
	if job.NotifySubscribers != nil && !*job.NotifySubscribers {
		if err := c.disableNotifications(ctx); err != nil {
			return err
		}
	}
	if job.Language != "" {
		if err := c.setLanguage(ctx, job.Language); err != nil {
			return err
		}
	}
	if job.GameTitleSearch != "" {
		c.gameTitle(ctx, job.GameTitleSearch, job.GameSelector)
	}
	return nil
}

func (p *Procedures) clickNext(ctx context.Context, page browser.Page) error {
	if err := page.WaitFor(ctx, selectors.NextButton, browser.Present, p.timings.Default); err != nil {
		return schemas.TransientUIError("upload.next", "next button not enabled", err)
	}
	if err := page.Click(ctx, selectors.NextButton); err != nil {
		return schemas.TransientUIError("upload.next", "failed to click next", err)
	}
	return nil
}

// monetize turns monetization on and answers the self-certification
// questionnaire. Both dialogs are optional.
func (p *Procedures) monetize(ctx context.Context, page browser.Page) {
	t := p.timings
	step := func(sel string) error {
		if err := page.WaitFor(ctx, sel, browser.Visible, t.OptionalDialog); err != nil {
			return err
		}
		timings.Sleep(ctx, t.Settle)
		return page.Click(ctx, sel)
	}

	if err := func() error {
		for _, sel := range []string{selectors.MonetizationInput, selectors.MonetizationOnRadio, selectors.MonetizationSave} {
			if err := step(sel); err != nil {
				return err
			}
		}
		return p.clickNext(ctx, page)
	}(); err != nil {
		p.logger.Debug("Monetization dialog skipped", zap.Error(err))
	}

	if err := func() error {
		for _, sel := range []string{selectors.SelfCertCheckbox, selectors.SelfCertSubmit} {
			if err := step(sel); err != nil {
				return err
			}
		}
		return p.clickNext(ctx, page)
	}(); err != nil {
		p.logger.Debug("Self certification skipped", zap.Error(err))
	}
}

func (p *Procedures) uploadVisibility(ctx context.Context, page browser.Page, v schemas.Visibility) error {
	radio := selectors.PrivacyRadio(v.Radio())
	if err := page.WaitFor(ctx, radio, browser.Visible, p.timings.Default); err != nil {
		return schemas.TransientUIError("upload.visibility", fmt.Sprintf("visibility option %q not found", v), err)
	}
	timings.Sleep(ctx, p.timings.Settle)
	if err := page.Click(ctx, radio); err != nil {
		return schemas.TransientUIError("upload.visibility", "failed to select visibility", err)
	}
	if v.Premiere() {
		if err := page.Click(ctx, selectors.PremiereCheckbox); err != nil {
			p.logger.Warn("Premiere checkbox not found", zap.Error(err))
		}
	}
	return nil
}

// captureLink waits for the share link to carry the video id.
func (p *Procedures) captureLink(ctx context.Context, page browser.Page) (string, error) {
	const op = "upload.link_capture"
	if err := page.WaitFor(ctx, selectors.ShareLink, browser.Present, p.timings.Default); err != nil {
		return "", schemas.TransientUIError(op, "share link not found", err)
	}
	for range max(p.timings.LinkPollAttempts, 1) {
		timings.Sleep(ctx, p.timings.LinkPoll)
		if err := ctx.Err(); err != nil {
			return "", err
		}
		href, _, err := page.Attribute(ctx, selectors.ShareLink, "href")
		if err != nil {
			continue
		}
		if href != "" && href != selectors.VideoBaseLink && href != selectors.ShortBaseLink {
			return href, nil
		}
	}
	return "", schemas.TransientUIError(op, "share link never received the video id", nil)
}

// closeDialog publishes (or saves the draft) and waits for confirmation.
func (p *Procedures) closeDialog(ctx context.Context, page browser.Page, job schemas.UploadJob) error {
	const op = "upload.close"
	t := p.timings
	target := selectors.PublishButton
	if job.UploadAsDraft {
		target = selectors.SaveAndClose
	}
	policy := retry.Policy{MaxAttempts: t.PublishAttempts, Backoff: retry.Fixed(t.PublishBackoff)}
	if err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		return page.Click(ctx, target)
	}); err != nil {
		return schemas.TransientUIError(op, "failed to close the upload dialog", err)
	}

	if job.ChannelMonetized {
		p.clickIfShown(ctx, page, selectors.MonetizationSecondary, t.OptionalDialog)
	}
	if job.UploadAsDraft {
		return nil
	}
	if err := page.WaitFor(ctx, selectors.CloseButton, browser.Present, t.Default); err != nil {
		return schemas.NewError(schemas.KindConfiguration, op, "upload dialog did not reach its final state", err).
			WithHint(VisibilityHint)
	}
	return nil
}
