// File: internal/procedures/edit.go
package procedures

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/retry"
	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// Edit applies the supplied fields of job to an existing video and returns its link.
func (p *Procedures) Edit(ctx context.Context, page browser.Page, job schemas.EditJob) (string, error) {
	t := p.timings
	c := p.composer(page, job.Link, "edit.metadata")
	log := p.logger.With(zap.String("link", job.Link))

	if err := page.Navigate(ctx, job.Link); err != nil {
		return "", schemas.TransientUIError("edit.open", "failed to open the video", err)
	}
	if err := page.WaitFor(ctx, selectors.EditEntry, browser.Visible, t.EditEntry); err != nil {
		return "", schemas.OwnershipError("edit.open", "the video provided may not be yours", err)
	}
	if err := page.Click(ctx, selectors.EditEntry); err != nil {
		return "", schemas.TransientUIError("edit.open", "failed to open the editor", err)
	}
	if err := page.WaitFor(ctx, selectors.Textboxes, browser.Present, t.EditForm); err != nil {
		return "", schemas.TransientUIError("edit.open", "editor did not load", err)
	}
	if err := c.waitTextboxes(ctx); err != nil {
		return "", err
	}

	if a, ok := editAudience(job); ok {
		if err := c.setAudience(ctx, a); err != nil {
			return "", err
		}
	}
	if err := c.titleAndDescription(ctx, job.Title, job.Description); err != nil {
		return "", err
	}
	if job.Thumbnail != "" {
		if err := p.replaceThumbnail(ctx, page, job.Thumbnail); err != nil {
			return "", err
		}
	}
	if job.Playlist != "" {
		c.selectPlaylist(ctx, selectors.EditPlaylistDropdown, job.Playlist)
	}
	if len(job.Tags) > 0 || len(job.ReplaceTags) > 0 || job.Language != "" {
		if err := c.showMore(ctx); err != nil {
			return "", err
		}
	}
	if len(job.Tags) > 0 {
		if err := c.setTags(ctx, job.Tags, false); err != nil {
			return "", err
		}
	}
	if len(job.ReplaceTags) > 0 {
		if err := c.setTags(ctx, job.ReplaceTags, true); err != nil {
			return "", err
		}
	}
	if job.Language != "" {
		if err := c.setLanguage(ctx, job.Language); err != nil {
			return "", err
		}
	}
	if job.GameTitleSearch != "" {
		c.gameTitle(ctx, job.GameTitleSearch, job.GameSelector)
	}
	if job.PublishType != "" {
		if err := p.editVisibility(ctx, page, job.PublishType); err != nil {
			return "", err
		}
	}

	if err := p.saveEdit(ctx, page); err != nil {
		return "", err
	}
	p.transport.Log("successfully edited")
	log.Debug("Edit saved")
	return job.Link, nil
}

// editAudience derives the audience choice from the optional flags. An
// age-restricted video is implicitly not made for kids.
func editAudience(job schemas.EditJob) (audience, bool) {
	if job.NotForKids == nil && job.AgeRestricted == nil {
		return audience{}, false
	}
	a := audience{}
	if job.AgeRestricted != nil {
		a.AgeRestricted = *job.AgeRestricted
		a.NotForKids = *job.AgeRestricted
	}
	if job.NotForKids != nil {
		a.NotForKids = *job.NotForKids
	}
	return a, true
}

// replaceThumbnail answers the thumbnail chooser. When the video already has
// a custom thumbnail the chooser does not open, so the previous still is
// restored and saved before trying again.
func (p *Procedures) replaceThumbnail(ctx context.Context, page browser.Page, path string) error {
	t := p.timings
	policy := retry.Policy{
		MaxAttempts: 2,
		OnRetry: func(int, error) {
			p.transport.Log("replacing previous thumbnail")
			if err := p.resetThumbnail(ctx, page); err != nil {
				p.logger.Debug("Thumbnail reset failed", zap.Error(err))
			}
		},
	}
	err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		if err := page.WaitFor(ctx, selectors.ThumbnailUploader, browser.Visible, t.Default); err != nil {
			return err
		}
		return page.ChooseFile(ctx, selectors.ThumbnailUploader, path)
	})
	if err != nil {
		return schemas.TransientUIError("edit.thumbnail", "thumbnail chooser did not accept the file", err)
	}
	return nil
}

func (p *Procedures) resetThumbnail(ctx context.Context, page browser.Page) error {
	t := p.timings
	if err := page.Click(ctx, selectors.PreviousStill); err != nil {
		return err
	}
	if err := page.WaitFor(ctx, selectors.EditSave, browser.Visible, t.Default); err != nil {
		return err
	}
	if err := page.Click(ctx, selectors.EditSave); err != nil {
		return err
	}
	if err := page.WaitFor(ctx, selectors.SaveDisabled, browser.Present, t.Default); err != nil {
		return err
	}
	timings.Sleep(ctx, t.Settle)
	return nil
}

// editVisibility changes the privacy radio in the visibility dialog. A radio
// that cannot be clicked is usually the current value, so the dialog is
// dismissed and the edit goes on.
func (p *Procedures) editVisibility(ctx context.Context, page browser.Page, v schemas.Visibility) error {
	const op = "edit.visibility"
	if err := page.Focus(ctx, selectors.VisibilityContent); err != nil {
		return schemas.TransientUIError(op, "visibility section not found", err)
	}
	if err := page.Click(ctx, selectors.VisibilityContent); err != nil {
		return schemas.TransientUIError(op, "failed to open the visibility dialog", err)
	}
	timings.Sleep(ctx, p.timings.PageSettle)

	err := page.Click(ctx, selectors.PrivacyRadio(v.Radio()))
	if err == nil && v.Premiere() {
		err = page.Click(ctx, selectors.PremiereCheckbox)
	}
	if err != nil {
		p.transport.Log("already selected")
		p.logger.Debug("Visibility radio not clickable", zap.String("visibility", string(v)), zap.Error(err))
		if perr := page.Press(ctx, "Escape"); perr != nil {
			return schemas.TransientUIError(op, "failed to dismiss the visibility dialog", perr)
		}
	}
	if err := page.Click(ctx, selectors.VisibilitySave); err != nil {
		return schemas.TransientUIError(op, fmt.Sprintf("failed to save visibility %q", v), err)
	}
	timings.Sleep(ctx, p.timings.Settle)
	return nil
}

// saveEdit clicks save and waits for the button to disable, which only
// happens once the change is persisted.
func (p *Procedures) saveEdit(ctx context.Context, page browser.Page) error {
	t := p.timings
	err := page.WaitFor(ctx, selectors.EditSave, browser.Visible, t.Default)
	if err == nil {
		err = page.Click(ctx, selectors.EditSave)
	}
	if err == nil {
		err = page.WaitFor(ctx, selectors.SaveDisabled, browser.Present, t.Default)
	}
	if err != nil {
		return schemas.NewError(schemas.KindNoChange, "edit.save", "probably nothing was changed", err)
	}
	return nil
}
