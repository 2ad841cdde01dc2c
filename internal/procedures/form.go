// File: internal/procedures/form.go
package procedures

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/retry"
	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// audience is the made-for-kids / age-restriction choice.
type audience struct {
	NotForKids    bool
	AgeRestricted bool
}

// radio picks the single radio that expresses a.
func (a audience) radio() string {
	switch {
	case !a.NotForKids:
		return selectors.MadeForKids
	case a.AgeRestricted:
		return selectors.AgeRestricted
	default:
		return selectors.NotMadeForKids
	}
}

// composer fills the metadata form shared by the upload dialog and the edit
// page. label prefixes operator messages.
type composer struct {
	p     *Procedures
	page  browser.Page
	label string
	op    string
}

func (p *Procedures) composer(page browser.Page, label, op string) *composer {
	return &composer{p: p, page: page, label: label, op: op}
}

func (c *composer) debug(msg string) {
	c.p.transport.Debug(fmt.Sprintf("  >> %s - %s", c.label, msg))
}

func (c *composer) warn(msg string) {
	c.p.transport.Warn(fmt.Sprintf("  >> %s - %s", c.label, msg))
}

// waitTextboxes blocks until both the title and description boxes exist.
func (c *composer) waitTextboxes(ctx context.Context) error {
	if err := c.p.waitCount(ctx, c.page, selectors.Textboxes, 1, c.p.timings.EditForm); err != nil {
		return schemas.TransientUIError(c.op, "title and description boxes not found", err)
	}
	return nil
}

// setText replaces the content of textbox index i (0 title, 1 description).
func (c *composer) setText(ctx context.Context, i int, text string) error {
	sel := selectors.TitleBox
	if i == 1 {
		sel = selectors.DescriptionBox
	}
	if err := c.page.Focus(ctx, sel); err != nil {
		return schemas.TransientUIError(c.op, "textbox not focusable", err)
	}
	timings.Sleep(ctx, c.p.timings.Settle)
	script := fmt.Sprintf(`(() => { const b = document.querySelectorAll('[id="textbox"]')[%d]; if (b) { b.textContent = ''; } return true; })()`, i)
	if err := c.page.Evaluate(ctx, script, nil); err != nil {
		return schemas.TransientUIError(c.op, "failed to clear textbox", err)
	}
	if err := c.page.Type(ctx, sel, text, 0); err != nil {
		return schemas.TransientUIError(c.op, "failed to type into textbox", err)
	}
	return nil
}

// titleAndDescription writes whichever of the two is non-empty.
func (c *composer) titleAndDescription(ctx context.Context, title, description string) error {
	if title != "" {
		if err := c.setText(ctx, 0, Truncate(title, MaxTitleRunes)); err != nil {
			return err
		}
	}
	if description != "" {
		if err := c.setText(ctx, 1, Truncate(description, MaxDescriptionRunes)); err != nil {
			return err
		}
	}
	return nil
}

// setAudience clicks the audience radio. Only the age-restriction radio is
// required to exist.
func (c *composer) setAudience(ctx context.Context, a audience) error {
	sel := a.radio()
	if err := c.page.Click(ctx, sel); err != nil {
		if sel == selectors.AgeRestricted {
			return schemas.TransientUIError(c.op, "age restriction option not found", err)
		}
		c.p.logger.Debug("Audience radio not clickable", zap.String("selector", sel), zap.Error(err))
	}
	c.debug("Kid restriction set")
	return nil
}

var errPlaylistCreated = errors.New("playlist created, selecting it")

// selectPlaylist picks name from the playlist dropdown, creating it when the
// filter finds nothing. It reports whether the playlist ended up selected.
func (c *composer) selectPlaylist(ctx context.Context, dropdown, name string) bool {
	t := c.p.timings
	entry := selectors.ExactText(name)
	created := false

	policy := retry.Policy{
		MaxAttempts: t.PlaylistAttempts,
		OnRetry: func(attempt int, err error) {
			c.p.logger.Debug("Retrying playlist selection", zap.Int("attempt", attempt), zap.Error(err))
		},
	}
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := c.page.Click(ctx, dropdown); err != nil {
			return fmt.Errorf("open playlist dropdown: %w", err)
		}
		if err := c.page.WaitFor(ctx, selectors.PlaylistSearch, browser.Visible, t.Default); err != nil {
			return fmt.Errorf("playlist search: %w", err)
		}
		if err := c.page.Focus(ctx, selectors.PlaylistSearch); err != nil {
			return fmt.Errorf("playlist search: %w", err)
		}
		if err := c.page.Type(ctx, selectors.PlaylistSearch, name, 0); err != nil {
			return fmt.Errorf("playlist search: %w", err)
		}
		if err := c.page.WaitFor(ctx, entry, browser.Visible, t.Playlist); err == nil {
			if err := c.page.Click(ctx, entry); err != nil {
				return fmt.Errorf("select playlist: %w", err)
			}
			return c.page.Click(ctx, selectors.DoneButton)
		}
		if created {
			return fmt.Errorf("playlist %q not listed after creating it", name)
		}

		c.p.transport.Log(fmt.Sprintf("  >> %s - %s not found. Creating...", c.label, name))
		if err := c.createPlaylist(ctx, dropdown, name); err != nil {
			return err
		}
		created = true
		if attempt >= t.PlaylistAttempts {
			return nil
		}
		return errPlaylistCreated
	})
	if err != nil {
		c.warn("Failed setting playlist")
		c.p.logger.Warn("Playlist selection failed", zap.String("playlist", name), zap.Error(err))
		return false
	}
	c.debug("Playlist set to " + name)
	return true
}

func (c *composer) createPlaylist(ctx context.Context, dropdown, name string) error {
	t := c.p.timings
	if ok, _ := c.page.Exists(ctx, selectors.NewPlaylist); !ok {
		if err := c.page.Click(ctx, dropdown); err != nil {
			return fmt.Errorf("reopen playlist dropdown: %w", err)
		}
	}
	if err := c.page.WaitFor(ctx, selectors.NewPlaylist, browser.Visible, t.Default); err != nil {
		return fmt.Errorf("new playlist button: %w", err)
	}
	if err := c.page.Click(ctx, selectors.NewPlaylist); err != nil {
		return fmt.Errorf("new playlist button: %w", err)
	}
	if err := c.page.TypeActive(ctx, " "+Truncate(name, MaxPlaylistRunes), 0); err != nil {
		return fmt.Errorf("playlist name: %w", err)
	}
	// The dialog's own Create button is the second match; the first is the toolbar entry.
	if err := c.page.ClickNth(ctx, selectors.CreateButtons, 1); err != nil {
		return fmt.Errorf("create playlist: %w", err)
	}
	if err := c.page.Click(ctx, selectors.DoneButton); err != nil {
		return fmt.Errorf("close playlist dialog: %w", err)
	}
	return nil
}

// showMore expands the advanced section.
func (c *composer) showMore(ctx context.Context) error {
	if ok, _ := c.page.Exists(ctx, selectors.ShowMoreToggle); !ok {
		return schemas.TransientUIError(c.op, "toggle button not found", nil)
	}
	for i := 0; i < max(c.p.timings.ShowMoreAttempts, 1); i++ {
		if ok, _ := c.page.Exists(ctx, selectors.AdvancedSection); ok {
			return nil
		}
		if err := c.page.Click(ctx, selectors.ShowMoreToggle); err != nil {
			return schemas.TransientUIError(c.op, "failed to expand advanced options", err)
		}
		timings.Sleep(ctx, c.p.timings.Settle)
	}
	if ok, _ := c.page.Exists(ctx, selectors.AdvancedSection); ok {
		return nil
	}
	return schemas.TransientUIError(c.op, "advanced options did not expand", nil)
}

// setTags types tags into the tags field, clearing existing ones first when replace is set.
func (c *composer) setTags(ctx context.Context, tags []string, replace bool) error {
	if replace {
		if err := c.page.Click(ctx, selectors.ClearTags); err != nil {
			c.p.logger.Debug("No tags to clear", zap.Error(err))
		}
	}
	if err := c.page.Focus(ctx, selectors.TagsInput); err != nil {
		return schemas.TransientUIError(c.op, "tags field not found", err)
	}
	if err := c.page.Type(ctx, selectors.TagsInput, TagList(tags), 0); err != nil {
		return schemas.TransientUIError(c.op, "failed to type tags", err)
	}
	c.debug("Tags set to " + strings.Join(tags, ", "))
	return nil
}

// disableNotifications unticks "publish to subscriptions feed and notify subscribers".
func (c *composer) disableNotifications(ctx context.Context) error {
	if err := c.page.WaitFor(ctx, selectors.NotifyToggle, browser.Visible, c.p.timings.Default); err != nil {
		return schemas.TransientUIError(c.op, "notify subscribers toggle not found", err)
	}
	if err := c.page.Click(ctx, selectors.NotifyToggle); err != nil {
		return schemas.TransientUIError(c.op, "failed to toggle notifications", err)
	}
	return nil
}

// setLanguage picks the video language. The last matching entry is the option
// inside the open list.
func (c *composer) setLanguage(ctx context.Context, language string) error {
	option := selectors.LanguageOption(language)
	if err := c.page.Click(ctx, selectors.LanguageDropdown); err != nil {
		return schemas.TransientUIError(c.op, "language dropdown not found", err)
	}
	if err := c.page.WaitFor(ctx, option, browser.Present, c.p.timings.Default); err != nil {
		return schemas.TransientUIError(c.op, fmt.Sprintf("language %q not listed", language), err)
	}
	if err := c.page.ClickNth(ctx, option, -1); err != nil {
		return schemas.TransientUIError(c.op, "failed to select language", err)
	}
	c.debug("Video language set to " + language)
	return nil
}

// selectGame sets the gaming category and picks a game from the title search.
// It reports whether a candidate accepted by pick was clicked. Without an
// accepted candidate the first result is clicked so the dropdown closes.
func (c *composer) selectGame(ctx context.Context, search string, pick func(schemas.GameData) bool) bool {
	t := c.p.timings
	if ok, _ := c.page.Exists(ctx, selectors.CategoryContainer); !ok {
		c.warn("selectGame: category container not found.")
		return false
	}
	if err := c.page.Click(ctx, selectors.CategoryDropdown); err != nil {
		c.p.logger.Debug("Category dropdown not clickable", zap.Error(err))
	}
	timings.Sleep(ctx, t.Settle)

	if ok, _ := c.page.Exists(ctx, selectors.GamingCategory); !ok {
		c.warn("selectGame: Gaming category button not found.")
		return false
	}
	if err := c.page.Click(ctx, selectors.GamingCategory); err != nil {
		c.warn("selectGame: Gaming category button not clickable.")
		return false
	}
	timings.Sleep(ctx, t.Settle)

	if ok, _ := c.page.Exists(ctx, selectors.GameTitleInput); !ok {
		c.warn("selectGame: game title box not found.")
		return false
	}
	if err := c.page.Focus(ctx, selectors.GameTitleInput); err != nil {
		c.warn("selectGame: game title box not focusable.")
		return false
	}
	if err := c.page.Type(ctx, selectors.GameTitleInput, search, 0); err != nil {
		c.warn("selectGame: failed to type the game title.")
		return false
	}
	if err := c.page.WaitFor(ctx, selectors.GameResults, browser.Visible, t.Default); err != nil {
		c.warn("selectGame: no game options shown.")
		return false
	}

	ids, err := c.page.Attributes(ctx, selectors.GameResults, "test-id")
	if err != nil {
		c.warn("selectGame: game options unreadable.")
		return false
	}
	for i, raw := range ids {
		if !strings.HasPrefix(raw, `{"title"`) {
			continue
		}
		if pick != nil && !pick(schemas.ParseGameData(raw)) {
			continue
		}
		if err := c.page.ClickNth(ctx, selectors.GameResults, i); err != nil {
			c.warn("selectGame: failed to click the game option.")
			return false
		}
		return true
	}
	if len(ids) > 0 {
		_ = c.page.ClickNth(ctx, selectors.GameResults, 0)
	}
	return false
}

// gameTitle runs selectGame and reports the outcome to the operator.
func (c *composer) gameTitle(ctx context.Context, search string, pick func(schemas.GameData) bool) {
	if c.selectGame(ctx, search, pick) {
		c.debug("Game title set to " + search)
		return
	}
	c.warn("Failed setting game title")
}
