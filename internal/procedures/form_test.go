package procedures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tubepilot/internal/mocks"
	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

func TestSelectPlaylist(t *testing.T) {
	const name = "Highlights"
	entry := selectors.ExactText(name)
	dropdown := selectors.UploadPlaylistDropdown

	t.Run("existing playlist is selected", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := mocks.NewFakePage().Show(dropdown, selectors.PlaylistSearch, selectors.DoneButton, entry)

		ok := p.composer(page, "clip", "upload.metadata").selectPlaylist(context.Background(), dropdown, name)
		assert.True(t, ok)
		assert.Equal(t, []string{dropdown, entry, selectors.DoneButton}, page.Clicks())
		assert.Equal(t, []string{name}, page.TypedInto(selectors.PlaylistSearch))
	})

	t.Run("missing playlist is created then selected", func(t *testing.T) {
		p, transport := newTestProcedures(t)
		page := mocks.NewFakePage().
			Show(dropdown, selectors.PlaylistSearch, selectors.DoneButton, selectors.NewPlaylist, selectors.CreateButtons).
			SetCount(selectors.CreateButtons, 2)
		page.OnClick(selectors.CreateButtons, func() { page.Show(entry) })

		ok := p.composer(page, "clip", "upload.metadata").selectPlaylist(context.Background(), dropdown, name)
		assert.True(t, ok)
		assert.Equal(t, []string{
			dropdown, selectors.NewPlaylist, selectors.CreateButtons + "[1]", selectors.DoneButton,
			dropdown, entry, selectors.DoneButton,
		}, page.Clicks())
		assert.Equal(t, []string{" " + name}, page.TypedInto(""))
		assert.Contains(t, transport.Texts("log"), "  >> clip - Highlights not found. Creating...")
	})

	t.Run("failure is reported, not returned", func(t *testing.T) {
		p, transport := newTestProcedures(t)
		page := mocks.NewFakePage().Show(dropdown)

		ok := p.composer(page, "clip", "upload.metadata").selectPlaylist(context.Background(), dropdown, name)
		assert.False(t, ok)
		assert.Contains(t, transport.Texts("warn"), "  >> clip - Failed setting playlist")
	})
}

func gamePage() *mocks.FakePage {
	return mocks.NewFakePage().
		Show(
			selectors.CategoryContainer, selectors.CategoryDropdown, selectors.GamingCategory,
			selectors.GameTitleInput, selectors.GameResults,
		).
		SetAttr(selectors.GameResults, "test-id",
			"not a game",
			`{"title":"Minecraft","year":"2011"}`,
			`{"title":"Minecraft Dungeons","year":"2020"}`,
		)
}

func TestSelectGame(t *testing.T) {
	t.Run("first structured candidate without a picker", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := gamePage()

		ok := p.composer(page, "clip", "upload.metadata").selectGame(context.Background(), "Minecraft", nil)
		assert.True(t, ok)
		assert.Contains(t, page.Clicks(), selectors.GameResults+"[1]")
		assert.Equal(t, []string{"Minecraft"}, page.TypedInto(selectors.GameTitleInput))
	})

	t.Run("picker chooses among candidates", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := gamePage()
		var seen []schemas.GameData
		pick := func(g schemas.GameData) bool {
			seen = append(seen, g)
			return g.Year == "2020"
		}

		ok := p.composer(page, "clip", "upload.metadata").selectGame(context.Background(), "Minecraft", pick)
		assert.True(t, ok)
		assert.Contains(t, page.Clicks(), selectors.GameResults+"[2]")
		assert.Equal(t, []schemas.GameData{
			{Title: "Minecraft", Year: "2011"},
			{Title: "Minecraft Dungeons", Year: "2020"},
		}, seen)
	})

	t.Run("no accepted candidate closes the list on the first entry", func(t *testing.T) {
		p, transport := newTestProcedures(t)
		page := gamePage()

		c := p.composer(page, "clip", "upload.metadata")
		c.gameTitle(context.Background(), "Minecraft", func(schemas.GameData) bool { return false })
		assert.Contains(t, page.Clicks(), selectors.GameResults+"[0]")
		assert.Contains(t, transport.Texts("warn"), "  >> clip - Failed setting game title")
	})

	t.Run("missing category aborts quietly", func(t *testing.T) {
		p, transport := newTestProcedures(t)
		page := mocks.NewFakePage()

		ok := p.composer(page, "clip", "upload.metadata").selectGame(context.Background(), "Minecraft", nil)
		assert.False(t, ok)
		assert.Empty(t, page.Clicks())
		assert.Contains(t, transport.Texts("warn"), "  >> clip - selectGame: category container not found.")
	})
}

func TestShowMore(t *testing.T) {
	t.Run("missing toggle", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		err := p.composer(mocks.NewFakePage(), "clip", "upload.metadata").showMore(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrTransientUI)
		assert.Contains(t, err.Error(), "toggle button not found")
	})

	t.Run("expands once", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := mocks.NewFakePage().Show(selectors.ShowMoreToggle)
		page.OnClick(selectors.ShowMoreToggle, func() { page.Show(selectors.AdvancedSection) })

		require.NoError(t, p.composer(page, "clip", "upload.metadata").showMore(context.Background()))
		assert.Equal(t, 1, page.Clicked(selectors.ShowMoreToggle))
	})
}

func TestAudienceRadio(t *testing.T) {
	assert.Equal(t, selectors.MadeForKids, audience{}.radio())
	assert.Equal(t, selectors.MadeForKids, audience{AgeRestricted: true}.radio())
	assert.Equal(t, selectors.NotMadeForKids, audience{NotForKids: true}.radio())
	assert.Equal(t, selectors.AgeRestricted, audience{NotForKids: true, AgeRestricted: true}.radio())
}
