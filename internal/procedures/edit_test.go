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

const editLink = "https://www.youtube.com/watch?v=abc123"

// editPage scripts an editor whose save button disables after a click.
func editPage() *mocks.FakePage {
	return mocks.NewFakePage().
		Show(
			selectors.EditEntry, selectors.TitleBox, selectors.DescriptionBox,
			selectors.ShowMoreToggle, selectors.AdvancedSection, selectors.TagsInput,
			selectors.EditSave, selectors.SaveDisabled,
		).
		SetCount(selectors.Textboxes, 2)
}

func boolPtr(b bool) *bool { return &b }

func TestEdit_OnlySuppliedFields(t *testing.T) {
	p, transport := newTestProcedures(t)
	page := editPage()

	link, err := p.Edit(context.Background(), page, schemas.EditJob{Link: editLink, Title: "New title"})
	require.NoError(t, err)
	assert.Equal(t, editLink, link)
	assert.Equal(t, []string{editLink}, page.Navigations())
	assert.Equal(t, []string{"New title"}, page.TypedInto(selectors.TitleBox))
	assert.Empty(t, page.TypedInto(selectors.DescriptionBox))
	assert.Empty(t, page.TypedInto(selectors.TagsInput))
	assert.Zero(t, page.Clicked(selectors.MadeForKids), "audience untouched without flags")
	assert.Equal(t, 1, page.Clicked(selectors.EditSave))
	assert.Contains(t, transport.Texts("log"), "successfully edited")
}

func TestEdit_NotOwner(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := editPage().Hide(selectors.EditEntry)

	_, err := p.Edit(context.Background(), page, schemas.EditJob{Link: editLink, Title: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrOwnership)
	assert.Contains(t, err.Error(), "the video provided may not be yours")
	assert.False(t, schemas.IsFatal(err))
}

func TestEdit_NothingChanged(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := editPage().Hide(selectors.SaveDisabled)

	_, err := p.Edit(context.Background(), page, schemas.EditJob{Link: editLink, Title: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrNoChange)
	assert.Contains(t, err.Error(), "probably nothing was changed")
}

func TestEdit_Tags(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := editPage().Show(selectors.ClearTags)

	_, err := p.Edit(context.Background(), page, schemas.EditJob{
		Link:        editLink,
		Tags:        []string{"a"},
		ReplaceTags: []string{"b", "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a, ", "b, c, "}, page.TypedInto(selectors.TagsInput))
	assert.Equal(t, 1, page.Clicked(selectors.ClearTags))
}

func TestEdit_Visibility(t *testing.T) {
	t.Run("selects the radio and saves the dialog", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := editPage().Show(selectors.VisibilityContent, selectors.VisibilitySave,
			selectors.PrivacyRadio("PUBLIC"), selectors.PremiereCheckbox)

		_, err := p.Edit(context.Background(), page, schemas.EditJob{Link: editLink, PublishType: schemas.VisibilityPublicPremier})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Clicked(selectors.PrivacyRadio("PUBLIC")))
		assert.Equal(t, 1, page.Clicked(selectors.PremiereCheckbox))
		assert.Equal(t, 1, page.Clicked(selectors.VisibilitySave))
		assert.Empty(t, page.Keys())
	})

	t.Run("unclickable radio is treated as already selected", func(t *testing.T) {
		p, transport := newTestProcedures(t)
		page := editPage().Show(selectors.VisibilityContent, selectors.VisibilitySave)

		_, err := p.Edit(context.Background(), page, schemas.EditJob{Link: editLink, PublishType: schemas.VisibilityPrivate})
		require.NoError(t, err)
		assert.Equal(t, []string{"Escape"}, page.Keys())
		assert.Contains(t, transport.Texts("log"), "already selected")
		assert.Equal(t, 1, page.Clicked(selectors.VisibilitySave))
	})
}

func TestEdit_Audience(t *testing.T) {
	tests := []struct {
		name string
		job  schemas.EditJob
		want string
	}{
		{"made for kids", schemas.EditJob{NotForKids: boolPtr(false)}, selectors.MadeForKids},
		{"not for kids", schemas.EditJob{NotForKids: boolPtr(true)}, selectors.NotMadeForKids},
		{"age restricted implies not for kids", schemas.EditJob{AgeRestricted: boolPtr(true)}, selectors.AgeRestricted},
		{"explicit flags", schemas.EditJob{NotForKids: boolPtr(true), AgeRestricted: boolPtr(false)}, selectors.NotMadeForKids},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := editAudience(tt.job)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.radio())
		})
	}

	_, ok := editAudience(schemas.EditJob{})
	assert.False(t, ok)
}

func TestEdit_Thumbnail(t *testing.T) {
	t.Run("chooser opens directly", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := editPage().Show(selectors.ThumbnailUploader)

		_, err := p.Edit(context.Background(), page, schemas.EditJob{Link: editLink, Thumbnail: "/t.png"})
		require.NoError(t, err)
		assert.Equal(t, []mocks.ChosenFile{{Trigger: selectors.ThumbnailUploader, Paths: []string{"/t.png"}}}, page.Files())
		assert.Zero(t, page.Clicked(selectors.PreviousStill))
	})

	t.Run("previous thumbnail is replaced first", func(t *testing.T) {
		p, transport := newTestProcedures(t)
		page := editPage().Show(selectors.PreviousStill)
		page.OnClick(selectors.PreviousStill, func() { page.Show(selectors.ThumbnailUploader) })

		_, err := p.Edit(context.Background(), page, schemas.EditJob{Link: editLink, Thumbnail: "/t.png"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Clicked(selectors.PreviousStill))
		assert.Len(t, page.Files(), 1)
		assert.Contains(t, transport.Texts("log"), "replacing previous thumbnail")
	})
}
