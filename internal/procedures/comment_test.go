package procedures

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tubepilot/internal/mocks"
	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

func TestModeFor(t *testing.T) {
	assert.Equal(t, CommentLive, ModeFor(schemas.CommentJob{Link: "https://youtube.com/shorts/x", Live: true}))
	assert.Equal(t, CommentShort, ModeFor(schemas.CommentJob{Link: "https://youtube.com/shorts/x"}))
	assert.Equal(t, CommentStandard, ModeFor(schemas.CommentJob{Link: "https://www.youtube.com/watch?v=x"}))
}

func TestComment_Standard(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := mocks.NewFakePage().Show(selectors.CommentInput, selectors.CommentSubmit)
	text := strings.Repeat("x", MaxCommentRunes+50)

	value, err := p.Comment(context.Background(), page, schemas.CommentJob{Link: "https://www.youtube.com/watch?v=x", Text: text})
	require.NoError(t, err)
	assert.Equal(t, schemas.CommentSuccess, value)
	assert.Equal(t, []string{strings.Repeat("x", MaxCommentRunes)}, page.TypedInto(selectors.CommentInput))
	assert.Equal(t, 1, page.Clicked(selectors.CommentSubmit))
}

func TestComment_StandardMissingBox(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := mocks.NewFakePage()

	_, err := p.Comment(context.Background(), page, schemas.CommentJob{Link: "https://www.youtube.com/watch?v=x", Text: "hi"})
	assert.ErrorIs(t, err, schemas.ErrTransientUI)
}

func TestComment_Pin(t *testing.T) {
	pinPage := func() *mocks.FakePage {
		return mocks.NewFakePage().Show(
			selectors.CommentInput, selectors.CommentSubmit, selectors.CommentList,
			selectors.CommentActionMenu, selectors.PinMenuItem, selectors.PinConfirm,
		)
	}

	t.Run("pins the new comment once it appears", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := pinPage()
		page.OnClick(selectors.CommentSubmit, func() { page.EmitChild(selectors.CommentList) })

		_, err := p.Comment(context.Background(), page, schemas.CommentJob{Link: "https://www.youtube.com/watch?v=x", Text: "hi", Pin: true})
		require.NoError(t, err)
		assert.Equal(t, []string{
			selectors.CommentInput, selectors.CommentSubmit,
			selectors.CommentActionMenu, selectors.PinMenuItem, selectors.PinConfirm,
		}, page.Clicks())
	})

	t.Run("times out when the comment never appears", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := pinPage()

		_, err := p.Comment(context.Background(), page, schemas.CommentJob{Link: "https://www.youtube.com/watch?v=x", Text: "hi", Pin: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrTransientUI)
		assert.Contains(t, err.Error(), "posted comment did not appear")
		assert.Zero(t, page.Clicked(selectors.PinMenuItem))
	})
}

func TestComment_Short(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := mocks.NewFakePage().Show(selectors.CommentsButton, selectors.CommentInput, selectors.CommentSubmit)

	_, err := p.Comment(context.Background(), page, schemas.CommentJob{Link: "https://youtube.com/shorts/x", Text: "nice"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Clicked(selectors.CommentsButton))
	assert.Equal(t, []string{"nice"}, page.TypedInto(selectors.CommentInput))
}

func TestComment_Live(t *testing.T) {
	t.Run("types into the chat by coordinates", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := mocks.NewFakePage().Show(selectors.LiveChatLabel, selectors.LiveChatInput)
		text := strings.Repeat("y", 300)

		_, err := p.Comment(context.Background(), page, schemas.CommentJob{Link: "https://www.youtube.com/watch?v=live", Text: text, Live: true})
		require.NoError(t, err)
		assert.Equal(t, [][2]float64{
			{selectors.LiveChatInputX, selectors.LiveChatInputY},
			{selectors.LiveChatSendX, selectors.LiveChatSendY},
		}, page.Coordinates())
		assert.Equal(t, []string{strings.Repeat("y", MaxLiveCommentRunes)}, page.TypedInto(""))
	})

	t.Run("missing chat means the video is not live", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := mocks.NewFakePage()

		_, err := p.Comment(context.Background(), page, schemas.CommentJob{Link: "https://www.youtube.com/watch?v=vod", Text: "hi", Live: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrOwnership)
		assert.Contains(t, err.Error(), "video may not be live")
		assert.Empty(t, page.Coordinates())
	})
}
