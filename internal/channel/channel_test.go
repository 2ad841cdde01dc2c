package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tubepilot/internal/mocks"
	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/internal/session"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

func TestSelect(t *testing.T) {
	ctx := context.Background()
	newSelector := func(t *testing.T) *Selector {
		return NewSelector(timings.Fast(), zaptest.NewLogger(t))
	}

	t.Run("empty name is a no-op", func(t *testing.T) {
		page := mocks.NewFakePage()
		sess := session.New("a@b.c", page, true)
		require.NoError(t, newSelector(t).Select(ctx, sess, ""))
		assert.Empty(t, page.Navigations())
	})

	t.Run("same channel twice navigates once", func(t *testing.T) {
		page := mocks.NewFakePage().Show(selectors.ExactText("Gaming Clips"))
		sess := session.New("a@b.c", page, true)
		s := newSelector(t)

		require.NoError(t, s.Select(ctx, sess, "Gaming Clips"))
		require.NoError(t, s.Select(ctx, sess, "Gaming Clips"))

		assert.Equal(t, 1, page.NavigationsTo(selectors.ChannelSwitcherURL))
		assert.Equal(t, 1, page.Clicked(selectors.ExactText("Gaming Clips")))
		assert.Equal(t, "Gaming Clips", sess.Channel())
	})

	t.Run("switching back and forth navigates each time", func(t *testing.T) {
		page := mocks.NewFakePage().Show(selectors.ExactText("A"), selectors.ExactText("B"))
		sess := session.New("a@b.c", page, true)
		s := newSelector(t)

		for _, name := range []string{"A", "B", "A"} {
			require.NoError(t, s.Select(ctx, sess, name))
		}
		assert.Equal(t, 3, page.NavigationsTo(selectors.ChannelSwitcherURL))
	})

	t.Run("quotes in the name are matched exactly", func(t *testing.T) {
		name := `Bob's "Best" Channel`
		page := mocks.NewFakePage().Show(selectors.ExactText(name))
		sess := session.New("a@b.c", page, true)
		require.NoError(t, newSelector(t).Select(ctx, sess, name))
		assert.Equal(t, name, sess.Channel())
	})

	t.Run("missing entry", func(t *testing.T) {
		page := mocks.NewFakePage()
		sess := session.New("a@b.c", page, true)
		err := newSelector(t).Select(ctx, sess, "Nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrChannelNotFound)
		assert.Empty(t, sess.Channel())
	})

	t.Run("reset forces a new switch", func(t *testing.T) {
		page := mocks.NewFakePage().Show(selectors.ExactText("A"))
		sess := session.New("a@b.c", page, true)
		s := newSelector(t)
		require.NoError(t, s.Select(ctx, sess, "A"))
		sess.ResetChannel()
		require.NoError(t, s.Select(ctx, sess, "A"))
		assert.Equal(t, 2, page.NavigationsTo(selectors.ChannelSwitcherURL))
	})
}
