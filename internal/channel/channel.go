// File: internal/channel/channel.go
package channel

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/internal/session"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// Selector switches the signed-in account to a named channel.
type Selector struct {
	timings timings.Timings
	logger  *zap.Logger
}

func NewSelector(t timings.Timings, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{timings: t, logger: logger.Named("channel")}
}

// Select makes name the active channel of sess. It does nothing when name is
// empty or already selected.
func (s *Selector) Select(ctx context.Context, sess *session.Session, name string) error {
	if name == "" || name == sess.Channel() {
		return nil
	}
	const op = "channel.select"
	page := sess.Page()
	entry := selectors.ExactText(name)

	s.logger.Debug("Switching channel", zap.String("channel", name), zap.String("previous", sess.Channel()))
	if err := page.Navigate(ctx, selectors.ChannelSwitcherURL); err != nil {
		return schemas.TransientUIError(op, "failed to open the channel switcher", err)
	}
	if err := page.WaitFor(ctx, entry, browser.Visible, s.timings.Default); err != nil {
		return schemas.NewError(schemas.KindChannelNotFound, op, fmt.Sprintf("channel %q not found", name), err)
	}
	if err := page.Click(ctx, entry); err != nil {
		return schemas.TransientUIError(op, "failed to click the channel entry", err)
	}
	if err := page.WaitForNavigation(ctx, s.timings.Default); err != nil {
		return schemas.TransientUIError(op, "channel switch did not navigate", err)
	}
	timings.Sleep(ctx, s.timings.PageSettle)
	sess.SetChannel(name)
	return nil
}
