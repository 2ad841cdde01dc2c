// File: internal/procedures/race.go
package procedures

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/tubepilot/pkg/browser"
)

// firstPresent waits for any of the selectors to appear and returns the index
// of the first one seen. The remaining waits are cancelled and joined before
// it returns.
func firstPresent(ctx context.Context, page browser.Page, timeout time.Duration, sels ...string) (int, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	won := make(chan int, len(sels))
	g, gctx := errgroup.WithContext(raceCtx)
	for i, sel := range sels {
		g.Go(func() error {
			if err := page.WaitFor(gctx, sel, browser.Present, timeout); err != nil {
				return err
			}
			won <- i
			cancel()
			return nil
		})
	}
	err := g.Wait()

	select {
	case i := <-won:
		return i, nil
	default:
	}
	if cerr := ctx.Err(); cerr != nil {
		return -1, cerr
	}
	return -1, err
}
