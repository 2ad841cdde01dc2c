// pkg/browser/cdp/page.go
package cdp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cdpproto "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ensure Page implements the interface
var _ browser.Page = (*Page)(nil)

// pollInterval is how often Hidden waits re-check the DOM.
const pollInterval = 100 * time.Millisecond

// Page drives one chromedp tab.
type Page struct {
	id             string
	logger         *zap.Logger
	tabCtx         context.Context
	tabCancel      context.CancelFunc
	allocCancel    context.CancelFunc
	defaultTimeout time.Duration

	// Navigations are counted so WaitForNavigation can observe one that
	// happened between the triggering action and the call.
	loadMu   sync.Mutex
	loadSeq  uint64
	markSeq  uint64
	loadWake chan struct{}

	closeOnce sync.Once
}

func newPage(tabCtx context.Context, tabCancel, allocCancel context.CancelFunc, logger *zap.Logger, timeout time.Duration) *Page {
	id := uuid.New().String()
	p := &Page{
		id:             id,
		logger:         logger.With(zap.String("page_id", id[:8])),
		tabCtx:         tabCtx,
		tabCancel:      tabCancel,
		allocCancel:    allocCancel,
		defaultTimeout: timeout,
		loadWake:       make(chan struct{}),
	}
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventLoadEventFired, *page.EventNavigatedWithinDocument:
			p.navigated()
		case *page.EventFrameNavigated:
			if ev.Frame != nil && ev.Frame.ParentID == "" {
				p.navigated()
			}
		}
	})
	return p
}

// navigated counts a main-frame navigation and wakes WaitForNavigation.
// History API changes count the same as full loads.
func (p *Page) navigated() {
	p.loadMu.Lock()
	p.loadSeq++
	close(p.loadWake)
	p.loadWake = make(chan struct{})
	p.loadMu.Unlock()
}

// ID returns the unique identifier for this page.
func (p *Page) ID() string { return p.id }

// derive returns a tab-bound context that also ends with ctx or after timeout.
func (p *Page) derive(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(p.tabCtx)
	stop := context.AfterFunc(ctx, cancel)
	if timeout <= 0 {
		return runCtx, func() { stop(); cancel() }
	}
	timed, cancelTimed := context.WithTimeout(runCtx, timeout)
	return timed, func() { cancelTimed(); stop(); cancel() }
}

func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := p.derive(ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// mark records the current load count before an action that may navigate.
func (p *Page) mark() {
	p.loadMu.Lock()
	p.markSeq = p.loadSeq
	p.loadMu.Unlock()
}

// --- Navigation and Waiting ---

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.logger.Debug("Navigating", zap.String("url", url))
	p.mark()
	if err := p.run(ctx, p.defaultTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	p.mark()
	return nil
}

func (p *Page) WaitForNavigation(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.defaultTimeout
	}
	runCtx, cancel := p.derive(ctx, timeout)
	defer cancel()
	for {
		p.loadMu.Lock()
		seen := p.loadSeq > p.markSeq
		wake := p.loadWake
		if seen {
			p.markSeq = p.loadSeq
		}
		p.loadMu.Unlock()
		if seen {
			return nil
		}
		select {
		case <-wake:
		case <-runCtx.Done():
			return fmt.Errorf("wait for navigation: %w", runCtx.Err())
		}
	}
}

func (p *Page) WaitFor(ctx context.Context, selector string, state browser.WaitState, timeout time.Duration) error {
	var err error
	switch state {
	case browser.Visible:
		err = p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.BySearch))
	case browser.Present:
		err = p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.BySearch))
	case browser.Hidden:
		err = p.waitHidden(ctx, selector, timeout)
	default:
		err = fmt.Errorf("unknown wait state %d", state)
	}
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (p *Page) waitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := p.derive(ctx, timeout)
	defer cancel()
	script := query(selector) + `.filter(e => e.getClientRects().length > 0).length`
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		var visible int
		if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &visible)); err != nil {
			return err
		}
		if visible == 0 {
			return nil
		}
		select {
		case <-ticker.C:
		case <-runCtx.Done():
			return runCtx.Err()
		}
	}
}

func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	n, err := p.Count(ctx, selector)
	return n > 0, err
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	var n int
	if err := p.run(ctx, p.defaultTimeout, chromedp.Evaluate(query(selector)+`.length`, &n)); err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}
	return n, nil
}

// --- Interaction ---

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mark()
	if err := p.run(ctx, p.defaultTimeout, chromedp.Click(selector, chromedp.BySearch)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

func (p *Page) ClickNth(ctx context.Context, selector string, n int) error {
	p.mark()
	runCtx, cancel := p.derive(ctx, p.defaultTimeout)
	defer cancel()
	var nodes []*cdpproto.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(selector, &nodes, chromedp.BySearch)); err != nil {
		return fmt.Errorf("query %q: %w", selector, err)
	}
	if n < 0 {
		n += len(nodes)
	}
	if n < 0 || n >= len(nodes) {
		return fmt.Errorf("click %q: index %d out of range (%d matches)", selector, n, len(nodes))
	}
	if err := chromedp.Run(runCtx, chromedp.MouseClickNode(nodes[n])); err != nil {
		return fmt.Errorf("click %q[%d]: %w", selector, n, err)
	}
	return nil
}

func (p *Page) ClickAt(ctx context.Context, x, y float64) error {
	p.mark()
	return p.run(ctx, p.defaultTimeout, chromedp.MouseClickXY(x, y))
}

func (p *Page) Focus(ctx context.Context, selector string) error {
	err := p.run(ctx, p.defaultTimeout,
		chromedp.ScrollIntoView(selector, chromedp.BySearch),
		chromedp.Focus(selector, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("focus %q: %w", selector, err)
	}
	return nil
}

func (p *Page) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	p.mark()
	if delay <= 0 {
		if err := p.run(ctx, p.defaultTimeout, chromedp.SendKeys(selector, text, chromedp.BySearch)); err != nil {
			return fmt.Errorf("type into %q: %w", selector, err)
		}
		return nil
	}
	if err := p.run(ctx, p.defaultTimeout, chromedp.Focus(selector, chromedp.BySearch)); err != nil {
		return fmt.Errorf("focus %q: %w", selector, err)
	}
	return p.TypeActive(ctx, text, delay)
}

func (p *Page) TypeActive(ctx context.Context, text string, delay time.Duration) error {
	p.mark()
	runCtx, cancel := p.derive(ctx, 0)
	defer cancel()
	if delay <= 0 {
		return chromedp.Run(runCtx, chromedp.KeyEvent(text))
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	for _, r := range text {
		if err := limiter.Wait(runCtx); err != nil {
			return err
		}
		if err := chromedp.Run(runCtx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("send key: %w", err)
		}
	}
	return nil
}

var namedKeys = map[string]string{
	"Enter":     kb.Enter,
	"Escape":    kb.Escape,
	"Tab":       kb.Tab,
	"Backspace": kb.Backspace,
	"End":       kb.End,
}

func (p *Page) Press(ctx context.Context, key string) error {
	k, ok := namedKeys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	p.mark()
	return p.run(ctx, p.defaultTimeout, chromedp.KeyEvent(k))
}

func (p *Page) ScrollBy(ctx context.Context, dy int) error {
	return p.Evaluate(ctx, fmt.Sprintf(`window.scrollBy(0, %d), true`, dy), nil)
}

func (p *Page) ChooseFile(ctx context.Context, trigger string, paths ...string) error {
	runCtx, cancel := p.derive(ctx, p.defaultTimeout)
	defer cancel()

	opened := make(chan cdpproto.BackendNodeID, 1)
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventFileChooserOpened); ok {
			select {
			case opened <- e.BackendNodeID:
			default:
			}
		}
	})

	if err := chromedp.Run(runCtx,
		page.SetInterceptFileChooserDialog(true),
		chromedp.Click(trigger, chromedp.BySearch),
	); err != nil {
		return fmt.Errorf("open file chooser via %q: %w", trigger, err)
	}
	defer func() {
		_ = chromedp.Run(p.tabCtx, page.SetInterceptFileChooserDialog(false))
	}()

	select {
	case node := <-opened:
		if err := chromedp.Run(runCtx, dom.SetFileInputFiles(paths).WithBackendNodeID(node)); err != nil {
			return fmt.Errorf("set chooser files: %w", err)
		}
		return nil
	case <-runCtx.Done():
		return fmt.Errorf("file chooser never opened: %w", runCtx.Err())
	}
}

// --- Reading ---

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	texts, err := p.Texts(ctx, selector)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("text of %q: no match", selector)
	}
	return texts[0], nil
}

func (p *Page) Texts(ctx context.Context, selector string) ([]string, error) {
	var out []string
	script := query(selector) + `.map(e => e.textContent || "")`
	if err := p.run(ctx, p.defaultTimeout, chromedp.Evaluate(script, &out)); err != nil {
		return nil, fmt.Errorf("texts of %q: %w", selector, err)
	}
	return out, nil
}

func (p *Page) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var res struct {
		Found bool   `json:"found"`
		Value string `json:"value"`
	}
	script := fmt.Sprintf(`(() => { const e = %s[0]; const v = e ? e.getAttribute(%s) : null; return {found: v !== null, value: v || ""}; })()`,
		query(selector), literal(name))
	if err := p.run(ctx, p.defaultTimeout, chromedp.Evaluate(script, &res)); err != nil {
		return "", false, fmt.Errorf("attribute %s of %q: %w", name, selector, err)
	}
	return res.Value, res.Found, nil
}

func (p *Page) Attributes(ctx context.Context, selector, name string) ([]string, error) {
	var out []string
	script := fmt.Sprintf(`%s.map(e => e.getAttribute(%s) || "")`, query(selector), literal(name))
	if err := p.run(ctx, p.defaultTimeout, chromedp.Evaluate(script, &out)); err != nil {
		return nil, fmt.Errorf("attributes %s of %q: %w", name, selector, err)
	}
	return out, nil
}

func (p *Page) SetAttribute(ctx context.Context, selector, name, value string) error {
	script := fmt.Sprintf(`%s.forEach(e => e.setAttribute(%s, %s)), true`, query(selector), literal(name), literal(value))
	return p.Evaluate(ctx, script, nil)
}

func (p *Page) Evaluate(ctx context.Context, script string, out any) error {
	var discard []byte
	if out == nil {
		out = &discard
	}
	if err := p.run(ctx, p.defaultTimeout, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (p *Page) WatchChildren(ctx context.Context, selector string) (<-chan struct{}, error) {
	binding := "__tp_child_" + uuid.New().String()[:8]
	events := make(chan struct{}, 16)

	var (
		mu     sync.Mutex
		closed bool
	)
	listenCtx, stopListening := p.derive(ctx, 0)
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		called, ok := ev.(*runtime.EventBindingCalled)
		if !ok || called.Name != binding {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			select {
			case events <- struct{}{}:
			default:
			}
		}
	})

	observe := fmt.Sprintf(`(() => {
		const target = %s[0];
		if (!target) { return false; }
		const obs = new MutationObserver(muts => {
			for (const m of muts) { if (m.addedNodes.length > 0) { window[%s]("added"); } }
		});
		obs.observe(target, {childList: true});
		window[%s + "_obs"] = obs;
		return true;
	})()`, query(selector), literal(binding), literal(binding))

	var attached bool
	if err := p.run(ctx, p.defaultTimeout,
		runtime.AddBinding(binding),
		chromedp.Evaluate(observe, &attached),
	); err != nil {
		stopListening()
		p.removeBinding(binding)
		return nil, fmt.Errorf("watch children of %q: %w", selector, err)
	}
	if !attached {
		stopListening()
		p.removeBinding(binding)
		return nil, fmt.Errorf("watch children of %q: no match", selector)
	}

	go func() {
		<-listenCtx.Done()
		stopListening()
		p.removeBinding(binding)
		mu.Lock()
		closed = true
		close(events)
		mu.Unlock()
	}()
	return events, nil
}

// removeBinding disconnects the observer installed for binding and drops the
// binding itself. Errors are ignored; the tab may already be gone.
func (p *Page) removeBinding(binding string) {
	disconnect := fmt.Sprintf(`(() => { const o = window[%s + "_obs"]; if (o) { o.disconnect(); } return true; })()`, literal(binding))
	_ = p.run(context.Background(), p.defaultTimeout,
		chromedp.Evaluate(disconnect, nil),
		runtime.RemoveBinding(binding),
	)
}

// --- Cookies ---

func (p *Page) Cookies(ctx context.Context) ([]schemas.Cookie, error) {
	var raw []*network.Cookie
	err := p.run(ctx, p.defaultTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	out := make([]schemas.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, schemas.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Size:     int(c.Size),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			Session:  c.Session,
			SameSite: string(c.SameSite),
		})
	}
	return out, nil
}

func (p *Page) SetCookies(ctx context.Context, cookies []schemas.Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if !c.Session && c.Expires > 0 {
			ts := cdpproto.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			param.Expires = &ts
		}
		switch c.SameSite {
		case "Strict", "strict":
			param.SameSite = network.CookieSameSiteStrict
		case "Lax", "lax":
			param.SameSite = network.CookieSameSiteLax
		case "None", "none":
			param.SameSite = network.CookieSameSiteNone
		}
		params = append(params, param)
	}
	if err := p.run(ctx, p.defaultTimeout, network.SetCookies(params)); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}
	return nil
}

// Close terminates the tab, then the browser process.
func (p *Page) Close(ctx context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			if cerr := chromedp.Cancel(p.tabCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
				err = cerr
			}
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(10 * time.Second):
			p.logger.Warn("Timed out waiting for tab to close.")
		}
		p.tabCancel()
		p.allocCancel()
		p.logger.Debug("Browser closed.")
	})
	return err
}

// query returns a JS expression evaluating to an array of the elements matching selector.
func query(selector string) string {
	if browser.IsXPath(selector) {
		return fmt.Sprintf(`(() => { const r = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null); const out = []; for (let i = 0; i < r.snapshotLength; i++) { out.push(r.snapshotItem(i)); } return out; })()`, literal(selector))
	}
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, literal(selector))
}

func literal(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
