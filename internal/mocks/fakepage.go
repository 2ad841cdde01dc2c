// File: internal/mocks/fakepage.go
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

var _ browser.Page = (*FakePage)(nil)

// TypedText records one Type or TypeActive call. Selector is empty for TypeActive.
type TypedText struct {
	Selector string
	Text     string
}

// ChosenFile records one ChooseFile call.
type ChosenFile struct {
	Trigger string
	Paths   []string
}

// FakePage is a scripted browser.Page. Elements are keyed by the exact
// selector string the caller uses; a selector is "present" once shown.
// Hooks run without the lock held, so they may mutate the page.
type FakePage struct {
	mu sync.Mutex

	present   map[string]bool
	texts     map[string][]string
	textFuncs map[string]func() string
	attrs     map[string]map[string][]string
	counts    map[string]int

	onClick    map[string]func()
	onPress    map[string]func()
	onType     map[string]func(text string)
	onNavigate func(url string)
	evalFunc   func(script string, out any) error
	clickErr   map[string]error
	navErr     error

	cookies    []schemas.Cookie
	setCookies [][]schemas.Cookie

	navigations []string
	clicks      []string
	typed       []TypedText
	keys        []string
	files       []ChosenFile
	scripts     []string
	coords      [][2]float64
	watchers    map[string][]chan struct{}
	closed      int

	// PollInterval is how often WaitFor re-checks state.
	PollInterval time.Duration
}

// NewFakePage returns an empty page.
func NewFakePage() *FakePage {
	return &FakePage{
		present:      map[string]bool{},
		texts:        map[string][]string{},
		textFuncs:    map[string]func() string{},
		attrs:        map[string]map[string][]string{},
		counts:       map[string]int{},
		onClick:      map[string]func(){},
		onPress:      map[string]func(){},
		onType:       map[string]func(string){},
		clickErr:     map[string]error{},
		watchers:     map[string][]chan struct{}{},
		PollInterval: time.Millisecond,
	}
}

// --- Scripting ---

// Show marks selectors as present and visible.
func (f *FakePage) Show(selectors ...string) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range selectors {
		f.present[s] = true
	}
	return f
}

// Hide removes selectors.
func (f *FakePage) Hide(selectors ...string) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range selectors {
		delete(f.present, s)
	}
	return f
}

// SetText shows selector with one text per match.
func (f *FakePage) SetText(selector string, texts ...string) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present[selector] = true
	f.texts[selector] = texts
	return f
}

// SetTextFunc shows selector and computes its text on every read.
func (f *FakePage) SetTextFunc(selector string, fn func() string) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present[selector] = true
	f.textFuncs[selector] = fn
	return f
}

// SetAttr sets attribute values, one per match, and shows selector.
func (f *FakePage) SetAttr(selector, name string, values ...string) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present[selector] = true
	if f.attrs[selector] == nil {
		f.attrs[selector] = map[string][]string{}
	}
	f.attrs[selector][name] = values
	return f
}

// SetCount overrides the match count of selector.
func (f *FakePage) SetCount(selector string, n int) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[selector] = n
	if n > 0 {
		f.present[selector] = true
	}
	return f
}

// OnClick runs fn after every click on selector.
func (f *FakePage) OnClick(selector string, fn func()) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onClick[selector] = fn
	return f
}

// OnPress runs fn after every press of key.
func (f *FakePage) OnPress(key string, fn func()) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPress[key] = fn
	return f
}

// OnType runs fn after text is typed into selector ("" for the focused element).
func (f *FakePage) OnType(selector string, fn func(text string)) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onType[selector] = fn
	return f
}

// OnNavigate runs fn after every navigation.
func (f *FakePage) OnNavigate(fn func(url string)) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onNavigate = fn
	return f
}

// OnEvaluate answers Evaluate calls.
func (f *FakePage) OnEvaluate(fn func(script string, out any) error) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evalFunc = fn
	return f
}

// FailClick makes clicks on selector return err.
func (f *FakePage) FailClick(selector string, err error) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clickErr[selector] = err
	return f
}

// FailNavigation makes WaitForNavigation return err.
func (f *FakePage) FailNavigation(err error) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navErr = err
	return f
}

// SetBrowserCookies sets what Cookies returns.
func (f *FakePage) SetBrowserCookies(cookies []schemas.Cookie) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cookies = cookies
	return f
}

// EmitChild notifies watchers of selector that a child was added.
func (f *FakePage) EmitChild(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.watchers[selector] {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

// --- Inspection ---

func (f *FakePage) Navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navigations...)
}

// NavigationsTo counts navigations whose URL starts with prefix.
func (f *FakePage) NavigationsTo(prefix string) int {
	n := 0
	for _, u := range f.Navigations() {
		if strings.HasPrefix(u, prefix) {
			n++
		}
	}
	return n
}

func (f *FakePage) Clicks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.clicks...)
}

// Clicked counts clicks on selector.
func (f *FakePage) Clicked(selector string) int {
	n := 0
	for _, c := range f.Clicks() {
		if c == selector {
			n++
		}
	}
	return n
}

func (f *FakePage) Typed() []TypedText {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TypedText(nil), f.typed...)
}

// TypedInto returns every text typed into selector, in order.
func (f *FakePage) TypedInto(selector string) []string {
	var out []string
	for _, t := range f.Typed() {
		if t.Selector == selector {
			out = append(out, t.Text)
		}
	}
	return out
}

func (f *FakePage) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func (f *FakePage) Files() []ChosenFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChosenFile(nil), f.files...)
}

func (f *FakePage) Scripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scripts...)
}

func (f *FakePage) Coordinates() [][2]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]float64(nil), f.coords...)
}

// InjectedCookies returns every SetCookies batch.
func (f *FakePage) InjectedCookies() [][]schemas.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]schemas.Cookie(nil), f.setCookies...)
}

// CloseCount reports how many times Close was called.
func (f *FakePage) CloseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// IsPresent reports whether selector is currently shown.
func (f *FakePage) IsPresent(selector string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present[selector]
}

// --- browser.Page ---

func (f *FakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.navigations = append(f.navigations, url)
	hook := f.onNavigate
	f.mu.Unlock()
	if hook != nil {
		hook(url)
	}
	return nil
}

func (f *FakePage) WaitForNavigation(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.navErr
}

func (f *FakePage) WaitFor(ctx context.Context, selector string, state browser.WaitState, timeout time.Duration) error {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ticker := time.NewTicker(f.PollInterval)
	defer ticker.Stop()
	for {
		shown := f.IsPresent(selector)
		if (state == browser.Hidden) != shown {
			return nil
		}
		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			return fmt.Errorf("wait for %q: %w", selector, waitCtx.Err())
		}
	}
}

func (f *FakePage) Exists(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f.IsPresent(selector), nil
}

func (f *FakePage) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.counts[selector]; ok {
		return n, nil
	}
	if !f.present[selector] {
		return 0, nil
	}
	if t := f.texts[selector]; len(t) > 0 {
		return len(t), nil
	}
	for _, vals := range f.attrs[selector] {
		if len(vals) > 0 {
			return len(vals), nil
		}
	}
	return 1, nil
}

func (f *FakePage) click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	if err, ok := f.clickErr[selector]; ok {
		f.mu.Unlock()
		return err
	}
	if !f.present[selector] {
		f.mu.Unlock()
		return fmt.Errorf("click %q: no match", selector)
	}
	f.clicks = append(f.clicks, selector)
	hook := f.onClick[selector]
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (f *FakePage) Click(ctx context.Context, selector string) error {
	return f.click(ctx, selector)
}

func (f *FakePage) ClickNth(ctx context.Context, selector string, n int) error {
	count, err := f.Count(ctx, selector)
	if err != nil {
		return err
	}
	if n < 0 {
		n += count
	}
	if n < 0 || n >= count {
		return fmt.Errorf("click %q: index %d out of range (%d matches)", selector, n, count)
	}
	if err := f.click(ctx, selector); err != nil {
		return err
	}
	f.mu.Lock()
	f.clicks[len(f.clicks)-1] = fmt.Sprintf("%s[%d]", selector, n)
	f.mu.Unlock()
	return nil
}

func (f *FakePage) ClickAt(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coords = append(f.coords, [2]float64{x, y})
	return nil
}

func (f *FakePage) Focus(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !f.IsPresent(selector) {
		return fmt.Errorf("focus %q: no match", selector)
	}
	return nil
}

func (f *FakePage) typeText(selector, text string) {
	f.mu.Lock()
	f.typed = append(f.typed, TypedText{Selector: selector, Text: text})
	hook := f.onType[selector]
	f.mu.Unlock()
	if hook != nil {
		hook(text)
	}
}

func (f *FakePage) Type(ctx context.Context, selector, text string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !f.IsPresent(selector) {
		return fmt.Errorf("type into %q: no match", selector)
	}
	f.typeText(selector, text)
	return nil
}

func (f *FakePage) TypeActive(ctx context.Context, text string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.typeText("", text)
	return nil
}

func (f *FakePage) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.keys = append(f.keys, key)
	hook := f.onPress[key]
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (f *FakePage) ScrollBy(ctx context.Context, _ int) error {
	return ctx.Err()
}

func (f *FakePage) ChooseFile(ctx context.Context, trigger string, paths ...string) error {
	if err := f.click(ctx, trigger); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, ChosenFile{Trigger: trigger, Paths: paths})
	return nil
}

func (f *FakePage) Text(ctx context.Context, selector string) (string, error) {
	texts, err := f.Texts(ctx, selector)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("text of %q: no match", selector)
	}
	return texts[0], nil
}

func (f *FakePage) Texts(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	fn := f.textFuncs[selector]
	texts := append([]string(nil), f.texts[selector]...)
	shown := f.present[selector]
	f.mu.Unlock()
	if !shown {
		return nil, nil
	}
	if fn != nil {
		return []string{fn()}, nil
	}
	if len(texts) == 0 {
		return []string{""}, nil
	}
	return texts, nil
}

func (f *FakePage) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	vals, err := f.Attributes(ctx, selector, name)
	if err != nil || len(vals) == 0 {
		return "", false, err
	}
	f.mu.Lock()
	_, set := f.attrs[selector][name]
	f.mu.Unlock()
	return vals[0], set, nil
}

func (f *FakePage) Attributes(ctx context.Context, selector, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.present[selector] {
		return nil, nil
	}
	return append([]string(nil), f.attrs[selector][name]...), nil
}

func (f *FakePage) SetAttribute(ctx context.Context, selector, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attrs[selector] == nil {
		f.attrs[selector] = map[string][]string{}
	}
	f.attrs[selector][name] = []string{value}
	return nil
}

func (f *FakePage) Evaluate(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.scripts = append(f.scripts, script)
	fn := f.evalFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(script, out)
	}
	return nil
}

func (f *FakePage) WatchChildren(ctx context.Context, selector string) (<-chan struct{}, error) {
	if !f.IsPresent(selector) {
		return nil, fmt.Errorf("watch children of %q: no match", selector)
	}
	ch := make(chan struct{}, 4)
	f.mu.Lock()
	f.watchers[selector] = append(f.watchers[selector], ch)
	f.mu.Unlock()
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		ws := f.watchers[selector]
		for i, w := range ws {
			if w == ch {
				f.watchers[selector] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (f *FakePage) Cookies(ctx context.Context) ([]schemas.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]schemas.Cookie(nil), f.cookies...), nil
}

func (f *FakePage) SetCookies(ctx context.Context, cookies []schemas.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCookies = append(f.setCookies, cookies)
	f.cookies = append(f.cookies, cookies...)
	return nil
}

func (f *FakePage) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}
