// pkg/browser/types.go
package browser

import (
	"context"
	"time"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// WaitState is the condition WaitFor blocks on.
type WaitState int

const (
	// Visible waits until a matching element is rendered.
	Visible WaitState = iota
	// Present waits until a matching element is attached to the DOM.
	Present
	// Hidden waits until no matching element is visible.
	Hidden
)

// Page drives a single browser tab. Selectors starting with "/", "./" or "("
// are XPath expressions, anything else is CSS.
//
// Timeouts of zero mean "until ctx is done".
type Page interface {
	// --- Navigation and Waiting ---

	// Navigate loads a URL and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitForNavigation blocks until the next load event fires.
	WaitForNavigation(ctx context.Context, timeout time.Duration) error

	// WaitFor blocks until selector reaches state.
	WaitFor(ctx context.Context, selector string, state WaitState, timeout time.Duration) error

	// Exists reports whether at least one element matches, without waiting.
	Exists(ctx context.Context, selector string) (bool, error)

	// Count returns the number of matching elements.
	Count(ctx context.Context, selector string) (int, error)

	// --- Interaction ---

	// Click clicks the first match. ClickNth clicks match n; negative n counts from the end.
	Click(ctx context.Context, selector string) error
	ClickNth(ctx context.Context, selector string, n int) error

	// ClickAt dispatches a mouse click at page coordinates.
	ClickAt(ctx context.Context, x, y float64) error

	// Focus focuses the first match, scrolling it into view.
	Focus(ctx context.Context, selector string) error

	// Type sends keystrokes to the first match, pausing delay between keys.
	Type(ctx context.Context, selector, text string, delay time.Duration) error

	// TypeActive sends keystrokes to the focused element.
	TypeActive(ctx context.Context, text string, delay time.Duration) error

	// Press sends a named key ("Enter", "Escape", "Tab", "Backspace") to the focused element.
	Press(ctx context.Context, key string) error

	// ScrollBy scrolls the viewport by dy pixels.
	ScrollBy(ctx context.Context, dy int) error

	// ChooseFile clicks trigger and answers the file chooser it opens with paths.
	ChooseFile(ctx context.Context, trigger string, paths ...string) error

	// --- Reading ---

	// Text returns the text content of the first match.
	Text(ctx context.Context, selector string) (string, error)

	// Texts returns the text content of every match.
	Texts(ctx context.Context, selector string) ([]string, error)

	// Attribute returns an attribute of the first match.
	Attribute(ctx context.Context, selector, name string) (string, bool, error)

	// Attributes returns an attribute for every match, "" where absent.
	Attributes(ctx context.Context, selector, name string) ([]string, error)

	// Evaluate runs a script in the page and decodes the result into out (may be nil).
	Evaluate(ctx context.Context, script string, out any) error

	// SetAttribute sets an attribute on every match.
	SetAttribute(ctx context.Context, selector, name, value string) error

	// WatchChildren delivers one event per element added as a direct child of
	// the first match. The channel closes when ctx is done.
	WatchChildren(ctx context.Context, selector string) (<-chan struct{}, error)

	// --- Cookies ---

	Cookies(ctx context.Context) ([]schemas.Cookie, error)
	SetCookies(ctx context.Context, cookies []schemas.Cookie) error

	// Close terminates the tab and its browser.
	Close(ctx context.Context) error
}

// LaunchOptions configure the browser process. They are opaque to the job
// runner apart from UserDataDir, which disables the cookie store.
type LaunchOptions struct {
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	UserDataDir    string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Proxy          string        `mapstructure:"proxy" yaml:"proxy"`
	ExecPath       string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args           []string      `mapstructure:"args" yaml:"args"`
	WindowWidth    int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight   int           `mapstructure:"window_height" yaml:"window_height"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
}

// Launcher starts a browser and returns its single page.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Page, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, opts LaunchOptions) (Page, error)

func (f LauncherFunc) Launch(ctx context.Context, opts LaunchOptions) (Page, error) {
	return f(ctx, opts)
}

// IsXPath reports whether selector is treated as XPath.
func IsXPath(selector string) bool {
	return len(selector) > 0 && (selector[0] == '/' || selector[0] == '(' ||
		(len(selector) > 1 && selector[0] == '.' && selector[1] == '/'))
}
