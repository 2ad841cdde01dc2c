// pkg/browser/cdp/stealth.go
package cdp

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Persona is the browser identity presented to the console. Languages and
// Locale also steer which interface language the console picks on first load.
type Persona struct {
	Languages []string
	Locale    string
	Timezone  string
}

// DefaultPersona asks for an English interface.
var DefaultPersona = Persona{
	Languages: []string{"en-US", "en"},
	Locale:    "en-US",
}

// evasions hides the automation markers the sign-in page checks before it
// offers the password prompt.
const evasions = `(() => {
  Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
  Object.defineProperty(navigator, 'languages', { get: () => %s });
  window.chrome = window.chrome || { runtime: {} };
})();`

// AcceptLanguage renders the persona's languages as an Accept-Language value.
func (p Persona) AcceptLanguage() string {
	parts := make([]string, 0, len(p.Languages))
	for i, lang := range p.Languages {
		if i == 0 {
			parts = append(parts, lang)
			continue
		}
		q := 1.0 - 0.1*float64(i)
		if q < 0.1 {
			q = 0.1
		}
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", lang, q))
	}
	return strings.Join(parts, ",")
}

// applyStealth returns the actions that install p on the current tab.
func applyStealth(p Persona, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser persona", zap.Strings("languages", p.Languages), zap.String("locale", p.Locale))

	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			langs, err := json.MarshalToString(p.Languages)
			if err != nil {
				return fmt.Errorf("failed to encode persona languages: %w", err)
			}
			if _, err := page.AddScriptToEvaluateOnNewDocument(fmt.Sprintf(evasions, langs)).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),
	}
	if len(p.Languages) > 0 {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": p.AcceptLanguage()}))
	}
	if p.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(p.Locale))
	}
	if p.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(p.Timezone))
	}
	return tasks
}
