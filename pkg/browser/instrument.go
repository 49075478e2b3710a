package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webtap/pkg/capture"
)

// Instrumentation is the restoration handle produced by installing the
// in-page interception layer onto a browser context. Installation happens
// once per context; the init script re-runs for every page created in it,
// before any page script executes.
type Instrumentation struct {
	context playwright.BrowserContext
	bridge  *capture.Bridge
}

// Install wires the bridge binding and the instrumentation init script into
// the given context. Must be called before the first page is created so the
// overrides precede any page script.
func Install(context playwright.BrowserContext, bridge *capture.Bridge) (*Instrumentation, error) {
	err := context.ExposeBinding(BindingName, func(source *playwright.BindingSource, args ...interface{}) interface{} {
		// Fire-and-forget: the page never sees a result or an error.
		if len(args) < 2 {
			return nil
		}
		channel, ok := args[0].(string)
		if !ok {
			return nil
		}
		bridge.Emit(channel, args[1])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expose bridge binding: %w", err)
	}

	script := InstrumentationScript()
	if err := context.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
		return nil, fmt.Errorf("failed to add instrumentation script: %w", err)
	}

	return &Instrumentation{context: context, bridge: bridge}, nil
}

// Restore swaps the original console, fetch and XMLHttpRequest entry points
// back into the given page. It applies to the currently loaded document
// only; the init script reinstalls on the next navigation.
func (i *Instrumentation) Restore(page playwright.Page) error {
	_, err := page.Evaluate(`() => {
		if (window.__webtap && window.__webtap.installed) { window.__webtap.restore(); }
	}`)
	if err != nil {
		return fmt.Errorf("failed to restore page globals: %w", err)
	}
	return nil
}
