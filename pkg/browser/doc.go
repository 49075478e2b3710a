// Package browser hosts arbitrary, untrusted web content inside a
// Playwright-controlled render surface and instruments it for observation.
//
// The package is built around three core concepts:
//
//  1. Surface: a browser, context and page with the instrumentation layer
//     installed and a capture store attached
//  2. Manager: registry owning the Playwright lifecycle and all surfaces
//  3. Instrumentation: the installation step that wires the bridge binding
//     and the init script into a context, producing a restoration handle
//
// # Instrumentation
//
// Every surface's context exposes a single host binding and injects an init
// script before any page script executes. The script wraps the page's
// console methods, global error events, fetch and XMLHttpRequest: each
// wrapper calls through to the original (capture is observational, never
// gating) and posts a structured message over one of two named channels,
// consoleLog and networkLog. A failure inside a wrapper is swallowed; it
// must never throw back into page code.
//
// Messages arrive in the host asynchronously and without ordering guarantees
// beyond per-operation atomicity: a network capture is posted exactly once,
// after its operation settles, so arrival order is completion order.
//
// # Navigation
//
// Surface.Navigate drives the NavigationObserver around each page load,
// recording host-synthesized console entries for navigation start, success
// and failure. User-initiated cancellations are filtered out. Non-web
// schemes (anything but http, https, about, blob, data) never load in the
// surface; they are handed to the platform's default handler instead.
//
// # Example Usage
//
//	manager := browser.NewManager(logger)
//	if err := manager.Initialize(); err != nil { ... }
//
//	surface, err := manager.OpenSurface("main", browser.SurfaceOptions{
//	    Headless: true,
//	})
//	err = surface.Navigate("https://example.com", browser.NavigateOptions{
//	    WaitUntil: "load",
//	})
//
//	entries := surface.Store().Console()
//	errors := surface.Store().ErrorCount()
//
//	manager.Shutdown()
package browser
