package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/entrhq/webtap/pkg/capture"
)

// webSchemes lists the URL schemes loaded inside the render surface. Anything
// else is handed to the platform's default handler instead.
var webSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"about": true,
	"blob":  true,
	"data":  true,
}

// IsWebScheme reports whether rawURL should load in the render surface.
// Scheme-less input is treated as web content; the browser resolves it.
func IsWebScheme(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return true
	}
	return webSchemes[strings.ToLower(u.Scheme)]
}

// ExternalOpener hands a URL to a handler outside the render surface.
type ExternalOpener func(rawURL string) error

// openWithPlatformHandler launches the OS default handler for a URL.
func openWithPlatformHandler(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s externally: %w", rawURL, err)
	}
	return nil
}

// LoadError is the host-visible record of a failed page load, consumed by
// the presentation layer and cleared on the next navigation attempt.
type LoadError struct {
	URL         string
	Description string
}

// NavigationObserver translates page-load lifecycle transitions into console
// entries. It runs in the host's control flow, outside the page sandbox, and
// writes directly into the store rather than through the bridge.
type NavigationObserver struct {
	mu        sync.Mutex
	store     *capture.Store
	loadError *LoadError
}

// NewNavigationObserver creates an observer writing into store.
func NewNavigationObserver(store *capture.Store) *NavigationObserver {
	return &NavigationObserver{store: store}
}

// NavigationStarted records the start of a navigation and clears any
// previously recorded load-error state.
func (o *NavigationObserver) NavigationStarted(rawURL string) {
	o.mu.Lock()
	o.loadError = nil
	o.mu.Unlock()
	o.store.AppendConsole(string(capture.LevelInfo), "⇢ Navigating to: "+rawURL)
}

// NavigationFinished records a completed page load.
func (o *NavigationObserver) NavigationFinished(rawURL string) {
	o.store.AppendConsole(string(capture.LevelInfo), "✓ Loaded: "+rawURL)
}

// NavigationFailed records a failed navigation. User-initiated cancellations
// are filtered out entirely: no entry, no load-error state.
func (o *NavigationObserver) NavigationFailed(rawURL string, err error) {
	if err == nil || IsNavigationCancelled(err) {
		return
	}
	description := err.Error()
	o.store.AppendConsole(string(capture.LevelError), "✗ Navigation failed: "+description)
	o.mu.Lock()
	o.loadError = &LoadError{URL: rawURL, Description: description}
	o.mu.Unlock()
}

// LoadError returns the most recent load failure, if one is pending.
func (o *NavigationObserver) LoadError() (LoadError, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loadError == nil {
		return LoadError{}, false
	}
	return *o.loadError, true
}

// cancellationMarkers match the driver errors produced when a navigation is
// interrupted by the user or superseded by a newer navigation.
var cancellationMarkers = []string{
	"net::ERR_ABORTED",
	"Navigation interrupted by another one",
	"frame was detached",
}

// IsNavigationCancelled reports whether err describes a user-initiated or
// superseded navigation rather than a genuine load failure.
func IsNavigationCancelled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	message := err.Error()
	for _, marker := range cancellationMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}
