package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webtap/pkg/capture"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Surface) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Store returns the capture store owned by this surface.
func (s *Surface) Store() *capture.Store {
	return s.store
}

// Observer returns the navigation observer owned by this surface.
func (s *Surface) Observer() *NavigationObserver {
	return s.observer
}

// Instrumentation returns the restoration handle for the in-page overrides.
func (s *Surface) Instrumentation() *Instrumentation {
	return s.instrumentation
}

// Navigate loads rawURL in the surface, driving the navigation observer
// around the page load.
//
// Non-web schemes never reach the render surface: they are handed to the
// external opener and in-surface navigation is cancelled. When the hosted
// URL changes, both capture sequences are cleared before the load, starting
// a fresh session for the new document.
func (s *Surface) Navigate(rawURL string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	if !IsWebScheme(rawURL) {
		if err := s.opener(rawURL); err != nil {
			return fmt.Errorf("external handler failed: %w", err)
		}
		return nil
	}

	if rawURL != s.CurrentURL {
		s.store.Clear()
	}

	s.observer.NavigationStarted(rawURL)

	// Build Playwright navigation options
	playwrightOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	_, err := s.Page.Goto(rawURL, playwrightOpts)
	if err != nil {
		s.observer.NavigationFailed(rawURL, err)
		if IsNavigationCancelled(err) {
			// Superseded or stopped by the user: not a load failure.
			return nil
		}
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	s.observer.NavigationFinished(s.CurrentURL)
	return nil
}

// Title returns the hosted page's title.
func (s *Surface) Title() (string, error) {
	s.UpdateLastUsed()
	title, err := s.Page.Title()
	if err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return title, nil
}

// Reload reloads the hosted page through the same lifecycle reporting as
// Navigate, without clearing the capture sequences.
func (s *Surface) Reload(opts NavigateOptions) error {
	s.UpdateLastUsed()

	rawURL := s.CurrentURL
	s.observer.NavigationStarted(rawURL)

	playwrightOpts := playwright.PageReloadOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	_, err := s.Page.Reload(playwrightOpts)
	if err != nil {
		s.observer.NavigationFailed(rawURL, err)
		if IsNavigationCancelled(err) {
			return nil
		}
		return fmt.Errorf("reload failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	s.observer.NavigationFinished(s.CurrentURL)
	return nil
}
