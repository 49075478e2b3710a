package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webtap/pkg/capture"
	"github.com/entrhq/webtap/pkg/logging"
)

// Manager owns the Playwright lifecycle and the registry of active surfaces.
type Manager struct {
	mu          sync.RWMutex
	surfaces    map[string]*Surface
	playwright  *playwright.Playwright
	maxSurfaces int
	idleTimeout time.Duration
	initialized bool
	logger      *logging.Logger
}

// NewManager creates a new surface manager.
func NewManager(logger *logging.Logger) *Manager {
	return &Manager{
		surfaces:    make(map[string]*Surface),
		maxSurfaces: DefaultMaxSurfaces,
		idleTimeout: time.Duration(DefaultIdleTimeout) * time.Second,
		logger:      logger,
	}
}

// Initialize installs and starts the Playwright driver.
// This must be called before opening any surfaces.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Discard driver output so it never interleaves with event streaming
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// OpenSurface creates a new instrumented surface with the given name.
// The bridge binding and init script are wired into the context before the
// page exists, so the overrides are installed before any page script runs.
func (m *Manager) OpenSurface(name string, opts SurfaceOptions) (*Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.surfaces[name]; exists {
		return nil, fmt.Errorf("surface %q already exists", name)
	}
	if len(m.surfaces) >= m.maxSurfaces {
		return nil, fmt.Errorf("maximum number of surfaces (%d) reached", m.maxSurfaces)
	}
	if !m.initialized {
		return nil, fmt.Errorf("surface manager not initialized")
	}

	// Set defaults
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Opener == nil {
		opts.Opener = openWithPlatformHandler
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	}
	browser, err := m.playwright.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	}
	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	store := capture.NewStore()
	var bridgeLogger capture.BridgeLogger
	if m.logger != nil {
		bridgeLogger = m.logger
	}
	bridge := capture.NewBridge(store, bridgeLogger)
	instrumentation, err := Install(context, bridge)
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to install instrumentation: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(opts.Timeout)

	now := time.Now()
	surface := &Surface{
		Name:            name,
		Browser:         browser,
		Context:         context,
		Page:            page,
		Headless:        opts.Headless,
		CreatedAt:       now,
		LastUsedAt:      now,
		CurrentURL:      "about:blank",
		store:           store,
		observer:        NewNavigationObserver(store),
		instrumentation: instrumentation,
		opener:          opts.Opener,
	}

	m.surfaces[name] = surface
	if m.logger != nil {
		m.logger.Infof("opened surface %q (headless=%v)", name, opts.Headless)
	}
	return surface, nil
}

// CloseSurface closes and removes a surface.
func (m *Manager) CloseSurface(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	surface, exists := m.surfaces[name]
	if !exists {
		return fmt.Errorf("surface %q not found", name)
	}

	_ = surface.Page.Close()    // Ignore errors, continue cleanup
	_ = surface.Context.Close() // Ignore errors, continue cleanup
	_ = surface.Browser.Close() // Ignore errors, continue cleanup

	delete(m.surfaces, name)
	return nil
}

// GetSurface retrieves an active surface by name.
func (m *Manager) GetSurface(name string) (*Surface, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	surface, exists := m.surfaces[name]
	if !exists {
		return nil, fmt.Errorf("surface %q not found", name)
	}
	return surface, nil
}

// ListSurfaces returns information about all active surfaces.
func (m *Manager) ListSurfaces() []SurfaceInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SurfaceInfo, 0, len(m.surfaces))
	for _, surface := range m.surfaces {
		infos = append(infos, SurfaceInfo{
			Name:       surface.Name,
			CurrentURL: surface.CurrentURL,
			Headless:   surface.Headless,
			CreatedAt:  surface.CreatedAt,
			LastUsedAt: surface.LastUsedAt,
		})
	}
	return infos
}

// HasSurfaces returns true if there are any active surfaces.
func (m *Manager) HasSurfaces() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.surfaces) > 0
}

// CleanupIdleSurfaces closes surfaces idle for longer than the timeout.
func (m *Manager) CleanupIdleSurfaces() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var errs []error
	for name, surface := range m.surfaces {
		if now.Sub(surface.LastUsedAt) <= m.idleTimeout {
			continue
		}
		if err := surface.Page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := surface.Context.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := surface.Browser.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(m.surfaces, name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during cleanup: %v", errs)
	}
	return nil
}

// Shutdown closes all surfaces and stops the Playwright driver.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, surface := range m.surfaces {
		surface.Page.Close()
		surface.Context.Close()
		surface.Browser.Close()
		delete(m.surfaces, name)
	}

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}
	return nil
}

// SetMaxSurfaces sets the maximum number of concurrent surfaces.
func (m *Manager) SetMaxSurfaces(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSurfaces = max
}

// SetIdleTimeout sets the idle timeout duration.
func (m *Manager) SetIdleTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleTimeout = timeout
}
