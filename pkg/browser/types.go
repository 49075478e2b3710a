package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webtap/pkg/capture"
)

// Surface is a host-controlled render surface: one browser, context and page
// with the instrumentation layer installed and a capture store attached.
type Surface struct {
	// Name is the unique identifier for this surface
	Name string

	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context (isolated session)
	Context playwright.BrowserContext

	// Page is the hosted page
	Page playwright.Page

	// Headless indicates if the browser is running without a visible window
	Headless bool

	// CreatedAt is the timestamp when the surface was created
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this surface
	LastUsedAt time.Time

	// CurrentURL is the URL of the hosted page
	CurrentURL string

	store           *capture.Store
	observer        *NavigationObserver
	instrumentation *Instrumentation
	opener          ExternalOpener
}

// SurfaceOptions configures a new surface.
type SurfaceOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64

	// Opener handles non-web URL schemes; defaults to the platform handler
	Opener ExternalOpener
}

// Viewport represents the surface viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle"
	WaitUntil string

	// Timeout in milliseconds (0 means default)
	Timeout float64
}

// SurfaceInfo contains metadata about a surface.
type SurfaceInfo struct {
	Name       string
	CurrentURL string
	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Default values for surface management
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSurfaces    = 5
	DefaultIdleTimeout    = 300 // 5 minutes in seconds
)
