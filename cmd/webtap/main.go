// Package main provides the webtap command line application.
// webtap opens a URL inside an instrumented browser surface and streams the
// hosted page's console output and network activity to the terminal, without
// modifying the page itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/webtap/pkg/browser"
	"github.com/entrhq/webtap/pkg/capture"
	appconfig "github.com/entrhq/webtap/pkg/config"
	"github.com/entrhq/webtap/pkg/logging"
)

const version = "0.1.0" // Version of the webtap CLI

// Options holds the command line options.
type Options struct {
	URL         string
	ConfigPath  string
	Headless    bool
	HeadlessSet bool
	TimeoutMs   float64
	Dump        bool
	Copy        bool
	ShowVersion bool
}

func main() {
	opts := parseFlags()

	if opts.ShowVersion {
		fmt.Printf("webtap v%s\n", version)
		return
	}

	if opts.URL == "" {
		log.Fatal("a URL is required: webtap -url https://example.com")
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		cancel()
		log.Fatalf("webtap: %v", err)
	}
}

// parseFlags parses command line flags.
func parseFlags() *Options {
	opts := &Options{}

	flag.StringVar(&opts.URL, "url", "", "URL to open in the instrumented surface")
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file (default ~/.webtap/config.yaml)")
	flag.BoolVar(&opts.Headless, "headless", true, "Run the browser without a visible window")
	flag.Float64Var(&opts.TimeoutMs, "timeout", 0, "Navigation timeout in milliseconds (0 uses the configured default)")
	flag.BoolVar(&opts.Dump, "dump", false, "Print captured console and network entries on exit")
	flag.BoolVar(&opts.Copy, "copy", false, "Copy the dump to the clipboard on exit (implies -dump)")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			opts.HeadlessSet = true
		}
	})

	return opts
}

func run(ctx context.Context, opts *Options) error {
	// Load configuration
	configPath := opts.ConfigPath
	if configPath == "" {
		path, err := appconfig.DefaultPath()
		if err != nil {
			return err
		}
		configPath = path
	}
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Logging.Directory != "" {
		logging.SetDirectory(cfg.Logging.Directory)
	}

	logger, logErr := logging.NewLogger("cli")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging unavailable: %v\n", logErr)
	}
	defer logger.Close()

	headless := cfg.Browser.Headless
	if opts.HeadlessSet {
		headless = opts.Headless
	}
	timeout := cfg.Browser.NavigationTimeoutMs
	if opts.TimeoutMs > 0 {
		timeout = opts.TimeoutMs
	}

	// Start the browser host
	manager := browser.NewManager(logger)
	if err := manager.Initialize(); err != nil {
		return err
	}
	defer manager.Shutdown()

	surface, err := manager.OpenSurface("main", browser.SurfaceOptions{
		Headless: headless,
		Viewport: &browser.Viewport{
			Width:  cfg.Browser.ViewportWidth,
			Height: cfg.Browser.ViewportHeight,
		},
		Timeout: timeout,
	})
	if err != nil {
		return err
	}

	// Subscribe before navigating so the lifecycle entries stream too
	events := surface.Store().Subscribe()
	go streamEvents(ctx, events)

	if err := surface.Navigate(opts.URL, browser.NavigateOptions{WaitUntil: "load", Timeout: timeout}); err != nil {
		logger.Errorf("navigation error: %v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	if loadErr, ok := surface.Observer().LoadError(); ok {
		fmt.Fprintf(os.Stderr, "load error for %s: %s\n", loadErr.URL, loadErr.Description)
	}

	<-ctx.Done()

	if opts.Dump || opts.Copy {
		dump := capture.FormatConsoleText(surface.Store().Console()) +
			capture.FormatNetworkText(surface.Store().Network())
		fmt.Print(dump)
		if opts.Copy {
			if err := capture.CopyToClipboard(dump); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
		}
	}
	return nil
}
