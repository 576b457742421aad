// internal/browser/cdpdriver/options.go
package cdpdriver

import (
	"strings"

	"github.com/chromedp/chromedp"
)

// Config selects and tunes the Chrome instance a Driver controls.
type Config struct {
	// RemoteURL attaches to an already running browser's DevTools endpoint
	// (ws:// or http://host:9222) instead of launching one.
	RemoteURL string
	// ExecPath overrides the Chrome binary found on PATH.
	ExecPath string
	Headless bool
	// Args are extra command line switches, "name" or "name=value", with
	// or without leading dashes.
	Args         []string
	WindowWidth  int
	WindowHeight int
}

// execOptions builds the allocator options for a locally launched browser.
func execOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("enable-automation", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}
