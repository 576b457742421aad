// Package pwdriver implements browser.Driver with playwright-go. It runs the
// Playwright node driver and can launch Chromium, Firefox or WebKit, or
// connect to a remote Playwright browser server.
package pwdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

const (
	installTimeout       = 5 * time.Minute
	defaultActionTimeout = 5 * time.Second
)

// Config selects the browser Playwright drives.
type Config struct {
	// Browser is "chromium" (default), "firefox" or "webkit".
	Browser string
	// RemoteURL connects to a browser server (ws://...) instead of launching.
	RemoteURL string
	Headless  bool
	Args      []string
	// Install downloads the Playwright driver and browser before starting.
	Install bool
	// ActionTimeout bounds each single Playwright action such as a click.
	ActionTimeout time.Duration
}

// Driver controls one Playwright page.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	timeout time.Duration
	logger  *zap.Logger

	quitOnce sync.Once
	quitErr  error
}

var _ browser.Driver = (*Driver)(nil)

// New starts Playwright and opens a page.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("playwright")
	if cfg.Browser == "" {
		cfg.Browser = "chromium"
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}

	if cfg.Install {
		if err := ensureInstallation(ctx, cfg.Browser, logger); err != nil {
			return nil, err
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}

	bt, err := browserType(pw, cfg.Browser)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}
	var b playwright.Browser
	if cfg.RemoteURL != "" {
		b, err = bt.Connect(cfg.RemoteURL)
	} else {
		b, err = bt.Launch(launchOptions(cfg))
	}
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("start %s: %w", cfg.Browser, err)
	}

	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}
	page.SetDefaultTimeout(float64(cfg.ActionTimeout.Milliseconds()))

	logger.Debug("Browser started.", zap.String("browser", cfg.Browser), zap.String("version", b.Version()))
	return &Driver{pw: pw, browser: b, page: page, timeout: cfg.ActionTimeout, logger: logger}, nil
}

func browserType(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case "chromium", "chrome":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("unknown playwright browser %q", name)
}

func launchOptions(cfg Config) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     cfg.Args,
		Timeout:  playwright.Float(60000),
	}
	if cfg.Browser == "chromium" || cfg.Browser == "chrome" {
		opts.Args = append([]string{"--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage"}, opts.Args...)
	}
	return opts
}

// ensureInstallation downloads the driver and browser. playwright.Install
// does not take a context, so it runs in a goroutine raced against ctx.
func ensureInstallation(ctx context.Context, name string, logger *zap.Logger) error {
	logger.Info("Verifying Playwright browser installation...", zap.String("browser", name))
	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{name}}); err != nil {
			done <- fmt.Errorf("install playwright browsers: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
	}
}

// selector renders loc in Playwright's selector syntax.
func selector(loc browser.Locator) (string, error) {
	if css, ok := loc.AsCSS(); ok {
		return "css=" + css, nil
	}
	if xp, ok := loc.AsXPath(); ok {
		return "xpath=" + xp, nil
	}
	return "", fmt.Errorf("%w: %s", browser.ErrUnsupportedLocator, loc)
}

func (d *Driver) wrap(handles []playwright.ElementHandle) []browser.Element {
	els := make([]browser.Element, 0, len(handles))
	for _, h := range handles {
		els = append(els, &element{d: d, h: h})
	}
	return els
}

func firstOf(loc browser.Locator, els []browser.Element, err error) (browser.Element, error) {
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchElement, loc)
	}
	return els[0], nil
}

func (d *Driver) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, err := d.FindElements(ctx, loc)
	return firstOf(loc, els, err)
}

func (d *Driver) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	handles, err := d.page.QuerySelectorAll(sel)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, browser.Wrap(err))
	}
	return d.wrap(handles), nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad}
	if deadline, ok := ctx.Deadline(); ok {
		opts.Timeout = playwright.Float(float64(time.Until(deadline).Milliseconds()))
	}
	if _, err := d.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.page.URL(), nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := d.page.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := d.page.Content()
	if err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return src, nil
}

// Quit closes the browser and stops the Playwright driver.
func (d *Driver) Quit(context.Context) error {
	d.quitOnce.Do(func() {
		if err := d.browser.Close(); err != nil {
			d.logger.Warn("Failed to close browser.", zap.Error(err))
			d.quitErr = fmt.Errorf("close browser: %w", err)
		}
		if err := d.pw.Stop(); err != nil {
			d.logger.Warn("Failed to stop Playwright driver.", zap.Error(err))
			if d.quitErr == nil {
				d.quitErr = fmt.Errorf("stop playwright driver: %w", err)
			}
		}
	})
	return d.quitErr
}
