// Package wddriver implements browser.Driver against a W3C WebDriver
// remote end (Selenium Grid, chromedriver, geckodriver) with
// tebeka/selenium.
package wddriver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

const defaultDriverPort = 9515

// Config selects the WebDriver endpoint and browser capabilities.
type Config struct {
	// RemoteURL is the WebDriver endpoint, e.g. http://localhost:4444/wd/hub.
	// When empty a local chromedriver is started from DriverPath.
	RemoteURL string
	// Browser is "chrome" (default) or "firefox".
	Browser     string
	Headless    bool
	Args        []string
	BrowserPath string
	DriverPath  string
	DriverPort  int
}

// Driver is one WebDriver session.
type Driver struct {
	wd      selenium.WebDriver
	service *selenium.Service
	logger  *zap.Logger

	quitOnce sync.Once
	quitErr  error
}

var _ browser.Driver = (*Driver)(nil)

// New opens a WebDriver session. selenium.NewRemote takes no context; ctx is
// only checked before the session is requested.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("webdriver")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := &Driver{logger: logger}
	remote := cfg.RemoteURL
	if remote == "" {
		if cfg.DriverPath == "" {
			return nil, fmt.Errorf("webdriver: either a remote url or a driver path is required")
		}
		port := cfg.DriverPort
		if port == 0 {
			port = defaultDriverPort
		}
		service, err := selenium.NewChromeDriverService(cfg.DriverPath, port)
		if err != nil {
			return nil, fmt.Errorf("start chromedriver: %w", err)
		}
		d.service = service
		remote = fmt.Sprintf("http://localhost:%d/wd/hub", port)
	}

	wd, err := selenium.NewRemote(capabilities(cfg), remote)
	if err != nil {
		d.stopService()
		return nil, fmt.Errorf("create webdriver session at %s: %w", remote, err)
	}
	d.wd = wd
	logger.Debug("WebDriver session started.", zap.String("remote_url", remote), zap.String("browser", cfg.Browser))
	return d, nil
}

func capabilities(cfg Config) selenium.Capabilities {
	name := cfg.Browser
	if name == "" {
		name = "chrome"
	}
	caps := selenium.Capabilities{"browserName": name}
	switch name {
	case "firefox":
		args := append([]string(nil), cfg.Args...)
		if cfg.Headless {
			args = append(args, "-headless")
		}
		caps.AddFirefox(firefox.Capabilities{Binary: cfg.BrowserPath, Args: args})
	default:
		args := append([]string{"--no-sandbox", "--disable-dev-shm-usage"}, cfg.Args...)
		if cfg.Headless {
			args = append(args, "--headless=new")
		}
		caps.AddChrome(chrome.Capabilities{Path: cfg.BrowserPath, Args: args})
	}
	return caps
}

func (d *Driver) stopService() {
	if d.service == nil {
		return
	}
	if err := d.service.Stop(); err != nil {
		d.logger.Warn("Failed to stop chromedriver.", zap.Error(err))
	}
}

// by returns the W3C strategy and value for loc. W3C remote ends dropped
// the id, name, tag name and class name strategies; those go as CSS.
func by(loc browser.Locator) (string, string) {
	switch loc.Strategy {
	case browser.ByXPath, browser.ByLinkText, browser.ByPartialLinkText, browser.ByCSSSelector:
		return string(loc.Strategy), loc.Value
	}
	if css, ok := loc.AsCSS(); ok {
		return selenium.ByCSSSelector, css
	}
	return string(loc.Strategy), loc.Value
}

func (d *Driver) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := d.wd.FindElement(by(loc))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, browser.Wrap(err))
	}
	return &element{wd: el}, nil
}

func (d *Driver) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els, err := d.wd.FindElements(by(loc))
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", loc, browser.Wrap(err))
	}
	return wrap(els), nil
}

func isNoSuchElement(err error) bool {
	return browser.Classify(err) == browser.ErrNoSuchElement
}

func wrap(els []selenium.WebElement) []browser.Element {
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{wd: el})
	}
	return out
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.wd.Get(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.wd.CurrentURL()
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := d.wd.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.wd.PageSource()
}

// Quit ends the session and stops the local chromedriver, if any.
func (d *Driver) Quit(context.Context) error {
	d.quitOnce.Do(func() {
		if err := d.wd.Quit(); err != nil && !strings.Contains(err.Error(), "invalid session id") {
			d.quitErr = fmt.Errorf("quit webdriver session: %w", err)
		}
		d.stopService()
	})
	return d.quitErr
}
