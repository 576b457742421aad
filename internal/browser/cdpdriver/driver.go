// Package cdpdriver implements browser.Driver over the Chrome DevTools
// Protocol with chromedp. It is the default backend.
package cdpdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

// Driver controls one Chrome tab.
type Driver struct {
	ctx         context.Context // chromedp target context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger

	quitOnce sync.Once
	quitErr  error
}

var _ browser.Driver = (*Driver)(nil)

// New starts (or attaches to) a browser and opens a tab in it. ctx bounds
// the start-up only; the browser lives until Quit.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("cdp")
	base := detach(ctx)

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(base, cfg.RemoteURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(base, execOptions(cfg)...)
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Errorf),
	)

	d := &Driver{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, logger: logger}
	// The first Run starts the browser.
	if err := d.run(ctx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	logger.Debug("Browser started.", zap.String("remote_url", cfg.RemoteURL), zap.Bool("headless", cfg.Headless))
	return d, nil
}

// run executes actions on the tab, bounded by the operation context.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(d.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, context.Canceled) {
			return ctxErr
		}
		return browser.Wrap(err)
	}
	return nil
}

// query renders loc for a document-wide lookup: CSS when possible, XPath
// through DOM.performSearch otherwise.
func query(loc browser.Locator) (string, chromedp.QueryOption, error) {
	if css, ok := loc.AsCSS(); ok {
		return css, chromedp.ByQueryAll, nil
	}
	xp, ok := loc.AsXPath()
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", browser.ErrUnsupportedLocator, loc)
	}
	// performSearch evaluates against the document node.
	return strings.TrimPrefix(xp, "."), chromedp.BySearch, nil
}

func (d *Driver) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, err := d.FindElements(ctx, loc)
	return firstOf(loc, els, err)
}

func (d *Driver) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	sel, by, err := query(loc)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	if err := d.run(ctx, chromedp.Nodes(sel, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	return d.wrap(nodes), nil
}

func (d *Driver) wrap(nodes []*cdp.Node) []browser.Element {
	els := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeType != cdp.NodeTypeElement {
			continue
		}
		els = append(els, &element{d: d, node: n})
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

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := d.run(ctx, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	var src string
	if err := d.run(ctx, chromedp.OuterHTML("html", &src, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return src, nil
}

// Quit closes the browser, or the tab when attached to a remote browser.
func (d *Driver) Quit(context.Context) error {
	d.quitOnce.Do(func() {
		d.quitErr = chromedp.Cancel(d.ctx)
		d.cancelTab()
		d.cancelAlloc()
		if d.quitErr != nil && errors.Is(d.quitErr, context.Canceled) {
			d.quitErr = nil
		}
		d.logger.Debug("Browser closed.", zap.Error(d.quitErr))
	})
	return d.quitErr
}
