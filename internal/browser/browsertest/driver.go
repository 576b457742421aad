// Package browsertest provides an in-memory browser.Driver backed by a
// goquery document. It models just enough of a browser for page objects and
// accessors to be exercised without launching one: element lookup by CSS,
// form controls, anchor navigation between registered routes, visibility
// via the hidden attribute and inline styles, and scripted click
// interception.
package browsertest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

// ErrSessionClosed is returned by every operation after Quit.
var ErrSessionClosed = errors.New("browsertest: session closed")

const notFoundPage = `<html><head><title>Not Found</title></head><body><h1>404</h1></body></html>`

// Driver is an in-memory browser.Driver. It is safe for concurrent use so
// tests can mutate the page from a timer while a wait is polling.
type Driver struct {
	mu     sync.Mutex
	doc    *goquery.Document
	url    string
	routes map[string]string

	intercepts map[string]int
	hooks      []clickHook
	clears     []clickHook
	clicks     []*html.Node
	keys       []*html.Node

	screenshotErr error
	sourceErr     error
	quits         int
}

type clickHook struct {
	css string
	fn  func(doc *goquery.Document)
}

var _ browser.Driver = (*Driver)(nil)

// New returns a driver showing page.
func New(page string) *Driver {
	d := &Driver{
		routes:     make(map[string]string),
		intercepts: make(map[string]int),
	}
	d.doc = mustParse(page)
	return d
}

func mustParse(page string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		// The html5 parser accepts any input; this is unreachable with a strings.Reader.
		panic(fmt.Sprintf("browsertest: parse page: %v", err))
	}
	return doc
}

// Route registers the page served for path when navigating or following a link.
func (d *Driver) Route(path, page string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[path] = page
}

// SetPage replaces the whole document. Elements obtained before become stale.
func (d *Driver) SetPage(page string) {
	doc := mustParse(page)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc = doc
}

// Mutate edits the live document in place.
func (d *Driver) Mutate(fn func(doc *goquery.Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.doc)
}

// After schedules fn to edit the document once delay has elapsed. The
// returned timer can be stopped by the caller.
func (d *Driver) After(delay time.Duration, fn func(doc *goquery.Document)) *time.Timer {
	return time.AfterFunc(delay, func() { d.Mutate(fn) })
}

// InterceptClicks makes the next n clicks on elements matching css fail with
// browser.ErrClickIntercepted, as if an overlay covered them.
func (d *Driver) InterceptClicks(css string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intercepts[css] += n
}

// OnClick runs fn after every successful click on an element matching css.
func (d *Driver) OnClick(css string, fn func(doc *goquery.Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, clickHook{css: css, fn: fn})
}

// OnClear runs fn after every Clear of an element matching css, e.g. to
// model a number field that resets to its minimum instead of emptying.
func (d *Driver) OnClear(css string, fn func(doc *goquery.Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clears = append(d.clears, clickHook{css: css, fn: fn})
}

// Clicks counts click attempts, intercepted ones included, on elements of
// the current document matching css.
func (d *Driver) Clicks(css string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return countMatching(d.doc, css, d.clicks)
}

// KeyEvents counts SendKeys calls on elements of the current document matching css.
func (d *Driver) KeyEvents(css string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return countMatching(d.doc, css, d.keys)
}

func countMatching(doc *goquery.Document, css string, log []*html.Node) int {
	matches := doc.Find(css).Nodes
	n := 0
	for _, rec := range log {
		for _, m := range matches {
			if rec == m {
				n++
				break
			}
		}
	}
	return n
}

// FailScreenshot makes Screenshot return err.
func (d *Driver) FailScreenshot(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screenshotErr = err
}

// FailPageSource makes PageSource return err.
func (d *Driver) FailPageSource(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sourceErr = err
}

// Quits reports how many times Quit was called.
func (d *Driver) Quits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

func (d *Driver) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, err := d.FindElements(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchElement, loc)
	}
	return els[0], nil
}

func (d *Driver) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	return d.find(d.doc.Selection, loc)
}

func (d *Driver) find(root *goquery.Selection, loc browser.Locator) ([]browser.Element, error) {
	css, ok := loc.AsCSS()
	if !ok {
		return nil, fmt.Errorf("%w: %s", browser.ErrUnsupportedLocator, loc)
	}
	nodes := root.Find(css).Nodes
	els := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &element{d: d, node: n})
	}
	return els, nil
}

// usable must be called with d.mu held.
func (d *Driver) usable(ctx context.Context) error {
	if d.quits > 0 {
		return ErrSessionClosed
	}
	return ctx.Err()
}

func (d *Driver) Navigate(ctx context.Context, rawURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(ctx); err != nil {
		return err
	}
	return d.load(rawURL)
}

// load must be called with d.mu held.
func (d *Driver) load(rawURL string) error {
	target, err := d.resolve(rawURL)
	if err != nil {
		return fmt.Errorf("browsertest: invalid url %q: %w", rawURL, err)
	}
	page, ok := d.routes[target.Path]
	if !ok && target.Path == "" {
		page, ok = d.routes["/"]
	}
	if !ok {
		page = notFoundPage
	}
	d.doc = mustParse(page)
	d.url = target.String()
	return nil
}

func (d *Driver) resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if d.url == "" {
		return u, nil
	}
	base, err := url.Parse(d.url)
	if err != nil {
		return u, nil
	}
	return base.ResolveReference(u), nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(ctx); err != nil {
		return "", err
	}
	return d.url, nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	if d.screenshotErr != nil {
		return nil, d.screenshotErr
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(ctx); err != nil {
		return "", err
	}
	if d.sourceErr != nil {
		return "", d.sourceErr
	}
	return goquery.OuterHtml(d.doc.Selection)
}

func (d *Driver) Quit(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	return nil
}
