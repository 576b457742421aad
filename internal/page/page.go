// Package page holds the page objects of the container-management UI. A page
// object borrows a browser.Driver, proves on construction that the browser
// shows the page it models, and exposes that page's accessors and the
// navigation links available from it.
package page

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/element"
	"github.com/xkilldash9x/uibdd/internal/wait"
)

const (
	DefaultIdentityTimeout = 3 * time.Second
	DefaultClickTimeout    = 10 * time.Second
)

// Options configure every page object built from them.
type Options struct {
	IdentityTimeout time.Duration
	ClickTimeout    time.Duration
	Logger          *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.IdentityTimeout <= 0 {
		o.IdentityTimeout = DefaultIdentityTimeout
	}
	if o.ClickTimeout <= 0 {
		o.ClickTimeout = DefaultClickTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Base is embedded by every page object.
type Base struct {
	d    browser.Driver
	opts Options
	log  *zap.Logger
}

// NewBase binds a page object to d. A non-zero identity locator must become
// visible within Options.IdentityTimeout, otherwise the browser is not on
// the expected page and the wait's timeout error is returned.
func NewBase(ctx context.Context, d browser.Driver, identity browser.Locator, opts Options) (*Base, error) {
	opts = opts.withDefaults()
	b := &Base{d: d, opts: opts, log: opts.Logger.Named("page")}
	if identity.IsZero() {
		return b, nil
	}
	if _, err := wait.Until(ctx, d, opts.IdentityTimeout, wait.VisibilityOf(identity)); err != nil {
		b.log.Debug("Page identity not visible.", zap.Stringer("identity", identity), zap.Error(err))
		return nil, fmt.Errorf("page identified by %s: %w", identity, err)
	}
	b.log.Debug("Page identified.", zap.Stringer("identity", identity))
	return b, nil
}

// Driver returns the driver the page is bound to.
func (b *Base) Driver() browser.Driver { return b.d }

// Options returns the options the page was built with, defaults applied.
func (b *Base) Options() Options { return b.opts }

// Click clicks loc, retrying intercepted clicks. A zero timeout uses
// Options.ClickTimeout.
func (b *Base) Click(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = b.opts.ClickTimeout
	}
	if _, err := wait.Until(ctx, b.d, timeout, wait.ClickElement(loc)); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	b.log.Debug("Clicked.", zap.Stringer("locator", loc))
	return nil
}

// Read reads accessor a through the page's driver. V is inferred from
// a's Read method.
func Read[V any, A element.Accessor[V]](ctx context.Context, b *Base, a A) (V, error) {
	return a.Read(ctx, b.d)
}

// Write writes v through accessor a on the page's driver.
func Write[V any, A element.Accessor[V]](ctx context.Context, b *Base, a A, v V) error {
	return a.Write(ctx, b.d, v)
}

// GoHome follows the home link of the navigation menu.
func (b *Base) GoHome(ctx context.Context) (*MainPage, error) {
	if err := b.Click(ctx, homeMenuLink, 0); err != nil {
		return nil, err
	}
	return NewMainPage(ctx, b.d, b.opts)
}

// GoContainerList follows the container list link of the navigation menu.
func (b *Base) GoContainerList(ctx context.Context) (*ContainerListPage, error) {
	if err := b.Click(ctx, containerListMenuLink, 0); err != nil {
		return nil, err
	}
	return NewContainerListPage(ctx, b.d, b.opts)
}

// Open navigates d to url and returns the main page found there.
func Open(ctx context.Context, d browser.Driver, url string, opts Options) (*MainPage, error) {
	if err := d.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	return NewMainPage(ctx, d, opts)
}
