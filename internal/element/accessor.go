// Package element provides declarative accessors for the form controls and
// display widgets of the application under test. An accessor is an immutable
// value (a locator plus a timeout) declared once per page type; every Read
// and Write locates its element afresh and waits for it first, so no DOM node
// is ever cached between calls.
package element

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/wait"
)

// Default timeouts. Form controls are expected to be on screen already;
// widgets filled in by background requests get longer.
const (
	DefaultControlTimeout = 2 * time.Second
	DefaultDisplayTimeout = 10 * time.Second
)

// ErrNotSupported is returned by Write on read-only accessors.
var ErrNotSupported = errors.New("operation not supported by this element")

// Accessor binds a logical field of a page to a DOM element.
type Accessor[V any] interface {
	Read(ctx context.Context, d browser.Driver) (V, error)
	Write(ctx context.Context, d browser.Driver, v V) error
}

var (
	_ Accessor[string]        = Input{}
	_ Accessor[string]        = Link{}
	_ Accessor[string]        = Select{}
	_ Accessor[bool]          = Checkbox{}
	_ Accessor[SnackbarState] = Snackbar{}
	_ Accessor[string]        = Text{}
	_ Accessor[[][]string]    = Table{}
)

func timeoutOr(t, def time.Duration) time.Duration {
	if t > 0 {
		return t
	}
	return def
}

// present waits until loc matches an element and returns it.
func present(ctx context.Context, d browser.Driver, loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	el, err := wait.Until(ctx, d, timeout, wait.PresenceOf(loc))
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", loc, err)
	}
	return el, nil
}

func notSupported(kind string) error {
	return fmt.Errorf("%s write: %w", kind, ErrNotSupported)
}
