// internal/browser/driver.go
package browser

import "context"

// Driver is the browser automation capability the harness is built on. A
// Driver is bound to a single browser session (one tab) and is not safe for
// concurrent use: steps drive it sequentially.
//
// FindElement and FindElements never wait. Waiting is the job of the wait
// package, which polls these methods until a condition holds.
type Driver interface {
	// FindElement returns the first element matching loc, or ErrNoSuchElement.
	FindElement(ctx context.Context, loc Locator) (Element, error)
	// FindElements returns every element matching loc. An empty result is not an error.
	FindElements(ctx context.Context, loc Locator) ([]Element, error)

	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// Screenshot returns a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)
	PageSource(ctx context.Context) (string, error)
	// Quit ends the browser session. Calling Quit more than once is a no-op.
	Quit(ctx context.Context) error
}

// Element is a live DOM node. Implementations may hold a reference that
// goes stale when the page re-renders; operations on a stale element return
// ErrStaleElement and callers are expected to locate the element again.
type Element interface {
	FindElement(ctx context.Context, loc Locator) (Element, error)
	FindElements(ctx context.Context, loc Locator) ([]Element, error)

	// Attribute follows WebDriver getAttribute semantics: for "value",
	// "checked", "href", "class" and "innerHTML" the live DOM property is
	// returned rather than the markup attribute.
	Attribute(ctx context.Context, name string) (string, error)
	// Text returns the rendered text of the element.
	Text(ctx context.Context) (string, error)
	IsSelected(ctx context.Context) (bool, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)

	// Click performs a pointer click. It returns ErrClickIntercepted when
	// another element would receive the click.
	Click(ctx context.Context) error
	// SendKeys types keys into the element. Special keys use the Key constants.
	SendKeys(ctx context.Context, keys string) error
	// Clear empties an editable element.
	Clear(ctx context.Context) error
	// SelectByVisibleText selects the option of a <select> whose text matches.
	SelectByVisibleText(ctx context.Context, text string) error
}

// Key constants understood by SendKeys. They are the W3C WebDriver code
// points; backends translate them to their native key names.
const (
	KeyBackspace = "\ue003"
	KeyTab       = "\ue004"
	KeyEnter     = "\ue007"
	KeyEscape    = "\ue00c"
)
