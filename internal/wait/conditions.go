// internal/wait/conditions.go
package wait

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

// PresenceOf holds once loc matches at least one element, and yields the first.
func PresenceOf(loc browser.Locator) Condition[browser.Element] {
	return Condition[browser.Element]{
		Desc: fmt.Sprintf("presence of element located by %s", loc),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			el, err := d.FindElement(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			return el, true, nil
		},
	}
}

// PresenceOfAll holds once loc matches a non-empty set of elements.
func PresenceOfAll(loc browser.Locator) Condition[[]browser.Element] {
	return AtLeastN(loc, 1)
}

// AtLeastN holds once loc matches n elements or more.
func AtLeastN(loc browser.Locator, n int) Condition[[]browser.Element] {
	if n < 1 {
		n = 1
	}
	return Condition[[]browser.Element]{
		Desc: fmt.Sprintf("at least %d elements located by %s", n, loc),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.Element, bool, error) {
			els, err := d.FindElements(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			return els, len(els) >= n, nil
		},
	}
}

// VisibilityOf holds once the first element matched by loc is displayed.
func VisibilityOf(loc browser.Locator) Condition[browser.Element] {
	return Condition[browser.Element]{
		Desc: fmt.Sprintf("visibility of element located by %s", loc),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			el, err := d.FindElement(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			visible, err := el.IsDisplayed(ctx)
			if err != nil {
				return nil, false, err
			}
			return el, visible, nil
		},
	}
}

// Clickable holds once the first element matched by loc is displayed and enabled.
func Clickable(loc browser.Locator) Condition[browser.Element] {
	return Condition[browser.Element]{
		Desc: fmt.Sprintf("element located by %s to be clickable", loc),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			return clickable(ctx, d, loc)
		},
	}
}

func clickable(ctx context.Context, d browser.Driver, loc browser.Locator) (browser.Element, bool, error) {
	el, err := d.FindElement(ctx, loc)
	if err != nil {
		return nil, false, err
	}
	visible, err := el.IsDisplayed(ctx)
	if err != nil || !visible {
		return nil, false, err
	}
	enabled, err := el.IsEnabled(ctx)
	if err != nil || !enabled {
		return nil, false, err
	}
	return el, true, nil
}

// ClickElement clicks the element matched by loc as soon as it is clickable.
// A click swallowed by an overlapping element is not a failure: the
// condition reports "not yet" and the surrounding Until tries again.
func ClickElement(loc browser.Locator) Condition[bool] {
	return Condition[bool]{
		Desc: fmt.Sprintf("click on element located by %s", loc),
		Check: func(ctx context.Context, d browser.Driver) (bool, bool, error) {
			el, ok, err := clickable(ctx, d, loc)
			if err != nil || !ok {
				return false, false, err
			}
			if err := el.Click(ctx); err != nil {
				if errors.Is(err, browser.ErrClickIntercepted) {
					return false, false, nil
				}
				return false, false, err
			}
			return true, true, nil
		},
	}
}

// TextToBeDifferent holds once the text of the element matched by loc no
// longer equals value. It yields the new text.
func TextToBeDifferent(loc browser.Locator, value string) Condition[string] {
	return Condition[string]{
		Desc: fmt.Sprintf("text of element located by %s to differ from %q", loc, value),
		Check: func(ctx context.Context, d browser.Driver) (string, bool, error) {
			el, err := d.FindElement(ctx, loc)
			if err != nil {
				return "", false, err
			}
			text, err := el.Text(ctx)
			if err != nil {
				return "", false, err
			}
			return text, text != value, nil
		},
	}
}
