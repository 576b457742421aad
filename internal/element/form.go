// internal/element/form.go
package element

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/wait"
)

// Input is a text field. Its value is the element's value property.
type Input struct {
	Locator browser.Locator
	Timeout time.Duration
	// SendBackspace erases the previous value key by key after clearing it,
	// for fields whose scripts ignore a programmatic clear.
	SendBackspace bool
}

func (i Input) timeout() time.Duration { return timeoutOr(i.Timeout, DefaultControlTimeout) }

func (i Input) Read(ctx context.Context, d browser.Driver) (string, error) {
	el, err := present(ctx, d, i.Locator, i.timeout())
	if err != nil {
		return "", err
	}
	return el.Attribute(ctx, "value")
}

// Write replaces the field content with v. With SendBackspace, whatever
// the field still holds after the clear (number widgets reset to their
// minimum) is erased key by key.
func (i Input) Write(ctx context.Context, d browser.Driver, v string) error {
	el, err := present(ctx, d, i.Locator, i.timeout())
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("input %s: clear: %w", i.Locator, err)
	}
	if i.SendBackspace {
		if err := i.erase(ctx, d); err != nil {
			return fmt.Errorf("input %s: backspace: %w", i.Locator, err)
		}
	}
	el, err = d.FindElement(ctx, i.Locator)
	if err != nil {
		return fmt.Errorf("input %s: %w", i.Locator, err)
	}
	if err := el.SendKeys(ctx, v); err != nil {
		return fmt.Errorf("input %s: send keys: %w", i.Locator, err)
	}
	return nil
}

// erase sends one backspace per rune of the current value. The field is
// re-located for every key: it may re-render as it changes.
func (i Input) erase(ctx context.Context, d browser.Driver) error {
	el, err := d.FindElement(ctx, i.Locator)
	if err != nil {
		return err
	}
	residual, err := el.Attribute(ctx, "value")
	if err != nil {
		return err
	}
	for n := utf8.RuneCountInString(residual); n > 0; n-- {
		el, err = d.FindElement(ctx, i.Locator)
		if err != nil {
			return err
		}
		if err := el.SendKeys(ctx, browser.KeyBackspace); err != nil {
			return err
		}
	}
	return nil
}

// Link reads the resolved href of an anchor.
type Link struct {
	Locator browser.Locator
	Timeout time.Duration
}

func (l Link) Read(ctx context.Context, d browser.Driver) (string, error) {
	el, err := present(ctx, d, l.Locator, timeoutOr(l.Timeout, DefaultControlTimeout))
	if err != nil {
		return "", err
	}
	return el.Attribute(ctx, "href")
}

func (Link) Write(context.Context, browser.Driver, string) error { return notSupported("link") }

// Select is a drop-down. Read yields the selected option's value; Write
// selects by the option's visible text.
type Select struct {
	Locator browser.Locator
	Timeout time.Duration
}

func (s Select) Read(ctx context.Context, d browser.Driver) (string, error) {
	el, err := present(ctx, d, s.Locator, timeoutOr(s.Timeout, DefaultControlTimeout))
	if err != nil {
		return "", err
	}
	return el.Attribute(ctx, "value")
}

func (s Select) Write(ctx context.Context, d browser.Driver, text string) error {
	el, err := present(ctx, d, s.Locator, timeoutOr(s.Timeout, DefaultControlTimeout))
	if err != nil {
		return err
	}
	if err := el.SelectByVisibleText(ctx, text); err != nil {
		return fmt.Errorf("select %s: %w", s.Locator, err)
	}
	return nil
}

// Checkbox is a two-state control. Custom-styled checkboxes often hide the
// input and toggle on a sibling label; ClickLocator points at that sibling.
type Checkbox struct {
	Locator      browser.Locator
	ClickLocator browser.Locator
	Timeout      time.Duration
}

func (c Checkbox) timeout() time.Duration { return timeoutOr(c.Timeout, DefaultControlTimeout) }

func (c Checkbox) clickTarget() browser.Locator {
	if c.ClickLocator.IsZero() {
		return c.Locator
	}
	return c.ClickLocator
}

func (c Checkbox) Read(ctx context.Context, d browser.Driver) (bool, error) {
	el, err := present(ctx, d, c.Locator, c.timeout())
	if err != nil {
		return false, err
	}
	return el.IsSelected(ctx)
}

// Write clicks only when the current state differs from checked, so
// writing the same value twice leaves the box unchanged.
func (c Checkbox) Write(ctx context.Context, d browser.Driver, checked bool) error {
	current, err := c.Read(ctx, d)
	if err != nil {
		return err
	}
	if current == checked {
		return nil
	}
	target := c.clickTarget()
	if _, err := wait.Until(ctx, d, c.timeout(), wait.ClickElement(target)); err != nil {
		return fmt.Errorf("checkbox %s: click %s: %w", c.Locator, target, err)
	}
	return nil
}
