// internal/browser/pwdriver/element.go
package pwdriver

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

// element wraps an ElementHandle, which unlike a Locator stays bound to one
// DOM node and fails once that node is detached.
type element struct {
	d *Driver
	h playwright.ElementHandle
}

var _ browser.Element = (*element)(nil)

const (
	jsAttribute = `(el, name) => {
	const prop = name === "class" ? "className" : name;
	if (prop in el) {
		const v = el[prop];
		if (typeof v === "boolean") return v ? "true" : null;
		if (v === null || v === undefined) return null;
		if (typeof v !== "object" && typeof v !== "function") return String(v);
	}
	return el.getAttribute(name);
}`
	jsSelected = `el => !!(el.checked || el.selected)`
	jsEnabled  = `el => !el.disabled`
)

// Playwright key names for the WebDriver key code points.
var keyNames = map[string]string{
	browser.KeyBackspace: "Backspace",
	browser.KeyTab:       "Tab",
	browser.KeyEnter:     "Enter",
	browser.KeyEscape:    "Escape",
}

func (e *element) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, err := e.FindElements(ctx, loc)
	return firstOf(loc, els, err)
}

func (e *element) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	handles, err := e.h.QuerySelectorAll(sel)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, browser.Wrap(err))
	}
	return e.d.wrap(handles), nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := e.h.Evaluate(jsAttribute, name)
	if err != nil {
		return "", browser.Wrap(err)
	}
	s, _ := v.(string)
	return s, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := e.h.InnerText()
	return s, browser.Wrap(err)
}

func (e *element) evalBool(ctx context.Context, fn string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := e.h.Evaluate(fn)
	if err != nil {
		return false, browser.Wrap(err)
	}
	b, _ := v.(bool)
	return b, nil
}

func (e *element) IsSelected(ctx context.Context) (bool, error) { return e.evalBool(ctx, jsSelected) }

func (e *element) IsEnabled(ctx context.Context) (bool, error) { return e.evalBool(ctx, jsEnabled) }

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.h.IsVisible()
	return ok, browser.Wrap(err)
}

// Click fails with ErrClickIntercepted when Playwright's actionability
// checks report another element receiving the pointer.
func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := e.h.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(float64(e.d.timeout.Milliseconds())),
	})
	return browser.Wrap(err)
}

// SendKeys types plain runs of text and presses special keys by name.
func (e *element) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var text strings.Builder
	flush := func() error {
		if text.Len() == 0 {
			return nil
		}
		defer text.Reset()
		return e.h.Type(text.String())
	}
	for _, r := range keys {
		name, special := keyNames[string(r)]
		if !special {
			text.WriteRune(r)
			continue
		}
		if err := flush(); err != nil {
			return browser.Wrap(err)
		}
		if err := e.h.Press(name); err != nil {
			return browser.Wrap(err)
		}
	}
	return browser.Wrap(flush())
}

func (e *element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return browser.Wrap(e.h.Fill(""))
}

func (e *element) SelectByVisibleText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	labels := []string{text}
	selected, err := e.h.SelectOption(playwright.SelectOptionValues{Labels: &labels}, playwright.ElementHandleSelectOptionOptions{
		Timeout: playwright.Float(float64(e.d.timeout.Milliseconds())),
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "did not find some options") {
			return fmt.Errorf("%w: %q", browser.ErrNoSuchOption, text)
		}
		return browser.Wrap(err)
	}
	if len(selected) == 0 {
		return fmt.Errorf("%w: %q", browser.ErrNoSuchOption, text)
	}
	return nil
}
