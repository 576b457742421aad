// internal/browser/wddriver/element.go
package wddriver

import (
	"context"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

type element struct {
	wd selenium.WebElement
}

var _ browser.Element = (*element)(nil)

func (e *element) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := e.wd.FindElement(by(loc))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, browser.Wrap(err))
	}
	return &element{wd: el}, nil
}

func (e *element) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els, err := e.wd.FindElements(by(loc))
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", loc, browser.Wrap(err))
	}
	return wrap(els), nil
}

// Attribute returns "" for absent attributes; the client reports those as
// a nil return value error.
func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := e.wd.GetAttribute(name)
	if err != nil {
		if strings.Contains(err.Error(), "nil return value") {
			return "", nil
		}
		return "", browser.Wrap(err)
	}
	return v, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := e.wd.Text()
	return s, browser.Wrap(err)
}

func (e *element) IsSelected(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.wd.IsSelected()
	return ok, browser.Wrap(err)
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.wd.IsDisplayed()
	return ok, browser.Wrap(err)
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.wd.IsEnabled()
	return ok, browser.Wrap(err)
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return browser.Wrap(e.wd.Click())
}

// SendKeys passes keys through: the Key constants are WebDriver code points.
func (e *element) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return browser.Wrap(e.wd.SendKeys(keys))
}

func (e *element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return browser.Wrap(e.wd.Clear())
}

func (e *element) SelectByVisibleText(ctx context.Context, text string) error {
	opt, err := e.FindElement(ctx, browser.XPath(
		fmt.Sprintf(".//option[normalize-space(.)=normalize-space(%s)]", browser.XPathLiteral(text))))
	if err != nil {
		if isNoSuchElement(err) {
			return fmt.Errorf("%w: %q", browser.ErrNoSuchOption, text)
		}
		return err
	}
	selected, err := opt.IsSelected(ctx)
	if err != nil || selected {
		return err
	}
	return opt.Click(ctx)
}
