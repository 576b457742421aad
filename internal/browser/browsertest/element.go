// internal/browser/browsertest/element.go
package browsertest

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

type element struct {
	d    *Driver
	node *html.Node
}

var _ browser.Element = (*element)(nil)

// attached must be called with d.mu held.
func (e *element) attached(ctx context.Context) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	root := e.d.doc.Nodes[0]
	for n := e.node; n != nil; n = n.Parent {
		if n == root {
			return nil
		}
	}
	return fmt.Errorf("%w: <%s> is no longer attached to the document", browser.ErrStaleElement, e.node.Data)
}

func (e *element) sel() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.node).Selection
}

func (e *element) lock(ctx context.Context) (func(), error) {
	e.d.mu.Lock()
	if err := e.attached(ctx); err != nil {
		e.d.mu.Unlock()
		return nil, err
	}
	return e.d.mu.Unlock, nil
}

func (e *element) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, err := e.FindElements(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchElement, loc)
	}
	return els[0], nil
}

func (e *element) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return e.d.find(e.sel(), loc)
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()

	s := e.sel()
	switch name {
	case "value":
		return e.value(), nil
	case "checked", "selected":
		if e.selected() {
			return "true", nil
		}
		return "", nil
	case "innerHTML":
		return s.Html()
	case "outerHTML":
		return goquery.OuterHtml(s)
	case "href":
		href, ok := s.Attr("href")
		if !ok {
			return "", nil
		}
		u, err := e.d.resolve(href)
		if err != nil {
			return href, nil
		}
		return u.String(), nil
	}
	v, _ := s.Attr(name)
	return v, nil
}

func (e *element) value() string {
	s := e.sel()
	switch e.node.Data {
	case "textarea":
		return s.Text()
	case "select":
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		if v, ok := opt.Attr("value"); ok {
			return v
		}
		return normalize(opt.Text())
	}
	v, _ := s.Attr("value")
	return v
}

func (e *element) selected() bool {
	s := e.sel()
	switch e.node.Data {
	case "option":
		_, ok := s.Attr("selected")
		return ok
	default:
		_, ok := s.Attr("checked")
		return ok
	}
}

func (e *element) Text(ctx context.Context) (string, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()
	return normalize(e.sel().Text()), nil
}

func (e *element) IsSelected(ctx context.Context) (bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	return e.selected(), nil
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	for n := e.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range n.Attr {
			if a.Key == "hidden" {
				return false, nil
			}
			if a.Key == "style" {
				style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
				if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
					return false, nil
				}
			}
		}
	}
	return true, nil
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	_, disabled := e.sel().Attr("disabled")
	return !disabled, nil
}

func (e *element) Click(ctx context.Context) error {
	e.d.mu.Lock()
	if err := e.attached(ctx); err != nil {
		e.d.mu.Unlock()
		return err
	}
	e.d.clicks = append(e.d.clicks, e.node)

	for css, n := range e.d.intercepts {
		if n > 0 && e.matches(css) {
			e.d.intercepts[css] = n - 1
			e.d.mu.Unlock()
			return fmt.Errorf("%w: <%s> is covered by an overlay", browser.ErrClickIntercepted, e.node.Data)
		}
	}

	// Hooks are matched before the default action, which may navigate away.
	var hooks []func(*goquery.Document)
	for _, h := range e.d.hooks {
		if e.matches(h.css) {
			hooks = append(hooks, h.fn)
		}
	}

	if _, disabled := e.sel().Attr("disabled"); !disabled {
		if err := e.activate(); err != nil {
			e.d.mu.Unlock()
			return err
		}
	}

	for _, fn := range hooks {
		fn(e.d.doc)
	}
	e.d.mu.Unlock()
	return nil
}

// matches must be called with d.mu held.
func (e *element) matches(css string) bool {
	for _, n := range e.d.doc.Find(css).Nodes {
		if n == e.node {
			return true
		}
	}
	return false
}

// activate applies the default action of a click. Must be called with d.mu held.
func (e *element) activate() error {
	s := e.sel()
	switch e.node.Data {
	case "input":
		switch typ, _ := s.Attr("type"); typ {
		case "checkbox":
			toggle(s, "checked")
		case "radio":
			if name, ok := s.Attr("name"); ok {
				e.d.doc.Find(fmt.Sprintf(`input[type=radio][name=%q]`, name)).RemoveAttr("checked")
			}
			s.SetAttr("checked", "")
		}
	case "label":
		if id, ok := s.Attr("for"); ok {
			target := e.d.doc.Find(fmt.Sprintf(`[id=%q]`, id))
			if typ, _ := target.Attr("type"); typ == "checkbox" {
				toggle(target, "checked")
			}
		}
	case "a":
		if href, ok := s.Attr("href"); ok && !strings.HasPrefix(href, "#") {
			return e.d.load(href)
		}
	}
	return nil
}

func toggle(s *goquery.Selection, attr string) {
	if _, ok := s.Attr(attr); ok {
		s.RemoveAttr(attr)
		return
	}
	s.SetAttr(attr, "")
}

func (e *element) editable() error {
	switch e.node.Data {
	case "input", "textarea":
	default:
		return fmt.Errorf("%w: <%s> does not accept text", browser.ErrNotInteractable, e.node.Data)
	}
	s := e.sel()
	if _, ok := s.Attr("disabled"); ok {
		return fmt.Errorf("%w: <%s> is disabled", browser.ErrNotInteractable, e.node.Data)
	}
	if _, ok := s.Attr("readonly"); ok {
		return fmt.Errorf("%w: <%s> is read-only", browser.ErrNotInteractable, e.node.Data)
	}
	return nil
}

func (e *element) setValue(v string) {
	s := e.sel()
	if e.node.Data == "textarea" {
		s.SetText(v)
		return
	}
	s.SetAttr("value", v)
}

func (e *element) SendKeys(ctx context.Context, keys string) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := e.editable(); err != nil {
		return err
	}
	e.d.keys = append(e.d.keys, e.node)

	value := []rune(e.value())
	for _, r := range keys {
		switch string(r) {
		case browser.KeyBackspace:
			if len(value) > 0 {
				value = value[:len(value)-1]
			}
		case browser.KeyEnter, browser.KeyTab, browser.KeyEscape:
		default:
			value = append(value, r)
		}
	}
	e.setValue(string(value))
	return nil
}

func (e *element) Clear(ctx context.Context) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := e.editable(); err != nil {
		return err
	}
	e.setValue("")
	for _, h := range e.d.clears {
		if e.matches(h.css) {
			h.fn(e.d.doc)
		}
	}
	return nil
}

func (e *element) SelectByVisibleText(ctx context.Context, text string) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if e.node.Data != "select" {
		return fmt.Errorf("%w: <%s> is not a select", browser.ErrNotInteractable, e.node.Data)
	}
	opts := e.sel().Find("option")
	match := opts.FilterFunction(func(_ int, o *goquery.Selection) bool {
		return normalize(o.Text()) == normalize(text)
	})
	if match.Length() == 0 {
		return fmt.Errorf("%w: %q", browser.ErrNoSuchOption, text)
	}
	opts.RemoveAttr("selected")
	match.First().SetAttr("selected", "")
	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
