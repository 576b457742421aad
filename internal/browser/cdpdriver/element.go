// internal/browser/cdpdriver/element.go
package cdpdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

type element struct {
	d    *Driver
	node *cdp.Node
}

var _ browser.Element = (*element)(nil)

// Functions evaluated with the element bound to this.
const (
	// Boolean DOM properties report "true" or nothing, as getAttribute does in WebDriver.
	jsAttribute = `function(name) {
	const prop = name === "class" ? "className" : name;
	if (prop in this) {
		const v = this[prop];
		if (typeof v === "boolean") return v ? "true" : null;
		if (v === null || v === undefined) return null;
		if (typeof v !== "object" && typeof v !== "function") return String(v);
	}
	return this.getAttribute(name);
}`
	jsText      = `function() { return this.innerText; }`
	jsConnected = `function() { return this.isConnected; }`
	jsSelected  = `function() { return !!(this.checked || this.selected); }`
	jsEnabled   = `function() { return !this.disabled; }`
	jsDisplayed = `function() {
	const style = getComputedStyle(this);
	if (style.visibility === "hidden" || style.display === "none") return false;
	return this.getClientRects().length > 0;
}`
	// jsHitTest scrolls the element into view and reports whether a click at
	// its centre would land on it rather than on something covering it.
	jsHitTest = `function() {
	this.scrollIntoView({block: "center", inline: "center"});
	const r = this.getBoundingClientRect();
	const hit = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
	if (hit === null || this === hit || this.contains(hit)) return "";
	return hit.outerHTML.slice(0, 120);
}`
	jsClear = `function() {
	this.value = "";
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
}`
	jsSelectByText = `function(text) {
	const norm = s => s.replace(/\s+/g, " ").trim();
	for (const opt of this.options || []) {
		if (norm(opt.text) === norm(text)) {
			opt.selected = true;
			this.dispatchEvent(new Event("input", {bubbles: true}));
			this.dispatchEvent(new Event("change", {bubbles: true}));
			return true;
		}
	}
	return false;
}`
)

// call runs fn on the element and decodes its return value into out.
func (e *element) call(ctx context.Context, fn string, out any, args ...any) error {
	return e.d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		params := runtime.CallFunctionOn(fn).WithObjectID(obj.ObjectID).WithReturnByValue(true)
		if len(args) > 0 {
			callArgs := make([]*runtime.CallArgument, 0, len(args))
			for _, a := range args {
				raw, err := json.Marshal(a)
				if err != nil {
					return err
				}
				callArgs = append(callArgs, &runtime.CallArgument{Value: raw})
			}
			params = params.WithArguments(callArgs)
		}
		res, exc, err := params.Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("script exception: %s", exc.Text)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal(res.Value, out)
	}))
}

// attached fails with ErrStaleElement when the node left the document.
func (e *element) attached(ctx context.Context) error {
	var ok bool
	if err := e.call(ctx, jsConnected, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: <%s>", browser.ErrStaleElement, strings.ToLower(e.node.NodeName))
	}
	return nil
}

func (e *element) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, err := e.FindElements(ctx, loc)
	return firstOf(loc, els, err)
}

// FindElements searches the element's subtree. Only CSS-renderable
// locators are supported below the document level.
func (e *element) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	css, ok := loc.AsCSS()
	if !ok {
		return nil, fmt.Errorf("%w: %s below an element", browser.ErrUnsupportedLocator, loc)
	}
	if err := e.attached(ctx); err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	err := e.d.run(ctx, chromedp.Nodes(css, &nodes, chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	return e.d.wrap(nodes), nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	var v *string
	if err := e.call(ctx, jsAttribute, &v, name); err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	var s string
	err := e.call(ctx, jsText, &s)
	return s, err
}

func (e *element) boolCall(ctx context.Context, fn string) (bool, error) {
	var b bool
	err := e.call(ctx, fn, &b)
	return b, err
}

func (e *element) IsSelected(ctx context.Context) (bool, error) { return e.boolCall(ctx, jsSelected) }

func (e *element) IsDisplayed(ctx context.Context) (bool, error) { return e.boolCall(ctx, jsDisplayed) }

func (e *element) IsEnabled(ctx context.Context) (bool, error) { return e.boolCall(ctx, jsEnabled) }

func (e *element) Click(ctx context.Context) error {
	var cover string
	if err := e.call(ctx, jsHitTest, &cover); err != nil {
		return err
	}
	if cover != "" {
		return fmt.Errorf("%w: other element would receive the click: %s", browser.ErrClickIntercepted, cover)
	}
	return e.d.run(ctx, chromedp.MouseClickNode(e.node))
}

// keyNames maps the WebDriver key code points onto chromedp's.
var keyNames = strings.NewReplacer(
	browser.KeyBackspace, kb.Backspace,
	browser.KeyTab, kb.Tab,
	browser.KeyEnter, kb.Enter,
	browser.KeyEscape, kb.Escape,
)

func (e *element) SendKeys(ctx context.Context, keys string) error {
	if err := e.attached(ctx); err != nil {
		return err
	}
	return e.d.run(ctx, chromedp.KeyEventNode(e.node, keyNames.Replace(keys)))
}

func (e *element) Clear(ctx context.Context) error {
	return e.call(ctx, jsClear, nil)
}

func (e *element) SelectByVisibleText(ctx context.Context, text string) error {
	var found bool
	if err := e.call(ctx, jsSelectByText, &found, text); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %q", browser.ErrNoSuchOption, text)
	}
	return nil
}
