// internal/browser/locator.go
package browser

import (
	"fmt"
	"strings"
)

// Strategy names how a Locator value is interpreted. The values match the
// W3C WebDriver location strategies so they can be passed to a remote end as is.
type Strategy string

const (
	ByID              Strategy = "id"
	ByCSSSelector     Strategy = "css selector"
	ByXPath           Strategy = "xpath"
	ByName            Strategy = "name"
	ByTagName         Strategy = "tag name"
	ByClassName       Strategy = "class name"
	ByLinkText        Strategy = "link text"
	ByPartialLinkText Strategy = "partial link text"
)

// Locator identifies a DOM node. It is a plain value: two locators are equal
// when their strategy and value are equal.
type Locator struct {
	Strategy Strategy
	Value    string
}

// ID returns a locator matching the element with the given id.
func ID(id string) Locator { return Locator{Strategy: ByID, Value: id} }

// CSS returns a locator for a CSS selector.
func CSS(selector string) Locator { return Locator{Strategy: ByCSSSelector, Value: selector} }

// XPath returns a locator for an XPath expression.
func XPath(expr string) Locator { return Locator{Strategy: ByXPath, Value: expr} }

// Name returns a locator matching elements by their name attribute.
func Name(name string) Locator { return Locator{Strategy: ByName, Value: name} }

// TagName returns a locator matching elements by tag.
func TagName(tag string) Locator { return Locator{Strategy: ByTagName, Value: tag} }

// ClassName returns a locator matching elements carrying the given class.
func ClassName(class string) Locator { return Locator{Strategy: ByClassName, Value: class} }

// LinkText returns a locator matching anchors whose visible text equals text.
func LinkText(text string) Locator { return Locator{Strategy: ByLinkText, Value: text} }

// PartialLinkText returns a locator matching anchors whose visible text contains text.
func PartialLinkText(text string) Locator {
	return Locator{Strategy: ByPartialLinkText, Value: text}
}

// IsZero reports whether the locator was never set.
func (l Locator) IsZero() bool { return l.Strategy == "" && l.Value == "" }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.Strategy, l.Value)
}

// AsCSS renders the locator as a CSS selector. The second result is false for
// strategies that CSS cannot express (xpath and the link text variants).
func (l Locator) AsCSS() (string, bool) {
	switch l.Strategy {
	case ByCSSSelector:
		return l.Value, true
	case ByID:
		return fmt.Sprintf(`[id=%s]`, cssString(l.Value)), true
	case ByName:
		return fmt.Sprintf(`[name=%s]`, cssString(l.Value)), true
	case ByTagName:
		return l.Value, true
	case ByClassName:
		return "." + cssIdent(l.Value), true
	default:
		return "", false
	}
}

// AsXPath renders the locator as an XPath expression relative to the search
// root. Every strategy except a raw CSS selector can be expressed.
func (l Locator) AsXPath() (string, bool) {
	switch l.Strategy {
	case ByXPath:
		return l.Value, true
	case ByID:
		return ".//*[@id=" + XPathLiteral(l.Value) + "]", true
	case ByName:
		return ".//*[@name=" + XPathLiteral(l.Value) + "]", true
	case ByTagName:
		return ".//" + l.Value, true
	case ByClassName:
		return ".//*[contains(concat(' ', normalize-space(@class), ' '), " +
			XPathLiteral(" "+l.Value+" ") + ")]", true
	case ByLinkText:
		return ".//a[normalize-space(.)=" + XPathLiteral(l.Value) + "]", true
	case ByPartialLinkText:
		return ".//a[contains(., " + XPathLiteral(l.Value) + ")]", true
	default:
		return "", false
	}
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

// cssIdent escapes the characters of s that cannot appear in a CSS identifier.
func cssIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r > 0x7f:
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, `\%x `, r)
		}
	}
	return b.String()
}

// XPathLiteral quotes s as an XPath 1.0 literal. XPath has no escape sequence,
// so a value containing both quote kinds is built with concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
