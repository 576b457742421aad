// internal/browser/locator_test.go
package browser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocatorEquality(t *testing.T) {
	assert.Equal(t, CSS("#a"), Locator{Strategy: ByCSSSelector, Value: "#a"})
	assert.NotEqual(t, CSS("#a"), ID("a"))
	assert.True(t, Locator{}.IsZero())
	assert.False(t, ID("x").IsZero())
	assert.Equal(t, `id="home-page"`, ID("home-page").String())
}

func TestLocatorAsCSS(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want string
		ok   bool
	}{
		{"css passthrough", CSS("a[href='/']"), "a[href='/']", true},
		{"id", ID("home-page"), `[id="home-page"]`, true},
		{"id with quote", ID(`a"b`), `[id="a\"b"]`, true},
		{"name", Name("q"), `[name="q"]`, true},
		{"tag", TagName("td"), "td", true},
		{"class", ClassName("is-success"), ".is-success", true},
		{"class leading digit", ClassName("1col"), `.\31 col`, true},
		{"xpath", XPath("//a"), "", false},
		{"link text", LinkText("Home"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.loc.AsCSS()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocatorAsXPath(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want string
		ok   bool
	}{
		{"xpath passthrough", XPath("//tr"), "//tr", true},
		{"id", ID("home-page"), ".//*[@id='home-page']", true},
		{"link text", LinkText("Home"), ".//a[normalize-space(.)='Home']", true},
		{"partial link text", PartialLinkText("Cont"), ".//a[contains(., 'Cont')]", true},
		{"single quote value", Name("it's"), `.//*[@name="it's"]`, true},
		{"both quotes", ID(`a'b"c`), `.//*[@id=concat('a', "'", 'b"c')]`, true},
		{"css", CSS("tr"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.loc.AsXPath()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyAndWrap(t *testing.T) {
	t.Run("recognised message", func(t *testing.T) {
		raw := errors.New("unknown error: Element Click Intercepted: other element would receive the click")
		err := Wrap(raw)
		assert.ErrorIs(t, err, ErrClickIntercepted)
		assert.ErrorIs(t, err, raw)
	})

	t.Run("cdp stale node", func(t *testing.T) {
		err := Wrap(errors.New("No node with given id found (-32000)"))
		assert.ErrorIs(t, err, ErrStaleElement)
	})

	t.Run("already wrapped sentinel is untouched", func(t *testing.T) {
		raw := fmt.Errorf("lookup: %w", ErrNoSuchElement)
		assert.Same(t, raw, Wrap(raw))
	})

	t.Run("unknown error", func(t *testing.T) {
		raw := errors.New("connection reset")
		assert.Nil(t, Classify(raw))
		assert.Equal(t, raw, Wrap(raw))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil))
	})
}
