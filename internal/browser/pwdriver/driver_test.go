// internal/browser/pwdriver/driver_test.go
package pwdriver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

func TestSelector(t *testing.T) {
	tests := []struct {
		loc  browser.Locator
		want string
	}{
		{browser.ID("main"), `css=[id="main"]`},
		{browser.CSS("tr > td"), "css=tr > td"},
		{browser.XPath("//a"), "xpath=//a"},
		{browser.LinkText("Home"), `xpath=.//a[normalize-space(.)='Home']`},
	}
	for _, tt := range tests {
		got, err := selector(tt.loc)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := selector(browser.Locator{Strategy: "shadow", Value: "x"})
	assert.ErrorIs(t, err, browser.ErrUnsupportedLocator)
}

func TestLaunchOptions(t *testing.T) {
	opts := launchOptions(Config{Browser: "chromium", Headless: true, Args: []string{"--lang=en"}})
	require.NotNil(t, opts.Headless)
	assert.True(t, *opts.Headless)
	assert.Equal(t, "--lang=en", opts.Args[len(opts.Args)-1])
	assert.Contains(t, opts.Args, "--no-sandbox")

	ff := launchOptions(Config{Browser: "firefox"})
	assert.Empty(t, ff.Args)
}

func TestBrowserType(t *testing.T) {
	pw := &playwright.Playwright{}
	_, err := browserType(pw, "lynx")
	assert.Error(t, err)
}

// TestDriverAgainstPlaywright needs the Playwright driver and Chromium
// installed (go run github.com/playwright-community/playwright-go/cmd/playwright install).
func TestDriverAgainstPlaywright(t *testing.T) {
	if testing.Short() || os.Getenv("UIBDD_PLAYWRIGHT") == "" {
		t.Skip("set UIBDD_PLAYWRIGHT=1 to run Playwright browser tests")
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
<input id="name" value="alpha">
<select id="color"><option value="r">Red</option><option value="b">Blue</option></select>
<ul><li class="item">one</li><li class="item">two</li></ul>
</body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	d, err := New(ctx, Config{Headless: true, ActionTimeout: 2 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Quit(context.Background()) })

	require.NoError(t, d.Navigate(ctx, srv.URL))

	items, err := d.FindElements(ctx, browser.ClassName("item"))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	name, err := d.FindElement(ctx, browser.ID("name"))
	require.NoError(t, err)
	require.NoError(t, name.Clear(ctx))
	require.NoError(t, name.SendKeys(ctx, "betaX"+browser.KeyBackspace))
	v, err := name.Attribute(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "beta", v)

	color, err := d.FindElement(ctx, browser.ID("color"))
	require.NoError(t, err)
	require.NoError(t, color.SelectByVisibleText(ctx, "Blue"))
	v, err = color.Attribute(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	src, err := d.PageSource(ctx)
	require.NoError(t, err)
	assert.Contains(t, src, `id="color"`)
}
