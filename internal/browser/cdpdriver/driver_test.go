// internal/browser/cdpdriver/driver_test.go
package cdpdriver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

const testPage = `<!DOCTYPE html><html><head><title>Fixture</title></head><body>
<input id="name" value="alpha">
<input id="agree" type="checkbox">
<select id="color"><option value="r">Red</option><option value="b">Blue</option></select>
<div id="hidden" style="display:none">secret</div>
<ul id="items"><li class="item">one</li><li class="item">two</li></ul>
<a id="next" href="/next">Next page</a>
<button id="covered" style="position:absolute;top:300px;left:10px">Covered</button>
<div id="overlay" style="position:absolute;top:280px;left:0;width:400px;height:80px;background:#000"></div>
</body></html>`

// findChrome returns a Chrome binary or skips the test.
func findChrome(t *testing.T) string {
	t.Helper()
	if p := os.Getenv("UIBDD_CHROME"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome binary found; set UIBDD_CHROME to run browser tests")
	return ""
}

func createTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testPage)
	})
	mux.HandleFunc("/next", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><p id="arrived">arrived</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDriverAgainstChrome(t *testing.T) {
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	execPath := findChrome(t)
	srv := createTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	d, err := New(ctx, Config{ExecPath: execPath, Headless: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Quit(context.Background()) })

	require.NoError(t, d.Navigate(ctx, srv.URL+"/"))

	// -- lookup --
	items, err := d.FindElements(ctx, browser.CSS(".item"))
	require.NoError(t, err)
	assert.Len(t, items, 2)
	_, err = d.FindElement(ctx, browser.ID("missing"))
	assert.ErrorIs(t, err, browser.ErrNoSuchElement)
	link, err := d.FindElement(ctx, browser.LinkText("Next page"))
	require.NoError(t, err)

	list, err := d.FindElement(ctx, browser.ID("items"))
	require.NoError(t, err)
	children, err := list.FindElements(ctx, browser.TagName("li"))
	require.NoError(t, err)
	require.Len(t, children, 2)
	text, err := children[1].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", text)

	// -- form controls --
	name, err := d.FindElement(ctx, browser.ID("name"))
	require.NoError(t, err)
	require.NoError(t, name.Clear(ctx))
	require.NoError(t, name.SendKeys(ctx, "betaX"+browser.KeyBackspace))
	v, err := name.Attribute(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "beta", v)

	agree, err := d.FindElement(ctx, browser.ID("agree"))
	require.NoError(t, err)
	require.NoError(t, agree.Click(ctx))
	checked, err := agree.IsSelected(ctx)
	require.NoError(t, err)
	assert.True(t, checked)

	color, err := d.FindElement(ctx, browser.ID("color"))
	require.NoError(t, err)
	require.NoError(t, color.SelectByVisibleText(ctx, "Blue"))
	v, err = color.Attribute(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.ErrorIs(t, color.SelectByVisibleText(ctx, "Green"), browser.ErrNoSuchOption)

	hidden, err := d.FindElement(ctx, browser.ID("hidden"))
	require.NoError(t, err)
	visible, err := hidden.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.False(t, visible)

	covered, err := d.FindElement(ctx, browser.ID("covered"))
	require.NoError(t, err)
	assert.ErrorIs(t, covered.Click(ctx), browser.ErrClickIntercepted)

	// -- artifacts --
	png, err := d.Screenshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
	src, err := d.PageSource(ctx)
	require.NoError(t, err)
	assert.Contains(t, src, "<title>Fixture</title>")

	// -- navigation --
	require.NoError(t, link.Click(ctx))
	require.Eventually(t, func() bool {
		u, err := d.CurrentURL(ctx)
		return err == nil && u == srv.URL+"/next"
	}, 10*time.Second, 100*time.Millisecond)

	require.NoError(t, d.Quit(ctx))
	assert.NoError(t, d.Quit(ctx))
}
