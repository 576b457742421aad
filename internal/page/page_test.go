// internal/page/page_test.go
package page

import (
	"context"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/browser/browsertest"
	"github.com/xkilldash9x/uibdd/internal/element"
	"github.com/xkilldash9x/uibdd/internal/wait"
)

const menu = `<nav><a href="/">Home</a><a href="/containers/list">Containers</a></nav>`

const homePage = `<html><body>` + menu + `<div id="home-page"><input id="search" value=""><input type="checkbox" id="autostart"></div></body></html>`

const containerListPage = `<html><body>` + menu + `<div id="container-list-page">
<div id="container-list"><div><table><tbody>
  <tr><td>web</td><td>nginx:latest</td><td>running</td></tr>
  <tr><td>cache</td><td>redis:7</td><td>exited</td></tr>
</tbody></table></div></div>
</div></body></html>`

// createTestSite routes the two pages of the application under test.
func createTestSite(t *testing.T) *browsertest.Driver {
	t.Helper()
	d := browsertest.New(`<html></html>`)
	d.Route("/", homePage)
	d.Route("/containers/list", containerListPage)
	return d
}

func testOptions(t *testing.T) Options {
	return Options{
		IdentityTimeout: 100 * time.Millisecond,
		ClickTimeout:    500 * time.Millisecond,
		Logger:          zaptest.NewLogger(t),
	}
}

func testCtx() context.Context {
	return wait.ContextWithInterval(context.Background(), 10*time.Millisecond)
}

func TestOpenAndNavigate(t *testing.T) {
	ctx := testCtx()
	d := createTestSite(t)

	main, err := Open(ctx, d, "http://app.test/", testOptions(t))
	require.NoError(t, err)
	assert.Same(t, browser.Driver(d), main.Driver())

	list, err := main.GoContainerList(ctx)
	require.NoError(t, err)
	u, err := d.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://app.test/containers/list", u)

	rows, err := list.Containers(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"web", "nginx:latest", "running"},
		{"cache", "redis:7", "exited"},
	}, rows)

	back, err := list.GoHome(ctx)
	require.NoError(t, err)
	assert.NotNil(t, back)
}

func TestIdentity(t *testing.T) {
	ctx := testCtx()

	t.Run("WrongPageTimesOut", func(t *testing.T) {
		d := createTestSite(t)
		require.NoError(t, d.Navigate(ctx, "http://app.test/"))

		_, err := NewContainerListPage(ctx, d, testOptions(t))
		assert.ErrorIs(t, err, wait.ErrTimeoutExceeded)
	})

	t.Run("HiddenIdentityTimesOut", func(t *testing.T) {
		d := createTestSite(t)
		require.NoError(t, d.Navigate(ctx, "http://app.test/"))
		d.Mutate(func(doc *goquery.Document) { doc.Find("#home-page").SetAttr("hidden", "") })

		_, err := NewMainPage(ctx, d, testOptions(t))
		assert.ErrorIs(t, err, wait.ErrTimeoutExceeded)
	})

	t.Run("UnknownRouteFailsOpen", func(t *testing.T) {
		d := createTestSite(t)
		_, err := Open(ctx, d, "http://app.test/missing", testOptions(t))
		assert.ErrorIs(t, err, wait.ErrTimeoutExceeded)
	})

	t.Run("ZeroIdentityAlwaysPasses", func(t *testing.T) {
		b, err := NewBase(ctx, browsertest.New(`<html></html>`), browser.Locator{}, Options{})
		require.NoError(t, err)
		assert.Equal(t, DefaultIdentityTimeout, b.Options().IdentityTimeout)
		assert.Equal(t, DefaultClickTimeout, b.Options().ClickTimeout)
	})
}

func TestClick(t *testing.T) {
	ctx := testCtx()

	t.Run("RetriesOverlay", func(t *testing.T) {
		d := createTestSite(t)
		main, err := Open(ctx, d, "http://app.test/", testOptions(t))
		require.NoError(t, err)
		d.InterceptClicks("a[href='/containers/list']", 2)

		_, err = main.GoContainerList(ctx)
		require.NoError(t, err)
	})

	t.Run("MissingTargetTimesOut", func(t *testing.T) {
		d := createTestSite(t)
		main, err := Open(ctx, d, "http://app.test/", testOptions(t))
		require.NoError(t, err)

		err = main.Click(ctx, browser.ID("nope"), 50*time.Millisecond)
		assert.ErrorIs(t, err, wait.ErrTimeoutExceeded)
	})
}

func TestReadWrite(t *testing.T) {
	ctx := testCtx()
	d := createTestSite(t)
	main, err := Open(ctx, d, "http://app.test/", testOptions(t))
	require.NoError(t, err)

	search := element.Input{Locator: browser.ID("search")}
	require.NoError(t, Write(ctx, main.Base, search, "redis"))
	v, err := Read(ctx, main.Base, search)
	require.NoError(t, err)
	assert.Equal(t, "redis", v)

	autostart := element.Checkbox{Locator: browser.ID("autostart")}
	require.NoError(t, Write(ctx, main.Base, autostart, true))
	on, err := Read(ctx, main.Base, autostart)
	require.NoError(t, err)
	assert.True(t, on)
}
