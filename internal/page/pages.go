// internal/page/pages.go
package page

import (
	"context"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/element"
)

var (
	homeMenuLink          = browser.CSS("a[href='/']")
	containerListMenuLink = browser.CSS("a[href='/containers/list']")
)

// MainPage is the landing page.
type MainPage struct {
	*Base
}

var mainPageIdentity = browser.CSS("#home-page")

func NewMainPage(ctx context.Context, d browser.Driver, opts Options) (*MainPage, error) {
	b, err := NewBase(ctx, d, mainPageIdentity, opts)
	if err != nil {
		return nil, err
	}
	return &MainPage{Base: b}, nil
}

// ContainerListPage lists the containers known to the application.
type ContainerListPage struct {
	*Base
}

var containerListPageIdentity = browser.CSS("#container-list-page")

// ContainerRows reads one row per container.
var ContainerRows = element.Table{Locator: browser.CSS("#container-list > div > table > tbody > tr")}

func NewContainerListPage(ctx context.Context, d browser.Driver, opts Options) (*ContainerListPage, error) {
	b, err := NewBase(ctx, d, containerListPageIdentity, opts)
	if err != nil {
		return nil, err
	}
	return &ContainerListPage{Base: b}, nil
}

// Containers returns the container table rows once at least n are shown.
func (p *ContainerListPage) Containers(ctx context.Context, n int) ([][]string, error) {
	return ContainerRows.ReadAtLeast(ctx, p.d, n)
}
