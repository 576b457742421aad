// internal/element/display.go
package element

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/wait"
)

// DefaultSnackbarClass marks a snackbar reporting success.
const DefaultSnackbarClass = "is-success"

// SnackbarState is what a snackbar showed before it was dismissed.
type SnackbarState struct {
	HasExpectedClass bool
	Content          string
}

// Snackbar is a transient notification. Reading it dismisses it through its
// close button.
type Snackbar struct {
	Locator       browser.Locator
	Timeout       time.Duration
	ExpectedClass string
}

func (s Snackbar) Read(ctx context.Context, d browser.Driver) (SnackbarState, error) {
	el, err := present(ctx, d, s.Locator, timeoutOr(s.Timeout, DefaultDisplayTimeout))
	if err != nil {
		return SnackbarState{}, err
	}
	expected := s.ExpectedClass
	if expected == "" {
		expected = DefaultSnackbarClass
	}

	var state SnackbarState
	class, err := el.Attribute(ctx, "class")
	if err != nil {
		return SnackbarState{}, fmt.Errorf("snackbar %s: class: %w", s.Locator, err)
	}
	state.HasExpectedClass = slices.Contains(strings.Fields(class), expected)
	if state.Content, err = el.Attribute(ctx, "innerHTML"); err != nil {
		return SnackbarState{}, fmt.Errorf("snackbar %s: content: %w", s.Locator, err)
	}

	btn, err := el.FindElement(ctx, browser.TagName("button"))
	switch {
	case errors.Is(err, browser.ErrNoSuchElement):
		// Nothing to dismiss.
	case err != nil:
		return state, fmt.Errorf("snackbar %s: close button: %w", s.Locator, err)
	default:
		if err := btn.Click(ctx); err != nil {
			return state, fmt.Errorf("snackbar %s: dismiss: %w", s.Locator, err)
		}
	}
	return state, nil
}

func (Snackbar) Write(context.Context, browser.Driver, SnackbarState) error {
	return notSupported("snackbar")
}

// Text reads the inner HTML of a display element.
type Text struct {
	Locator browser.Locator
	Timeout time.Duration
}

func (t Text) Read(ctx context.Context, d browser.Driver) (string, error) {
	el, err := present(ctx, d, t.Locator, timeoutOr(t.Timeout, DefaultDisplayTimeout))
	if err != nil {
		return "", err
	}
	return el.Attribute(ctx, "innerHTML")
}

func (Text) Write(context.Context, browser.Driver, string) error { return notSupported("text") }

// Table reads rows of cells. Locator matches the rows; the cells of a row
// are its td children.
type Table struct {
	Locator browser.Locator
	Timeout time.Duration
}

// Read waits for at least one row and returns the trimmed text of every cell.
func (t Table) Read(ctx context.Context, d browser.Driver) ([][]string, error) {
	return t.ReadAtLeast(ctx, d, 1)
}

// ReadAtLeast waits until the table has n rows or more. A row re-rendered
// while it is being read restarts the read.
func (t Table) ReadAtLeast(ctx context.Context, d browser.Driver, n int) ([][]string, error) {
	rows, err := wait.Until(ctx, d, timeoutOr(t.Timeout, DefaultDisplayTimeout), t.rows(n))
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", t.Locator, err)
	}
	return rows, nil
}

func (t Table) rows(n int) wait.Condition[[][]string] {
	atLeast := wait.AtLeastN(t.Locator, n)
	return wait.Condition[[][]string]{
		Desc: atLeast.Desc,
		Check: func(ctx context.Context, d browser.Driver) ([][]string, bool, error) {
			els, ok, err := atLeast.Check(ctx, d)
			if err != nil || !ok {
				return nil, false, err
			}
			rows := make([][]string, 0, len(els))
			for _, row := range els {
				cells, err := row.FindElements(ctx, browser.TagName("td"))
				if err != nil {
					return nil, false, err
				}
				texts := make([]string, 0, len(cells))
				for _, cell := range cells {
					text, err := cell.Text(ctx)
					if err != nil {
						return nil, false, err
					}
					texts = append(texts, strings.TrimSpace(text))
				}
				rows = append(rows, texts)
			}
			return rows, true, nil
		},
	}
}

func (Table) Write(context.Context, browser.Driver, [][]string) error { return notSupported("table") }
