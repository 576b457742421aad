// internal/browser/errors.go
package browser

import (
	"errors"
	"strings"
)

var (
	// ErrNoSuchElement is returned when a locator matches nothing.
	ErrNoSuchElement = errors.New("no such element")
	// ErrStaleElement is returned when an element reference no longer
	// points at a node attached to the document.
	ErrStaleElement = errors.New("stale element reference")
	// ErrClickIntercepted is returned when another element sits on top of
	// the click target, typically a loading overlay.
	ErrClickIntercepted = errors.New("element click intercepted")
	// ErrNotInteractable is returned when the element cannot receive input.
	ErrNotInteractable = errors.New("element not interactable")
	// ErrUnsupportedLocator is returned when a backend cannot evaluate a strategy.
	ErrUnsupportedLocator = errors.New("unsupported locator strategy")
	// ErrNoSuchOption is returned by SelectByVisibleText when no option matches.
	ErrNoSuchOption = errors.New("no such option")
)

// errorMarkers maps the error codes reported by WebDriver remote ends and
// by the DevTools protocol onto the sentinels above.
var errorMarkers = []struct {
	marker string
	err    error
}{
	{"no such element", ErrNoSuchElement},
	{"stale element reference", ErrStaleElement},
	{"no node with given id", ErrStaleElement},
	{"could not find node with given id", ErrStaleElement},
	{"node is detached from document", ErrStaleElement},
	{"not attached to the dom", ErrStaleElement},
	{"element click intercepted", ErrClickIntercepted},
	{"intercepts pointer events", ErrClickIntercepted},
	{"element not interactable", ErrNotInteractable},
	{"invalid element state", ErrNotInteractable},
}

// Classify inspects a backend error message and returns the matching
// sentinel, or nil when the error is not recognised. Backends use it to
// normalise the errors of their underlying client.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, m := range errorMarkers {
		if strings.Contains(msg, m.marker) {
			return m.err
		}
	}
	return nil
}

// Wrap returns err annotated with its classified sentinel so callers can use
// errors.Is on it. Unrecognised errors are returned unchanged.
func Wrap(err error) error {
	sentinel := Classify(err)
	if sentinel == nil || errors.Is(err, sentinel) {
		return err
	}
	return &classifiedError{sentinel: sentinel, cause: err}
}

type classifiedError struct {
	sentinel error
	cause    error
}

func (e *classifiedError) Error() string { return e.sentinel.Error() + ": " + e.cause.Error() }

func (e *classifiedError) Unwrap() []error { return []error{e.sentinel, e.cause} }
