// internal/browser/cdpdriver/context.go
package cdpdriver

import (
	"context"
	"time"
)

// combineContext derives a context from session, which carries the chromedp
// target, that is also cancelled when op is. Values come from session only.
func combineContext(session, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(session)
	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// detachedContext keeps the values of its parent but none of its
// cancellation, so the browser outlives the context it was started under.
type detachedContext struct {
	context.Context
}

func (detachedContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detachedContext) Done() <-chan struct{}       { return nil }
func (detachedContext) Err() error                  { return nil }

func detach(ctx context.Context) context.Context { return detachedContext{ctx} }
