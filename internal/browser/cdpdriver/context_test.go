// internal/browser/cdpdriver/context_test.go
package cdpdriver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCombineContext(t *testing.T) {
	type ctxKey string
	const key ctxKey = "target"

	t.Run("InheritsSessionValues", func(t *testing.T) {
		session := context.WithValue(context.Background(), key, "tab-1")
		combined, cancel := combineContext(session, context.Background())
		defer cancel()

		assert.Equal(t, "tab-1", combined.Value(key))
		assert.NoError(t, combined.Err())
	})

	t.Run("CancelledBySession", func(t *testing.T) {
		session, cancelSession := context.WithCancel(context.Background())
		combined, cancel := combineContext(session, context.Background())
		defer cancel()

		cancelSession()
		assert.Eventually(t, func() bool { return combined.Err() != nil }, 100*time.Millisecond, 5*time.Millisecond)
	})

	t.Run("CancelledByOperation", func(t *testing.T) {
		op, cancelOp := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancelOp()
		combined, cancel := combineContext(context.Background(), op)
		defer cancel()

		assert.Eventually(t, func() bool { return combined.Err() != nil }, 500*time.Millisecond, 5*time.Millisecond)
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	type ctxKey string
	const key ctxKey = "k"

	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key, "v"))
	detached := detach(parent)
	cancel()

	assert.Error(t, parent.Err())
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, ok := detached.Deadline()
	assert.False(t, ok)
	assert.Equal(t, "v", detached.Value(key))
}

func TestExecOptions(t *testing.T) {
	base := len(execOptions(Config{}))
	opts := execOptions(Config{
		Headless:     true,
		ExecPath:     "/usr/bin/chromium",
		Args:         []string{"--lang=en-US", "mute-audio"},
		WindowWidth:  1280,
		WindowHeight: 800,
	})
	assert.Len(t, opts, base+5)
}
