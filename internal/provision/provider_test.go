// internal/provision/provider_test.go
package provision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/browser/browsertest"
	"github.com/xkilldash9x/uibdd/internal/config"
)

// fakeFactory returns a factory serving in-memory drivers and records them.
func fakeFactory(drivers *[]*browsertest.Driver) Factory {
	return func(ctx context.Context, _ *zap.Logger) (browser.Driver, error) {
		d := browsertest.New(`<html></html>`)
		*drivers = append(*drivers, d)
		return d, nil
	}
}

func newTestProvider(t *testing.T) (*Provider, *[]*browsertest.Driver) {
	t.Helper()
	p := newProvider(config.TimeoutsConfig{SessionStart: time.Second, SessionClose: time.Second}, zaptest.NewLogger(t))
	var drivers []*browsertest.Driver
	p.Register("fake", fakeFactory(&drivers))
	return p, &drivers
}

func TestNewProvider(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.DriversCfg = append(cfg.DriversCfg,
		config.DriverConfig{Name: "pw-firefox", Backend: config.BackendPlaywright, Browser: "firefox"},
		config.DriverConfig{Name: "grid", Backend: config.BackendWebDriver, RemoteURL: "http://grid:4444/wd/hub"},
	)

	p, err := NewProvider(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"chrome-headless", "grid", "pw-firefox"}, p.Names())

	cfg.DriversCfg = append(cfg.DriversCfg, config.DriverConfig{Name: "lynx", Backend: "lynx"})
	_, err = NewProvider(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("StartsSession", func(t *testing.T) {
		p, drivers := newTestProvider(t)
		s, err := p.Acquire(ctx, "fake")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		assert.Equal(t, "fake", s.Name)
		_, err = uuid.Parse(s.ID)
		assert.NoError(t, err)
		require.Len(t, *drivers, 1)
		assert.Same(t, browser.Driver((*drivers)[0]), s.Driver)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		p, _ := newTestProvider(t)
		_, err := p.Acquire(ctx, "safari")
		assert.Error(t, err)
	})

	t.Run("FactoryError", func(t *testing.T) {
		p, _ := newTestProvider(t)
		boom := errors.New("no chrome")
		p.Register("broken", func(context.Context, *zap.Logger) (browser.Driver, error) { return nil, boom })
		_, err := p.Acquire(ctx, "broken")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("StartIsBounded", func(t *testing.T) {
		p := newProvider(config.TimeoutsConfig{SessionStart: 20 * time.Millisecond}, nil)
		p.Register("slow", func(ctx context.Context, _ *zap.Logger) (browser.Driver, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		_, err := p.Acquire(ctx, "slow")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSessionCloseOnce(t *testing.T) {
	p, drivers := newTestProvider(t)
	s, err := p.Acquire(context.Background(), "fake")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, (*drivers)[0].Quits())
}

func TestWith(t *testing.T) {
	ctx := context.Background()

	t.Run("ClosesOnSuccess", func(t *testing.T) {
		p, drivers := newTestProvider(t)
		var seen *Session
		err := p.With(ctx, "fake", func(ctx context.Context, s *Session) error {
			seen = s
			return nil
		})
		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.Equal(t, 1, (*drivers)[0].Quits())
	})

	t.Run("ClosesOnError", func(t *testing.T) {
		p, drivers := newTestProvider(t)
		stepErr := errors.New("step failed")
		err := p.With(ctx, "fake", func(context.Context, *Session) error { return stepErr })
		assert.ErrorIs(t, err, stepErr)
		assert.Equal(t, 1, (*drivers)[0].Quits())
	})

	t.Run("ClosesOnPanic", func(t *testing.T) {
		p, drivers := newTestProvider(t)
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = p.With(ctx, "fake", func(context.Context, *Session) error { panic("kaboom") })
		})
		assert.Equal(t, 1, (*drivers)[0].Quits())
	})

	t.Run("UnknownDriverRunsNothing", func(t *testing.T) {
		p, _ := newTestProvider(t)
		called := false
		err := p.With(ctx, "nope", func(context.Context, *Session) error { called = true; return nil })
		assert.Error(t, err)
		assert.False(t, called)
	})
}
