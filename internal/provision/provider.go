// Package provision turns the named driver configurations into live
// browser sessions, one per scenario, and guarantees every session it hands
// out is closed exactly once.
package provision

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/browser/cdpdriver"
	"github.com/xkilldash9x/uibdd/internal/browser/pwdriver"
	"github.com/xkilldash9x/uibdd/internal/browser/wddriver"
	"github.com/xkilldash9x/uibdd/internal/config"
)

// Factory starts a browser session.
type Factory func(ctx context.Context, logger *zap.Logger) (browser.Driver, error)

// Provider hands out sessions for named drivers.
type Provider struct {
	mu           sync.RWMutex
	factories    map[string]Factory
	startTimeout time.Duration
	closeTimeout time.Duration
	logger       *zap.Logger
}

// NewProvider registers a factory for every driver in cfg.
func NewProvider(cfg config.Interface, logger *zap.Logger) (*Provider, error) {
	p := newProvider(cfg.Timeouts(), logger)
	for _, dc := range cfg.Drivers() {
		f, err := FactoryFor(dc)
		if err != nil {
			return nil, err
		}
		p.Register(dc.Name, f)
	}
	return p, nil
}

func newProvider(t config.TimeoutsConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{
		factories:    make(map[string]Factory),
		startTimeout: t.SessionStart,
		closeTimeout: t.SessionClose,
		logger:       logger.Named("provision"),
	}
	if p.startTimeout <= 0 {
		p.startTimeout = time.Minute
	}
	if p.closeTimeout <= 0 {
		p.closeTimeout = defaultCloseTimeout
	}
	return p
}

// FactoryFor builds the factory for one driver configuration.
func FactoryFor(dc config.DriverConfig) (Factory, error) {
	switch dc.Backend {
	case config.BackendChromedp:
		cfg := cdpdriver.Config{
			RemoteURL:    dc.RemoteURL,
			ExecPath:     dc.ExecPath,
			Headless:     dc.Headless,
			Args:         dc.Args,
			WindowWidth:  dc.WindowWidth,
			WindowHeight: dc.WindowHeight,
		}
		return func(ctx context.Context, logger *zap.Logger) (browser.Driver, error) {
			return cdpdriver.New(ctx, cfg, logger)
		}, nil
	case config.BackendPlaywright:
		cfg := pwdriver.Config{
			Browser:       dc.Browser,
			RemoteURL:     dc.RemoteURL,
			Headless:      dc.Headless,
			Args:          dc.Args,
			Install:       dc.Install,
			ActionTimeout: dc.ActionTimeout,
		}
		return func(ctx context.Context, logger *zap.Logger) (browser.Driver, error) {
			return pwdriver.New(ctx, cfg, logger)
		}, nil
	case config.BackendWebDriver:
		cfg := wddriver.Config{
			RemoteURL:   dc.RemoteURL,
			Browser:     dc.Browser,
			Headless:    dc.Headless,
			Args:        dc.Args,
			BrowserPath: dc.ExecPath,
			DriverPath:  dc.DriverPath,
			DriverPort:  dc.DriverPort,
		}
		return func(ctx context.Context, logger *zap.Logger) (browser.Driver, error) {
			return wddriver.New(ctx, cfg, logger)
		}, nil
	}
	return nil, fmt.Errorf("driver %q: unknown backend %q", dc.Name, dc.Backend)
}

// Register adds or replaces the factory for name.
func (p *Provider) Register(name string, f Factory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factories[name] = f
}

// Names lists the registered drivers in lexical order.
func (p *Provider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.factories))
	for n := range p.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Acquire starts a session of the named driver. The caller owns the session
// and must Close it.
func (p *Provider) Acquire(ctx context.Context, name string) (*Session, error) {
	p.mu.RLock()
	f, ok := p.factories[name]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown driver %q", name)
	}

	s := NewSession(name, nil, nil)
	s.closeTimeout = p.closeTimeout
	s.logger = p.logger.With(zap.String("driver", name), zap.String("session_id", s.ID))

	startCtx, cancel := context.WithTimeout(ctx, p.startTimeout)
	defer cancel()
	start := time.Now()
	d, err := f(startCtx, s.logger)
	if err != nil {
		return nil, fmt.Errorf("start driver %q: %w", name, err)
	}
	s.Driver = d
	s.logger.Debug("Session started.", zap.Duration("took", time.Since(start)))
	return s, nil
}

// With runs fn with a fresh session of the named driver and closes the
// session afterwards, also when fn panics. A close error is returned only
// when fn itself succeeded.
func (p *Provider) With(ctx context.Context, name string, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := p.Acquire(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, s)
}
