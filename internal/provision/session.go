// internal/provision/session.go
package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

// Session is one browser session bound to one scenario.
type Session struct {
	ID     string
	Name   string
	Driver browser.Driver

	closeTimeout time.Duration
	logger       *zap.Logger
	closeOnce    sync.Once
	closeErr     error
}

const defaultCloseTimeout = 15 * time.Second

// NewSession wraps an already started driver.
func NewSession(name string, d browser.Driver, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		ID:           uuid.NewString(),
		Name:         name,
		Driver:       d,
		closeTimeout: defaultCloseTimeout,
		logger:       logger,
	}
}

// Close quits the browser. Only the first call does any work; later calls
// return the first result. It runs on a fresh context so that a cancelled
// scenario still releases its browser.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.closeTimeout)
		defer cancel()
		if err := s.Driver.Quit(ctx); err != nil {
			s.closeErr = fmt.Errorf("close session %s (%s): %w", s.ID, s.Name, err)
			s.logger.Warn("Failed to close session.", zap.Error(err))
			return
		}
		s.logger.Debug("Session closed.")
	})
	return s.closeErr
}
