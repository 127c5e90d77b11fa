// File: internal/service/components.go
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/actions"
)

const shutdownTimeout = 30 * time.Second

// Components holds the collaborators one execution needs. They outlive the
// execution and are released together by Shutdown.
type Components struct {
	Browser  schemas.BrowserManager
	Session  schemas.BrowserSession
	Model    schemas.ModelClient
	Registry *actions.Registry
	Executor *actions.Executor

	logger *zap.Logger
}

// Shutdown closes the browser session and then the browser. It uses its own
// timeout so it completes even when ctx is already canceled.
func (c *Components) Shutdown(ctx context.Context) error {
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Beginning components shutdown sequence.")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error
	if c.Session != nil && (c.Browser == nil || !keepsBrowserAlive(c.Browser)) {
		if err := c.Session.Close(shutdownCtx); err != nil {
			logger.Warn("Error closing browser session.", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if c.Browser != nil {
		if err := c.Browser.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during browser manager shutdown.", zap.Error(err))
			errs = append(errs, err)
		} else {
			logger.Debug("Browser manager shut down.")
		}
	}
	return errors.Join(errs...)
}

// keepAliver is implemented by managers that can skip the graceful browser close.
type keepAliver interface {
	KeepAlive() bool
}

func keepsBrowserAlive(m schemas.BrowserManager) bool {
	k, ok := m.(keepAliver)
	return ok && k.KeepAlive()
}
