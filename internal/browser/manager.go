// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the browser process and hands out sessions (tabs) on it.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

var _ schemas.BrowserManager = (*Manager)(nil)

// NewManager launches the browser process. The process is bound to a context
// detached from ctx, so it lives until Shutdown rather than until ctx ends.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}

	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(Detach(ctx), allocatorOptions(cfg)...)
	m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx,
		chromedp.WithLogf(m.logf),
		chromedp.WithErrorf(m.errorf),
	)

	// The first Run allocates the process. It must not carry a deadline, as
	// canceling the context of the first Run stops the browser.
	if err := chromedp.Run(m.browserCtx); err != nil {
		m.browserCancel()
		m.allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	m.logger.Info("Browser launched.",
		zap.Bool("headless", cfg.Headless),
		zap.Bool("keep_alive", cfg.KeepAlive))
	return m, nil
}

// NewSession opens a fresh tab.
func (m *Manager) NewSession(ctx context.Context) (schemas.BrowserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("browser manager is shut down")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}

	var s *Session
	s = newSession(tabCtx, tabCancel, m.cfg, m.logger, func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
	})
	m.sessions[s.ID()] = s
	m.logger.Debug("Browser session opened.", zap.String("session_id", s.ID()))
	return s, nil
}

// Shutdown closes every open session and then the browser over CDP. With
// keep_alive set it skips that graceful close and only stops handing out
// sessions. The browser process is bound to this process, so it still ends
// when the CLI exits; stay_open is what keeps the window up for the user.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	if m.cfg.KeepAlive {
		m.logger.Info("Keep-alive is set, skipping graceful browser close; the browser exits with the process.")
		return nil
	}

	for _, s := range sessions {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Failed to close browser session.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	closeCtx, cancel := context.WithTimeout(Detach(ctx), shutdownGracePeriod)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(m.browserCtx) }()

	var err error
	select {
	case err = <-done:
	case <-closeCtx.Done():
		err = fmt.Errorf("timed out closing the browser: %w", closeCtx.Err())
	}
	m.allocCancel()

	if err != nil {
		m.logger.Warn("Browser did not close cleanly.", zap.Error(err))
		return err
	}
	m.logger.Info("Browser closed.")
	return nil
}

func (m *Manager) logf(format string, args ...interface{}) {
	m.logger.Debug(fmt.Sprintf(format, args...))
}

func (m *Manager) errorf(format string, args ...interface{}) {
	m.logger.Debug("cdp error", zap.String("detail", fmt.Sprintf(format, args...)))
}

// KeepAlive reports whether Shutdown skips closing sessions and the browser.
func (m *Manager) KeepAlive() bool {
	return m.cfg.KeepAlive
}
