// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/config"
)

const (
	defaultNavigationTimeout = 90 * time.Second
	defaultActionTimeout     = 30 * time.Second
)

// Session is one browser tab. It implements schemas.BrowserSession.
type Session struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     config.BrowserConfig
	logger  *zap.Logger
	onClose func()

	dialogMu     sync.Mutex
	dialog       *page.EventJavascriptDialogOpening
	dialogOpened chan struct{}

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.BrowserSession = (*Session)(nil)

func newSession(ctx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger, onClose func()) *Session {
	id := uuid.New().String()
	s := &Session{
		id:           id,
		ctx:          ctx,
		cancel:       cancel,
		cfg:          cfg,
		logger:       logger.Named("browser_session").With(zap.String("session_id", id)),
		onClose:      onClose,
		dialogOpened: make(chan struct{}, 1),
	}
	chromedp.ListenTarget(ctx, s.handleTargetEvent)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	s.cancel()

	if s.onClose != nil {
		s.onClose()
	}
	if err != nil {
		return fmt.Errorf("failed to close browser session %s: %w", s.id, err)
	}
	return nil
}

func (s *Session) handleTargetEvent(ev interface{}) {
	switch e := ev.(type) {
	case *page.EventJavascriptDialogOpening:
		s.dialogMu.Lock()
		s.dialog = e
		s.dialogMu.Unlock()
		s.logger.Debug("JavaScript dialog opened.",
			zap.String("type", e.Type.String()),
			zap.String("message", e.Message))
		select {
		case s.dialogOpened <- struct{}{}:
		default:
		}
	case *page.EventJavascriptDialogClosed:
		s.dialogMu.Lock()
		s.dialog = nil
		s.dialogMu.Unlock()
	}
}

func (s *Session) openDialog() *page.EventJavascriptDialogOpening {
	s.dialogMu.Lock()
	defer s.dialogMu.Unlock()
	return s.dialog
}

// blockedByDialog reports an error when an open dialog would stall page
// scripts and rendering.
func (s *Session) blockedByDialog() error {
	d := s.openDialog()
	if d == nil {
		return nil
	}
	return fmt.Errorf("a javascript %s dialog is open (message %q); accept, dismiss or answer it first", d.Type, d.Message)
}

func (s *Session) ensureOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return fmt.Errorf("browser session %s is closed", s.id)
	}
	return nil
}

func (s *Session) navigationTimeout() time.Duration {
	if s.cfg.NavigationTimeout > 0 {
		return s.cfg.NavigationTimeout
	}
	return defaultNavigationTimeout
}

func (s *Session) actionTimeout() time.Duration {
	if s.cfg.ActionTimeout > 0 {
		return s.cfg.ActionTimeout
	}
	return defaultActionTimeout
}

// run executes actions in the tab, bounded by both ctx and timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()
	runCtx, cancel := context.WithTimeout(opCtx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if runCtx.Err() == context.DeadlineExceeded && opCtx.Err() == nil {
			return fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
		}
		return err
	}
	return nil
}

// interact is run for input that may open a dialog. A page showing a dialog
// holds the pending CDP call until the dialog is answered, so interact returns
// as soon as one opens.
func (s *Session) interact(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	select {
	case <-s.dialogOpened:
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- s.run(ctx, timeout, actions...) }()

	select {
	case err := <-errc:
		return err
	case <-s.dialogOpened:
		return nil
	}
}
