// internal/browser/interaction.go
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// selectScript sets the selection of a <select> element. Options match on
// their value or their visible text.
const selectScript = `(function(selector, values) {
	const el = document.querySelector(selector);
	if (!el || !el.options) { return -1; }
	let matched = 0;
	for (const opt of el.options) {
		opt.selected = values.includes(opt.value) || values.includes(opt.text.trim());
		if (opt.selected) { matched++; }
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return matched;
})(%s, %s)`

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL", zap.String("url", url))

	timeout := s.navigationTimeout()
	err := s.interact(ctx, timeout, chromedp.Navigate(url))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("navigation to %s timed out after %s: %w", url, timeout, err)
	case ctx.Err() != nil:
		return fmt.Errorf("navigation canceled: %w", ctx.Err())
	default:
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
}

// Back goes one step back in the tab history.
func (s *Session) Back(ctx context.Context) error {
	if err := s.interact(ctx, s.navigationTimeout(), chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("navigation back failed: %w", err)
	}
	return nil
}

// Forward goes one step forward in the tab history.
func (s *Session) Forward(ctx context.Context) error {
	if err := s.interact(ctx, s.navigationTimeout(), chromedp.NavigateForward()); err != nil {
		return fmt.Errorf("navigation forward failed: %w", err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Attempting to click element", zap.String("selector", selector))
	if err := s.requireElement(ctx, selector); err != nil {
		return fmt.Errorf("click action failed for selector '%s': %w", selector, err)
	}
	err := s.interact(ctx, s.actionTimeout(),
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
	)
	if err != nil {
		return fmt.Errorf("click action failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Clear empties the value of an input or textarea.
func (s *Session) Clear(ctx context.Context, selector string) error {
	if err := s.requireElement(ctx, selector); err != nil {
		return fmt.Errorf("clear action failed for selector '%s': %w", selector, err)
	}
	if err := s.run(ctx, s.actionTimeout(), chromedp.Clear(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("clear action failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Submit submits the form that owns the matching element.
func (s *Session) Submit(ctx context.Context, selector string) error {
	if err := s.requireElement(ctx, selector); err != nil {
		return fmt.Errorf("submit action failed for selector '%s': %w", selector, err)
	}
	if err := s.interact(ctx, s.actionTimeout(), chromedp.Submit(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("submit action failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Write types text into the matching element.
func (s *Session) Write(ctx context.Context, selector, text string) error {
	s.logger.Debug("Typing into element", zap.String("selector", selector), zap.Int("length", len(text)))
	if err := s.requireElement(ctx, selector); err != nil {
		return fmt.Errorf("write action failed for selector '%s': %w", selector, err)
	}
	if err := s.interact(ctx, s.actionTimeout(), chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("write action failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Select picks the options of a <select> element whose value or text is in values.
func (s *Session) Select(ctx context.Context, selector string, values []string) error {
	selJSON, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	if values == nil {
		values = []string{}
	}
	valJSON, err := json.Marshal(values)
	if err != nil {
		return err
	}

	var matched int
	script := fmt.Sprintf(selectScript, selJSON, valJSON)
	if err := s.run(ctx, s.actionTimeout(), chromedp.Evaluate(script, &matched)); err != nil {
		return fmt.Errorf("select action failed for selector '%s': %w", selector, err)
	}
	if matched < 0 {
		return fmt.Errorf("select action failed for selector '%s': %w", selector, schemas.ErrElementNotFound)
	}
	if matched == 0 && len(values) > 0 {
		return fmt.Errorf("select action failed for selector '%s': no option matches %v", selector, values)
	}
	return nil
}

// AcceptDialog accepts the open alert, confirm or prompt dialog.
func (s *Session) AcceptDialog(ctx context.Context) error {
	return s.answerDialog(ctx, page.HandleJavaScriptDialog(true))
}

// DismissDialog dismisses the open dialog.
func (s *Session) DismissDialog(ctx context.Context) error {
	return s.answerDialog(ctx, page.HandleJavaScriptDialog(false))
}

// PromptDialog types text into the open prompt dialog and accepts it.
func (s *Session) PromptDialog(ctx context.Context, text string) error {
	return s.answerDialog(ctx, page.HandleJavaScriptDialog(true).WithPromptText(text))
}

func (s *Session) answerDialog(ctx context.Context, answer *page.HandleJavaScriptDialogParams) error {
	if s.openDialog() == nil {
		return schemas.ErrNoDialog
	}
	if err := s.run(ctx, s.actionTimeout(), answer); err != nil {
		return fmt.Errorf("failed to answer dialog: %w", err)
	}
	s.dialogMu.Lock()
	s.dialog = nil
	s.dialogMu.Unlock()
	return nil
}

// PageState reads the title, URL and serialized DOM of the tab.
func (s *Session) PageState(ctx context.Context) (*schemas.PageState, error) {
	if err := s.blockedByDialog(); err != nil {
		return nil, err
	}
	var state schemas.PageState
	err := s.run(ctx, s.actionTimeout(),
		chromedp.Title(&state.Title),
		chromedp.Location(&state.URL),
		chromedp.OuterHTML("html", &state.PageSource, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read page state: %w", err)
	}
	return &state, nil
}

// Screenshot captures the visible viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := s.blockedByDialog(); err != nil {
		return nil, err
	}
	var buf []byte
	if err := s.run(ctx, s.actionTimeout(), chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// requireElement fails fast with schemas.ErrElementNotFound instead of
// letting the query poll until the action timeout.
func (s *Session) requireElement(ctx context.Context, selector string) error {
	var nodes []*cdp.Node
	if err := s.run(ctx, s.actionTimeout(), chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return schemas.ErrElementNotFound
	}
	return nil
}
