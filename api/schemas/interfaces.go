package schemas

import "context"

// -- Model Interface --

// ModelClient is the request/response boundary to the generative model. It is
// stateless across calls: every request carries the complete history.
//
//go:generate mockery --name ModelClient --output ../../internal/mocks --outpkg mocks
type ModelClient interface {
	// Generate sends the ordered history and tool declarations and returns the
	// first candidate's parts with usage and feedback metadata.
	Generate(ctx context.Context, history []Content, tools []ActionDescriptor) (*ModelResponse, error)
}

// -- Browser Interfaces --

// PageState is the snapshot returned by navigation-like actions.
type PageState struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	PageSource string `json:"page_source"`
}

// Browser is the live browser handle the standard actions operate on. Only one
// action runs against it at a time.
//
//go:generate mockery --name Browser --output ../../internal/mocks --outpkg mocks
type Browser interface {
	// Navigate loads url in the current tab.
	Navigate(ctx context.Context, url string) error
	// Back goes one step back in the tab history.
	Back(ctx context.Context) error
	// Forward goes one step forward in the tab history.
	Forward(ctx context.Context) error
	// Click clicks the first element matching the CSS selector.
	Click(ctx context.Context, selector string) error
	// Clear empties the value of the first matching input element.
	Clear(ctx context.Context, selector string) error
	// Submit submits the form owning the first matching element.
	Submit(ctx context.Context, selector string) error
	// Write types text into the first matching element.
	Write(ctx context.Context, selector, text string) error
	// Select marks the given option values as selected on a select element.
	Select(ctx context.Context, selector string, values []string) error
	// AcceptDialog accepts the JavaScript dialog currently open.
	AcceptDialog(ctx context.Context) error
	// DismissDialog dismisses the JavaScript dialog currently open.
	DismissDialog(ctx context.Context) error
	// PromptDialog answers the open prompt dialog with text and accepts it.
	PromptDialog(ctx context.Context, text string) error
	// PageState returns the title, URL and HTML source of the current page.
	PageState(ctx context.Context) (*PageState, error)
	// Screenshot captures the viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
}

// BrowserManager owns the browser process and hands out sessions.
type BrowserManager interface {
	// NewSession opens a new tab bound to the manager's browser.
	NewSession(ctx context.Context) (BrowserSession, error)
	// Shutdown stops the browser process unless it is configured to stay alive.
	Shutdown(ctx context.Context) error
}

// BrowserSession is a Browser that can be closed.
type BrowserSession interface {
	Browser
	ID() string
	Close(ctx context.Context) error
}
