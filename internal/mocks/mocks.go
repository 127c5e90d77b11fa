// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/config"
	"github.com/xkilldash9x/browsepilot/internal/service"
)

// -- Model Client Mock --

// MockModelClient mocks the schemas.ModelClient interface.
type MockModelClient struct {
	mock.Mock
}

// Generate records the call. The history is copied so later appends by the
// caller do not change what the assertion sees.
func (m *MockModelClient) Generate(ctx context.Context, history []schemas.Content, tools []schemas.ActionDescriptor) (*schemas.ModelResponse, error) {
	snapshot := make([]schemas.Content, len(history))
	for i, c := range history {
		snapshot[i] = c.Clone()
	}
	args := m.Called(ctx, snapshot, tools)
	var resp *schemas.ModelResponse
	if r := args.Get(0); r != nil {
		resp = r.(*schemas.ModelResponse)
	}
	return resp, args.Error(1)
}

// -- Browser Mocks --

// MockBrowser mocks the schemas.Browser interface.
type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockBrowser) Back(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBrowser) Forward(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBrowser) Click(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockBrowser) Clear(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockBrowser) Submit(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockBrowser) Write(ctx context.Context, selector, text string) error {
	return m.Called(ctx, selector, text).Error(0)
}

func (m *MockBrowser) Select(ctx context.Context, selector string, values []string) error {
	return m.Called(ctx, selector, values).Error(0)
}

func (m *MockBrowser) AcceptDialog(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBrowser) DismissDialog(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBrowser) PromptDialog(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockBrowser) PageState(ctx context.Context) (*schemas.PageState, error) {
	args := m.Called(ctx)
	var state *schemas.PageState
	if s := args.Get(0); s != nil {
		state = s.(*schemas.PageState)
	}
	return state, args.Error(1)
}

func (m *MockBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var data []byte
	if d := args.Get(0); d != nil {
		data = d.([]byte)
	}
	return data, args.Error(1)
}

// MockBrowserSession mocks schemas.BrowserSession.
type MockBrowserSession struct {
	MockBrowser
}

func (m *MockBrowserSession) ID() string {
	return m.Called().String(0)
}

func (m *MockBrowserSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockBrowserManager mocks schemas.BrowserManager.
type MockBrowserManager struct {
	mock.Mock
}

func (m *MockBrowserManager) NewSession(ctx context.Context) (schemas.BrowserSession, error) {
	args := m.Called(ctx)
	var s schemas.BrowserSession
	if v := args.Get(0); v != nil {
		s = v.(schemas.BrowserSession)
	}
	return s, args.Error(1)
}

func (m *MockBrowserManager) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Component Factory Mock --

// MockComponentFactory mocks service.ComponentFactory.
type MockComponentFactory struct {
	mock.Mock
}

func (m *MockComponentFactory) Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.Components, error) {
	args := m.Called(ctx, cfg, logger)
	var c *service.Components
	if v := args.Get(0); v != nil {
		c = v.(*service.Components)
	}
	return c, args.Error(1)
}
