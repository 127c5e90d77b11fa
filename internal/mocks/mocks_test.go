package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/service"
)

// Compile-time checks that the mocks satisfy the interfaces they stand in for.
var (
	_ schemas.ModelClient      = (*MockModelClient)(nil)
	_ schemas.Browser          = (*MockBrowser)(nil)
	_ schemas.BrowserSession   = (*MockBrowserSession)(nil)
	_ schemas.BrowserManager   = (*MockBrowserManager)(nil)
	_ service.ComponentFactory = (*MockComponentFactory)(nil)
)

func TestMockModelClient_SnapshotsHistory(t *testing.T) {
	client := new(MockModelClient)
	history := []schemas.Content{schemas.NewUserText("q")}
	client.On("Generate", mock.Anything, []schemas.Content{schemas.NewUserText("q")}, mock.Anything).
		Return(&schemas.ModelResponse{}, nil).Once()

	resp, err := client.Generate(context.Background(), history, nil)
	require.NoError(t, err)
	assert.NotNil(t, resp)

	history[0].Parts[0] = schemas.TextPart{Text: "changed"}
	call := client.Calls[0]
	assert.Equal(t, schemas.NewUserText("q"), call.Arguments.Get(1).([]schemas.Content)[0])
	client.AssertExpectations(t)
}

func TestMockBrowser_NilReturns(t *testing.T) {
	b := new(MockBrowser)
	b.On("PageState", mock.Anything).Return(nil, assert.AnError)
	b.On("Screenshot", mock.Anything).Return(nil, assert.AnError)

	state, err := b.PageState(context.Background())
	assert.Nil(t, state)
	assert.ErrorIs(t, err, assert.AnError)

	data, err := b.Screenshot(context.Background())
	assert.Nil(t, data)
	assert.ErrorIs(t, err, assert.AnError)
}
