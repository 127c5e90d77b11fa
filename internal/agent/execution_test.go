// File: internal/agent/execution_test.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/actions"
	"github.com/xkilldash9x/browsepilot/internal/config"
	"github.com/xkilldash9x/browsepilot/internal/mocks"
)

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake")

type harness struct {
	exec    *Execution
	model   *mocks.MockModelClient
	browser *mocks.MockBrowser
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, mode config.ContentMode) *harness {
	t.Helper()
	registry, err := actions.NewStandardRegistry(config.ActionConfig{})
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	h := &harness{
		model:   new(mocks.MockModelClient),
		browser: new(mocks.MockBrowser),
		logs:    logs,
	}

	cfg := config.NewDefaultConfig().Execution
	cfg.ContentMode = mode
	h.exec, err = NewExecution("find the example domain", Dependencies{
		Model:    h.model,
		Actions:  registry,
		Executor: actions.NewExecutor(logger),
		Browser:  h.browser,
	}, cfg, logger)
	require.NoError(t, err)
	return h
}

func (h *harness) respond(parts ...schemas.Part) {
	h.model.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&schemas.ModelResponse{Parts: parts}, nil).Once()
}

// sentHistory returns the history passed on the n-th model call.
func (h *harness) sentHistory(t *testing.T, n int) []schemas.Content {
	t.Helper()
	require.Greater(t, len(h.model.Calls), n)
	return h.model.Calls[n].Arguments.Get(1).([]schemas.Content)
}

func call(name string, args map[string]any) schemas.FunctionCallPart {
	if args == nil {
		args = map[string]any{}
	}
	return schemas.FunctionCallPart{Name: name, Args: args}
}

func examplePage() *schemas.PageState {
	return &schemas.PageState{Title: "Example Domain", URL: "https://example.com/", PageSource: "<html></html>"}
}

func TestExecution_HappyPath(t *testing.T) {
	h := newHarness(t, config.ContentModeRich)
	ctx := context.Background()

	h.browser.On("Navigate", mock.Anything, "https://example.com").Return(nil).Once()
	h.browser.On("PageState", mock.Anything).Return(examplePage(), nil).Once()
	h.browser.On("Screenshot", mock.Anything).Return(fakePNG, nil).Once()

	h.respond(call("get", map[string]any{"url": "https://example.com"}))
	step, err := h.exec.Start(ctx)
	require.NoError(t, err)
	assert.False(t, step.Final)
	require.Len(t, step.Results, 1)
	assert.Equal(t, "Example Domain", step.Results[0].Payload["title"])
	assert.Equal(t, StateAwaitingUserInput, h.exec.State())

	// The first request carries only the query, and the declarations.
	assert.Equal(t, []schemas.Content{schemas.NewUserText("find the example domain")}, h.sentHistory(t, 0))
	assert.Len(t, h.model.Calls[0].Arguments.Get(2).([]schemas.ActionDescriptor), 12)

	h.respond(schemas.TextPart{Text: "The page is open."}, call("done", nil))
	step, err = h.exec.Resume(ctx, "")
	require.NoError(t, err)
	assert.True(t, step.Final)
	assert.Equal(t, StateTerminated, h.exec.State())
	assert.Equal(t, 2, h.exec.StepCount())

	// The continuation turn: screenshot, default message, one result per call.
	sent := h.sentHistory(t, 1)
	require.Len(t, sent, 3)
	want := schemas.Content{Role: schemas.RoleUser, Parts: []schemas.Part{
		schemas.InlineBinaryPart{MIMEType: "image/png", Data: fakePNG},
		schemas.TextPart{Text: config.DefaultContinuationMessage},
		schemas.FunctionResultPart{Name: "get", Response: map[string]any{
			"title": "Example Domain", "url": "https://example.com/", "page_source": "<html></html>",
		}},
	}}
	if diff := cmp.Diff(want, sent[2]); diff != "" {
		t.Errorf("continuation turn mismatch (-want +got):\n%s", diff)
	}

	history := h.exec.History()
	require.Len(t, history, 4)
	assert.Equal(t, step.Turn, history[3])

	_, err = h.exec.Resume(ctx, "more")
	assert.ErrorIs(t, err, schemas.ErrExecutionTerminated)
	h.model.AssertNumberOfCalls(t, "Generate", 2)
	h.browser.AssertExpectations(t)
}

func TestExecution_StopActionFinishesDispatch(t *testing.T) {
	h := newHarness(t, config.ContentModeRich)
	h.browser.On("Back", mock.Anything).Return(nil).Once()
	h.browser.On("PageState", mock.Anything).Return(examplePage(), nil).Once()

	h.respond(call("done", nil), call("back", nil))
	step, err := h.exec.Start(context.Background())
	require.NoError(t, err)

	assert.True(t, step.Final)
	require.Len(t, step.Results, 2)
	assert.Equal(t, "done", step.Results[0].Name)
	assert.Equal(t, "back", step.Results[1].Name)
	h.browser.AssertExpectations(t)
}

func TestExecution_DoneStopsWithCustomStopActions(t *testing.T) {
	registry, err := actions.NewStandardRegistry(config.ActionConfig{})
	require.NoError(t, err)
	model := new(mocks.MockModelClient)
	model.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&schemas.ModelResponse{Parts: []schemas.Part{call("done", nil)}}, nil).Once()

	cfg := config.NewDefaultConfig().Execution
	cfg.StopActions = []string{"back"}
	require.NoError(t, cfg.Validate())

	exec, err := NewExecution("q", Dependencies{
		Model:    model,
		Actions:  registry,
		Executor: actions.NewExecutor(zap.NewNop()),
		Browser:  new(mocks.MockBrowser),
	}, cfg, zap.NewNop())
	require.NoError(t, err)

	step, err := exec.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, step.Final)
	assert.Equal(t, StateTerminated, exec.State())
	model.AssertNumberOfCalls(t, "Generate", 1)
}

func TestExecution_FailureContainment(t *testing.T) {
	h := newHarness(t, config.ContentModeRich)
	notFound := fmt.Errorf("click action failed for selector '#missing': %w", schemas.ErrElementNotFound)
	h.browser.On("Click", mock.Anything, "#missing").Return(notFound).Once()
	h.browser.On("Screenshot", mock.Anything).Return(fakePNG, nil).Once()

	h.respond(call("click", map[string]any{"css_selector": "#missing"}))
	step, err := h.exec.Start(context.Background())
	require.NoError(t, err)
	require.Len(t, step.Results, 1)
	assert.True(t, step.Results[0].Failed())
	assert.Equal(t, schemas.ErrCodeElementNotFound, step.Results[0].Code)

	h.respond(call("done", nil))
	step, err = h.exec.Resume(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, step.Final)

	sent := h.sentHistory(t, 1)
	last := sent[len(sent)-1]
	assert.Equal(t, schemas.FunctionResultPart{
		Name:     "click",
		Response: map[string]any{"error": notFound.Error()},
	}, last.Parts[2])
}

func TestExecution_FatalErrors(t *testing.T) {
	modelErr := errors.New("quota exhausted")

	tests := []struct {
		name   string
		setup  func(h *harness)
		assert func(t *testing.T, err error)
	}{
		{
			name:  "unknown action",
			setup: func(h *harness) { h.respond(call("fly", nil)) },
			assert: func(t *testing.T, err error) {
				var unknown *schemas.UnknownActionError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, "fly", unknown.Name)
			},
		},
		{
			name: "function result from the model",
			setup: func(h *harness) {
				h.respond(schemas.TextPart{Text: "hm"}, schemas.FunctionResultPart{Name: "get"})
			},
			assert: func(t *testing.T, err error) {
				var malformed *schemas.MalformedResponseError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, 1, malformed.Index)
			},
		},
		{
			name:  "inline binary from the model",
			setup: func(h *harness) { h.respond(schemas.InlineBinaryPart{MIMEType: "image/png"}) },
			assert: func(t *testing.T, err error) {
				var malformed *schemas.MalformedResponseError
				require.ErrorAs(t, err, &malformed)
			},
		},
		{
			name:  "empty response",
			setup: func(h *harness) { h.respond() },
			assert: func(t *testing.T, err error) {
				var malformed *schemas.MalformedResponseError
				require.ErrorAs(t, err, &malformed)
			},
		},
		{
			name: "model error propagates unchanged",
			setup: func(h *harness) {
				h.model.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, modelErr).Once()
			},
			assert: func(t *testing.T, err error) {
				assert.Same(t, modelErr, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, config.ContentModeRich)
			tt.setup(h)

			_, err := h.exec.Start(context.Background())
			require.Error(t, err)
			tt.assert(t, err)
			assert.Equal(t, StateTerminated, h.exec.State())

			_, err = h.exec.Resume(context.Background(), "")
			assert.ErrorIs(t, err, schemas.ErrExecutionTerminated)
			h.model.AssertNumberOfCalls(t, "Generate", 1)
			assert.Len(t, h.exec.History(), 1, "no AGENT turn is recorded for a failed step")
		})
	}
}

func TestExecution_ScreenshotFailureOmitsImage(t *testing.T) {
	h := newHarness(t, config.ContentModeRich)
	h.browser.On("Screenshot", mock.Anything).Return(nil, errors.New("dialog open")).Once()

	h.respond(schemas.TextPart{Text: "Which site?"})
	_, err := h.exec.Start(context.Background())
	require.NoError(t, err)

	h.respond(call("done", nil))
	_, err = h.exec.Resume(context.Background(), "example.com")
	require.NoError(t, err)

	sent := h.sentHistory(t, 1)
	assert.Equal(t, schemas.NewUserText("example.com"), sent[2])
	assert.Equal(t, 1, h.logs.FilterMessage("Screenshot failed, continuing without it.").Len())
}

func TestExecution_PlainMode(t *testing.T) {
	h := newHarness(t, config.ContentModePlain)
	h.browser.On("Navigate", mock.Anything, "example.com").Return(nil).Once()
	h.browser.On("PageState", mock.Anything).Return(examplePage(), nil).Once()

	h.respond(call("get", map[string]any{"url": "example.com"}))
	step, err := h.exec.Start(context.Background())
	require.NoError(t, err)

	require.Len(t, step.Turn.Parts, 2)
	assert.Equal(t, schemas.TextPart{Text: "Calling tool: get(url=example.com)"}, step.Turn.Parts[0])
	outcome := step.Turn.Parts[1].(schemas.TextPart).Text
	assert.Contains(t, outcome, "Tool get returned:")
	assert.Contains(t, outcome, `"title":"Example Domain"`)
	assert.Empty(t, step.Turn.FunctionCalls())

	h.respond(call("done", nil))
	_, err = h.exec.Resume(context.Background(), "thanks")
	require.NoError(t, err)

	sent := h.sentHistory(t, 1)
	assert.Equal(t, schemas.NewUserText("thanks"), sent[2])
	h.browser.AssertNotCalled(t, "Screenshot", mock.Anything)
}

func TestExecution_Lifecycle(t *testing.T) {
	h := newHarness(t, config.ContentModeRich)
	assert.NotEmpty(t, h.exec.ID())
	assert.Equal(t, StateAwaitingModel, h.exec.State())

	_, err := h.exec.Resume(context.Background(), "")
	assert.ErrorContains(t, err, "cannot resume")

	h.respond(schemas.TextPart{Text: "hello"})
	_, err = h.exec.Start(context.Background())
	require.NoError(t, err)

	_, err = h.exec.Start(context.Background())
	assert.ErrorContains(t, err, "already started")

	// History returns a copy.
	history := h.exec.History()
	history[0].Parts[0] = schemas.TextPart{Text: "tampered"}
	assert.Equal(t, schemas.NewUserText("find the example domain"), h.exec.History()[0])
}

func TestNewExecution_RequiresDependencies(t *testing.T) {
	_, err := NewExecution("q", Dependencies{}, config.ExecutionConfig{}, zap.NewNop())
	assert.ErrorContains(t, err, "model client is required")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AWAITING_MODEL", StateAwaitingModel.String())
	assert.Equal(t, "DISPATCHING_ACTIONS", StateDispatchingActions.String())
	assert.Equal(t, "AWAITING_USER_INPUT", StateAwaitingUserInput.String())
	assert.Equal(t, "TERMINATED", StateTerminated.String())
	assert.Equal(t, "State(9)", State(9).String())
}
