//go:build cucumber

// File: internal/agent/execution_cucumber_test.go
package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/actions"
	"github.com/xkilldash9x/browsepilot/internal/config"
	"github.com/xkilldash9x/browsepilot/internal/mocks"
)

// TestExecutionFeatures runs the execution loop scenarios.
func TestExecutionFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "execution-loop",
		ScenarioInitializer: InitializeExecutionScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{filepath.Join("testdata", "execution.feature")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeExecutionScenario wires the steps of execution.feature.
func InitializeExecutionScenario(ctx *godog.ScenarioContext) {
	state := &executionScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^a browser showing the page "([^"]*)" at "([^"]*)"$`, state.givenBrowserPage)
	ctx.Step(`^no element matches "([^"]*)"$`, state.givenMissingElement)
	ctx.Step(`^the model will (?:then )?call "([^"]*)" with (\w+) "([^"]*)"$`, state.givenCallWithArg)
	ctx.Step(`^the model will (?:then )?call "([^"]*)"$`, state.givenCall)
	ctx.Step(`^the model will (?:then )?answer "([^"]*)" and call "([^"]*)"$`, state.givenTextAndCall)
	ctx.Step(`^the model will (?:then )?answer "([^"]*)"$`, state.givenText)
	ctx.Step(`^the execution starts for "([^"]*)"$`, state.whenStarted)
	ctx.Step(`^the user continues without input$`, state.whenContinued)
	ctx.Step(`^the execution is terminated$`, state.thenTerminated)
	ctx.Step(`^the model was called (\d+) times$`, state.thenModelCalls)
	ctx.Step(`^the last user turn holds a result for "([^"]*)" without an error$`, state.thenResultOK)
	ctx.Step(`^the last user turn holds a result for "([^"]*)" with an error containing "([^"]*)"$`, state.thenResultError)
	ctx.Step(`^the last user turn says the default continuation message$`, state.thenDefaultMessage)
}

type executionScenarioState struct {
	model   *scriptedModel
	browser *mocks.MockBrowser
	exec    *Execution
	step    Step
}

func (s *executionScenarioState) reset() {
	s.model = &scriptedModel{}
	s.browser = new(mocks.MockBrowser)
	s.browser.On("Screenshot", mock.Anything).Return([]byte("png"), nil).Maybe()
	s.exec = nil
	s.step = Step{}
}

func (s *executionScenarioState) givenBrowserPage(title, url string) error {
	page := &schemas.PageState{Title: title, URL: url, PageSource: "<html></html>"}
	s.browser.On("Navigate", mock.Anything, mock.Anything).Return(nil).Maybe()
	s.browser.On("PageState", mock.Anything).Return(page, nil).Maybe()
	return nil
}

func (s *executionScenarioState) givenMissingElement(selector string) error {
	err := fmt.Errorf("click action failed for selector '%s': %w", selector, schemas.ErrElementNotFound)
	s.browser.On("Click", mock.Anything, selector).Return(err).Maybe()
	return nil
}

func (s *executionScenarioState) script(parts ...schemas.Part) {
	s.model.responses = append(s.model.responses, parts)
}

func (s *executionScenarioState) givenCallWithArg(name, key, value string) error {
	s.script(call(name, map[string]any{key: value}))
	return nil
}

func (s *executionScenarioState) givenCall(name string) error {
	s.script(call(name, nil))
	return nil
}

func (s *executionScenarioState) givenTextAndCall(text, name string) error {
	s.script(schemas.TextPart{Text: text}, call(name, nil))
	return nil
}

func (s *executionScenarioState) givenText(text string) error {
	s.script(schemas.TextPart{Text: text})
	return nil
}

func (s *executionScenarioState) whenStarted(query string) error {
	registry, err := actions.NewStandardRegistry(config.ActionConfig{})
	if err != nil {
		return err
	}
	s.exec, err = NewExecution(query, Dependencies{
		Model:    s.model,
		Actions:  registry,
		Executor: actions.NewExecutor(zap.NewNop()),
		Browser:  s.browser,
	}, config.NewDefaultConfig().Execution, zap.NewNop())
	if err != nil {
		return err
	}
	s.step, err = s.exec.Start(context.Background())
	return err
}

func (s *executionScenarioState) whenContinued() error {
	var err error
	s.step, err = s.exec.Resume(context.Background(), "")
	return err
}

func (s *executionScenarioState) thenTerminated() error {
	if !s.step.Final || s.exec.State() != StateTerminated {
		return fmt.Errorf("expected a terminated execution, state is %s", s.exec.State())
	}
	return nil
}

func (s *executionScenarioState) thenModelCalls(n int) error {
	if s.model.calls != n {
		return fmt.Errorf("expected %d model calls, got %d", n, s.model.calls)
	}
	return nil
}

func (s *executionScenarioState) lastUserTurn() (schemas.Content, error) {
	turns := s.exec.History()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == schemas.RoleUser {
			return turns[i], nil
		}
	}
	return schemas.Content{}, fmt.Errorf("no user turn in history")
}

func (s *executionScenarioState) resultFor(name string) (schemas.FunctionResultPart, error) {
	turn, err := s.lastUserTurn()
	if err != nil {
		return schemas.FunctionResultPart{}, err
	}
	for _, p := range turn.Parts {
		if r, ok := p.(schemas.FunctionResultPart); ok && r.Name == name {
			return r, nil
		}
	}
	return schemas.FunctionResultPart{}, fmt.Errorf("no result for %q in the last user turn", name)
}

func (s *executionScenarioState) thenResultOK(name string) error {
	r, err := s.resultFor(name)
	if err != nil {
		return err
	}
	if _, failed := r.Response["error"]; failed {
		return fmt.Errorf("result for %q carries an error: %v", name, r.Response["error"])
	}
	return nil
}

func (s *executionScenarioState) thenResultError(name, fragment string) error {
	r, err := s.resultFor(name)
	if err != nil {
		return err
	}
	msg, _ := r.Response["error"].(string)
	if !strings.Contains(msg, fragment) {
		return fmt.Errorf("result error %q does not contain %q", msg, fragment)
	}
	return nil
}

func (s *executionScenarioState) thenDefaultMessage() error {
	turn, err := s.lastUserTurn()
	if err != nil {
		return err
	}
	for _, p := range turn.Parts {
		if t, ok := p.(schemas.TextPart); ok && t.Text == config.DefaultContinuationMessage {
			return nil
		}
	}
	return fmt.Errorf("the last user turn does not carry the default message")
}
