// File: internal/agent/execution.go
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/actions"
	"github.com/xkilldash9x/browsepilot/internal/config"
)

// State is the position of an Execution in its step cycle.
type State int

const (
	StateAwaitingModel State = iota
	StateDispatchingActions
	StateAwaitingUserInput
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AWAITING_MODEL"
	case StateDispatchingActions:
		return "DISPATCHING_ACTIONS"
	case StateAwaitingUserInput:
		return "AWAITING_USER_INPUT"
	case StateTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ActionCatalog resolves action names and lists the declarations sent to the model.
type ActionCatalog interface {
	Resolve(name string) (actions.Action, error)
	Declarations() []schemas.ActionDescriptor
}

// ActionInvoker runs a resolved action against the browser.
type ActionInvoker interface {
	Invoke(ctx context.Context, action actions.Action, browser schemas.Browser, args map[string]any) schemas.ActionResult
}

// Dependencies are the collaborators an Execution drives. They outlive it.
type Dependencies struct {
	Model    schemas.ModelClient
	Actions  ActionCatalog
	Executor ActionInvoker
	Browser  schemas.Browser
}

func (d Dependencies) validate() error {
	switch {
	case d.Model == nil:
		return errors.New("model client is required")
	case d.Actions == nil:
		return errors.New("action catalog is required")
	case d.Executor == nil:
		return errors.New("action executor is required")
	case d.Browser == nil:
		return errors.New("browser is required")
	}
	return nil
}

// Step is what one model round trip yields to the caller.
type Step struct {
	// Turn is the AGENT turn just appended to the history.
	Turn schemas.Content
	// Final is set when the execution has terminated with this turn.
	Final bool
	// Results holds one entry per action invoked, in call order.
	Results []schemas.ActionResult
}

// Execution runs one query as a suspendable loop: each Start or Resume call
// performs exactly one model call, dispatches the requested actions and then
// suspends until the caller resumes it.
type Execution struct {
	id     string
	deps   Dependencies
	cfg    config.ExecutionConfig
	logger *zap.Logger

	history     schemas.History
	state       State
	steps       int
	lastResults []schemas.ActionResult
}

// NewExecution seeds the history with the query as the opening USER turn.
func NewExecution(query string, deps Dependencies, cfg config.ExecutionConfig, logger *zap.Logger) (*Execution, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if cfg.ContentMode == "" {
		cfg.ContentMode = config.ContentModeRich
	}
	if cfg.DefaultMessage == "" {
		cfg.DefaultMessage = config.DefaultContinuationMessage
	}

	id := uuid.New().String()
	e := &Execution{
		id:     id,
		deps:   deps,
		cfg:    cfg,
		logger: logger.Named("execution").With(zap.String("execution_id", id)),
		state:  StateAwaitingModel,
	}
	if err := e.history.Append(schemas.NewUserText(query)); err != nil {
		return nil, err
	}
	return e, nil
}

// ID returns the execution identifier.
func (e *Execution) ID() string { return e.id }

// State returns the current state.
func (e *Execution) State() State { return e.state }

// StepCount returns the number of model calls made so far.
func (e *Execution) StepCount() int { return e.steps }

// History returns a copy of the conversation so far.
func (e *Execution) History() []schemas.Content { return e.history.Turns() }

// Start runs the first step.
func (e *Execution) Start(ctx context.Context) (Step, error) {
	if e.state == StateTerminated {
		return Step{}, schemas.ErrExecutionTerminated
	}
	if e.steps > 0 || e.state != StateAwaitingModel {
		return Step{}, fmt.Errorf("execution %s already started (state %s)", e.id, e.state)
	}
	e.logger.Info("Execution started.", zap.String("content_mode", string(e.cfg.ContentMode)))
	return e.step(ctx)
}

// Resume sends the next USER turn and runs one step. An empty input is
// replaced by the configured default message.
func (e *Execution) Resume(ctx context.Context, input string) (Step, error) {
	if e.state == StateTerminated {
		return Step{}, schemas.ErrExecutionTerminated
	}
	if e.state != StateAwaitingUserInput {
		return Step{}, fmt.Errorf("execution %s cannot resume in state %s", e.id, e.state)
	}

	if err := e.history.Append(e.userTurn(ctx, input)); err != nil {
		return Step{}, e.terminate(err)
	}
	e.state = StateAwaitingModel
	return e.step(ctx)
}

func (e *Execution) step(ctx context.Context) (Step, error) {
	e.steps++
	logger := e.logger.With(zap.Int("step", e.steps))

	resp, err := e.deps.Model.Generate(ctx, e.history.Turns(), e.deps.Actions.Declarations())
	if err != nil {
		return Step{}, e.terminate(err)
	}
	if resp == nil || len(resp.Parts) == 0 {
		return Step{}, e.terminate(&schemas.MalformedResponseError{Index: 0, Reason: "response has no parts"})
	}

	e.state = StateDispatchingActions
	turn := schemas.Content{Role: schemas.RoleAgent}
	var results []schemas.ActionResult
	final := false

	for i, part := range resp.Parts {
		switch p := part.(type) {
		case schemas.TextPart:
			turn.Parts = append(turn.Parts, p)

		case schemas.FunctionCallPart:
			action, err := e.deps.Actions.Resolve(p.Name)
			if err != nil {
				return Step{}, e.terminate(err)
			}
			logger.Debug("Dispatching action.", zap.String("action", p.Name), zap.Any("args", p.Args))
			result := e.deps.Executor.Invoke(ctx, action, e.deps.Browser, p.Args)
			results = append(results, result)

			if e.cfg.ContentMode == config.ContentModePlain {
				turn.Parts = append(turn.Parts, plainCallParts(p, result)...)
			} else {
				turn.Parts = append(turn.Parts, p)
			}
			// Remaining parts are still dispatched after a stop action.
			if e.cfg.IsStopAction(p.Name) {
				final = true
			}

		default:
			return Step{}, e.terminate(&schemas.MalformedResponseError{
				Index:  i,
				Reason: fmt.Sprintf("unexpected %s part in a model turn", partKind(part)),
			})
		}
	}

	if err := e.history.Append(turn); err != nil {
		return Step{}, e.terminate(err)
	}
	e.lastResults = results
	appended, _ := e.history.Last()

	if final {
		e.state = StateTerminated
		logger.Info("Execution finished.", zap.Int("turns", e.history.Len()))
		return Step{Turn: appended, Final: true, Results: results}, nil
	}

	e.state = StateAwaitingUserInput
	return Step{Turn: appended, Results: results}, nil
}

// userTurn builds the USER turn answering the previous step.
func (e *Execution) userTurn(ctx context.Context, input string) schemas.Content {
	text := input
	if text == "" {
		text = e.cfg.DefaultMessage
	}

	if e.cfg.ContentMode == config.ContentModePlain {
		return schemas.NewUserText(text)
	}

	turn := schemas.Content{Role: schemas.RoleUser}
	if png, err := e.deps.Browser.Screenshot(ctx); err != nil {
		e.logger.Warn("Screenshot failed, continuing without it.", zap.Error(err))
	} else if len(png) > 0 {
		turn.Parts = append(turn.Parts, schemas.InlineBinaryPart{MIMEType: "image/png", Data: png})
	}
	turn.Parts = append(turn.Parts, schemas.TextPart{Text: text})
	for _, r := range e.lastResults {
		turn.Parts = append(turn.Parts, r.AsPart())
	}
	return turn
}

func (e *Execution) terminate(err error) error {
	e.state = StateTerminated
	e.logger.Error("Execution terminated.", zap.Error(err))
	return err
}

func partKind(p schemas.Part) string {
	switch p.(type) {
	case schemas.FunctionResultPart:
		return "function result"
	case schemas.InlineBinaryPart:
		return "inline binary"
	default:
		return fmt.Sprintf("%T", p)
	}
}
