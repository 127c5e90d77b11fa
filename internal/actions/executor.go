// internal/actions/executor.go
package actions

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
)

// Executor invokes actions against the browser. Invoke never returns an error:
// every failure becomes a failure ActionResult so the model always gets an
// answer for each call it issued.
type Executor struct {
	logger *zap.Logger
	// sleep waits out settle delays; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor.
func NewExecutor(logger *zap.Logger) *Executor {
	return &Executor{
		logger: logger.Named("action_executor"),
		sleep:  sleepContext,
	}
}

// Invoke validates args, runs the handler and applies the settle delay.
func (e *Executor) Invoke(ctx context.Context, action Action, browser schemas.Browser, args map[string]any) (result schemas.ActionResult) {
	name := action.Name()
	result.Name = name

	if args == nil {
		args = map[string]any{}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Action handler panicked",
				zap.String("action", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			result = schemas.ActionResult{
				Name:  name,
				Error: fmt.Sprintf("action '%s' panicked: %v", name, r),
				Code:  schemas.ErrCodeExecutorPanic,
			}
		}
	}()

	if err := validateArguments(action.Descriptor, args); err != nil {
		return e.failure(name, args, err)
	}

	payload, err := action.Handler(ctx, browser, Arguments(args))
	if err != nil {
		return e.failure(name, args, err)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	if action.SettleDelay > 0 {
		e.logger.Debug("Waiting for page to settle", zap.String("action", name), zap.Duration("delay", action.SettleDelay))
		if err := e.sleep(ctx, action.SettleDelay); err != nil {
			e.logger.Debug("Settle delay interrupted", zap.String("action", name), zap.Error(err))
		}
	}

	e.logger.Debug("Action executed", zap.String("action", name))
	return schemas.ActionResult{Name: name, Payload: payload}
}

func (e *Executor) failure(name string, args map[string]any, err error) schemas.ActionResult {
	code := ClassifyError(err)
	e.logger.Error("Error while executing action",
		zap.String("action", name),
		zap.Any("args", args),
		zap.String("code", string(code)),
		zap.Error(err),
	)
	msg := err.Error()
	if msg == "" {
		msg = fallbackFailureMessage
	}
	return schemas.ActionResult{Name: name, Error: msg, Code: code}
}

// fallbackFailureMessage stands in for errors with an empty message, which
// would otherwise read as a success.
const fallbackFailureMessage = "action failed"

// ClassifyError maps a handler error to an ErrorCode.
func ClassifyError(err error) schemas.ErrorCode {
	var argErr *ArgumentError
	switch {
	case errors.As(err, &argErr):
		return schemas.ErrCodeInvalidParameters
	case errors.Is(err, schemas.ErrElementNotFound):
		return schemas.ErrCodeElementNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return schemas.ErrCodeTimeoutError
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout"):
		return schemas.ErrCodeTimeoutError
	case strings.Contains(msg, "net::ERR") || strings.Contains(msg, "navigation"):
		return schemas.ErrCodeNavigationError
	}
	return schemas.ErrCodeExecutionFailure
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
