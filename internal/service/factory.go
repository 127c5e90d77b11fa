// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/actions"
	"github.com/xkilldash9x/browsepilot/internal/browser"
	"github.com/xkilldash9x/browsepilot/internal/config"
	"github.com/xkilldash9x/browsepilot/internal/llmclient"
)

// ComponentFactory creates the components a run needs. The run command
// depends on this interface so it can be tested without a browser or model.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error)
}

// BrowserLauncher starts a browser manager. Production code uses
// browser.NewManager.
type BrowserLauncher func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (schemas.BrowserManager, error)

// ModelFactory creates the model client. Production code uses llmclient.NewClient.
type ModelFactory func(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (schemas.ModelClient, error)

type concreteFactory struct {
	launchBrowser BrowserLauncher
	newModel      ModelFactory
}

// NewComponentFactory creates the production component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{
		launchBrowser: func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (schemas.BrowserManager, error) {
			return browser.NewManager(ctx, cfg, logger)
		},
		newModel: llmclient.NewClient,
	}
}

// Create wires the model client, the action registry and executor, and a
// browser session. Components created before a failure are shut down.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	components := &Components{logger: logger}

	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			_ = components.Shutdown(ctx)
		}
	}()

	// 1. Model client. Cheap to create, and it validates the credentials
	// before a browser is launched.
	model, err := f.newModel(ctx, cfg.Agent.Model, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize model client: %w", err)
		return nil, initializationErr
	}
	components.Model = model
	logger.Debug("Model client initialized.", zap.String("provider", string(cfg.Agent.Model.Provider)))

	// 2. Actions
	registry, err := actions.NewStandardRegistry(cfg.Action)
	if err != nil {
		initializationErr = fmt.Errorf("failed to build action registry: %w", err)
		return nil, initializationErr
	}
	components.Registry = registry
	components.Executor = actions.NewExecutor(logger)
	logger.Debug("Action registry initialized.", zap.Strings("actions", registry.Names()))

	// 3. Browser
	manager, err := f.launchBrowser(ctx, cfg.Browser, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize browser manager: %w", err)
		return nil, initializationErr
	}
	components.Browser = manager

	session, err := manager.NewSession(ctx)
	if err != nil {
		initializationErr = fmt.Errorf("failed to open browser session: %w", err)
		return nil, initializationErr
	}
	components.Session = session
	logger.Debug("Browser session ready.", zap.String("session_id", session.ID()))

	return components, nil
}
