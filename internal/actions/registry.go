// internal/actions/registry.go
package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/browsepilot/api/schemas"
)

// Handler performs one action against the browser and returns its success payload.
type Handler func(ctx context.Context, browser schemas.Browser, args Arguments) (map[string]any, error)

// Action is a registered capability: its declaration, implementation and the
// pause applied once it has run.
type Action struct {
	Descriptor  schemas.ActionDescriptor
	Handler     Handler
	SettleDelay time.Duration
}

// Name returns the action name.
func (a Action) Name() string { return a.Descriptor.Name }

// Registry maps action names to actions and preserves registration order for
// the tool declarations. It is populated at startup and only read afterwards.
type Registry struct {
	actions map[string]Action
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds one action. The settle delay is optional; at most one value is used.
func (r *Registry) Register(descriptor schemas.ActionDescriptor, handler Handler, settle ...time.Duration) error {
	if descriptor.Name == "" {
		return fmt.Errorf("action name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("action %q has no handler", descriptor.Name)
	}
	if _, exists := r.actions[descriptor.Name]; exists {
		return &schemas.DuplicateActionError{Name: descriptor.Name}
	}

	action := Action{Descriptor: descriptor, Handler: handler}
	if len(settle) > 0 {
		action.SettleDelay = settle[0]
	}
	r.actions[descriptor.Name] = action
	r.order = append(r.order, descriptor.Name)
	return nil
}

// Resolve returns the action registered under name.
func (r *Registry) Resolve(name string) (Action, error) {
	action, ok := r.actions[name]
	if !ok {
		return Action{}, &schemas.UnknownActionError{Name: name}
	}
	return action, nil
}

// Declarations returns the descriptors in registration order.
func (r *Registry) Declarations() []schemas.ActionDescriptor {
	out := make([]schemas.ActionDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.actions[name].Descriptor)
	}
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports how many actions are registered.
func (r *Registry) Len() int { return len(r.order) }
