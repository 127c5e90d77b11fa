package actions

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/config"
)

// Standard action names.
const (
	ActionGet     = "get"
	ActionBack    = "back"
	ActionForward = "forward"
	ActionClick   = "click"
	ActionClear   = "clear"
	ActionSubmit  = "submit"
	ActionWrite   = "write"
	ActionSelect  = "select"
	ActionAccept  = "accept"
	ActionDismiss = "dismiss"
	ActionPrompt  = "prompt"
	ActionDone    = "done"
)

var (
	selectorParam = schemas.ParameterSchema{
		Type:        schemas.ParamString,
		Description: "CSS selector of the target element",
		Required:    true,
	}
	textParam = schemas.ParameterSchema{
		Type:        schemas.ParamString,
		Description: "Text to send",
		Required:    true,
	}
)

// pageReader turns the current page into the payload of navigation-like actions.
type pageReader struct {
	simplify  bool
	maxSource int
}

func (p pageReader) read(ctx context.Context, b schemas.Browser) (map[string]any, error) {
	state, err := b.PageState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page state: %w", err)
	}
	source := state.PageSource
	if p.simplify {
		if simplified, err := SimplifyHTML(source); err == nil {
			source = simplified
		}
	}
	return map[string]any{
		"title":       state.Title,
		"url":         state.URL,
		"page_source": truncate(source, p.maxSource),
	}, nil
}

// NewStandardRegistry registers the standard browser actions in the order
// they are advertised to the model.
func NewStandardRegistry(cfg config.ActionConfig) (*Registry, error) {
	pages := pageReader{simplify: cfg.SimplifyPageSource, maxSource: cfg.MaxPageSource}
	r := NewRegistry()

	type entry struct {
		descriptor schemas.ActionDescriptor
		handler    Handler
	}
	entries := []entry{
		{
			schemas.ActionDescriptor{
				Name:        ActionGet,
				Description: "Load a web page in the browser.",
				Parameters: map[string]schemas.ParameterSchema{
					"url": {Type: schemas.ParamString, Description: "URL to load", Required: true},
				},
			},
			func(ctx context.Context, b schemas.Browser, args Arguments) (map[string]any, error) {
				url, err := args.String("url")
				if err != nil {
					return nil, err
				}
				if err := b.Navigate(ctx, url); err != nil {
					return nil, err
				}
				return pages.read(ctx, b)
			},
		},
		{
			schemas.ActionDescriptor{Name: ActionBack, Description: "Go one step back in the browser history."},
			func(ctx context.Context, b schemas.Browser, _ Arguments) (map[string]any, error) {
				if err := b.Back(ctx); err != nil {
					return nil, err
				}
				return pages.read(ctx, b)
			},
		},
		{
			schemas.ActionDescriptor{Name: ActionForward, Description: "Go one step forward in the browser history."},
			func(ctx context.Context, b schemas.Browser, _ Arguments) (map[string]any, error) {
				if err := b.Forward(ctx); err != nil {
					return nil, err
				}
				return pages.read(ctx, b)
			},
		},
		{
			schemas.ActionDescriptor{
				Name:        ActionClick,
				Description: "Click on the element matching the CSS selector.",
				Parameters:  map[string]schemas.ParameterSchema{"css_selector": selectorParam},
			},
			func(ctx context.Context, b schemas.Browser, args Arguments) (map[string]any, error) {
				sel, err := args.String("css_selector")
				if err != nil {
					return nil, err
				}
				if err := b.Click(ctx, sel); err != nil {
					return nil, err
				}
				return pages.read(ctx, b)
			},
		},
		{
			schemas.ActionDescriptor{
				Name:        ActionClear,
				Description: "Clear the value of the input element matching the CSS selector.",
				Parameters:  map[string]schemas.ParameterSchema{"css_selector": selectorParam},
			},
			func(ctx context.Context, b schemas.Browser, args Arguments) (map[string]any, error) {
				sel, err := args.String("css_selector")
				if err != nil {
					return nil, err
				}
				if err := b.Clear(ctx, sel); err != nil {
					return nil, err
				}
				return map[string]any{"cleared": true}, nil
			},
		},
		{
			schemas.ActionDescriptor{
				Name:        ActionSubmit,
				Description: "Submit the form containing the element matching the CSS selector.",
				Parameters:  map[string]schemas.ParameterSchema{"css_selector": selectorParam},
			},
			func(ctx context.Context, b schemas.Browser, args Arguments) (map[string]any, error) {
				sel, err := args.String("css_selector")
				if err != nil {
					return nil, err
				}
				if err := b.Submit(ctx, sel); err != nil {
					return nil, err
				}
				return pages.read(ctx, b)
			},
		},
		{
			schemas.ActionDescriptor{
				Name:        ActionWrite,
				Description: "Write text into the element matching the CSS selector.",
				Parameters: map[string]schemas.ParameterSchema{
					"css_selector": selectorParam,
					"text":         {Type: schemas.ParamString, Description: "Text to write", Required: true},
				},
			},
			func(ctx context.Context, b schemas.Browser, args Arguments) (map[string]any, error) {
				sel, err := args.String("css_selector")
				if err != nil {
					return nil, err
				}
				text, err := args.String("text")
				if err != nil {
					return nil, err
				}
				if err := b.Write(ctx, sel, text); err != nil {
					return nil, err
				}
				return map[string]any{"wrote": true}, nil
			},
		},
		{
			schemas.ActionDescriptor{
				Name:        ActionSelect,
				Description: "Select the options with the given values in the select element matching the CSS selector.",
				Parameters: map[string]schemas.ParameterSchema{
					"css_selector": selectorParam,
					"values": {
						Type:        schemas.ParamArray,
						Description: "Values of the options to select",
						Required:    true,
						Items:       &schemas.ParameterSchema{Type: schemas.ParamString, Description: "Option value"},
					},
				},
			},
			func(ctx context.Context, b schemas.Browser, args Arguments) (map[string]any, error) {
				sel, err := args.String("css_selector")
				if err != nil {
					return nil, err
				}
				values, err := args.Strings("values")
				if err != nil {
					return nil, err
				}
				if err := b.Select(ctx, sel, values); err != nil {
					return nil, err
				}
				return map[string]any{"selected": true}, nil
			},
		},
		{
			schemas.ActionDescriptor{Name: ActionAccept, Description: "Accept the open alert, confirm or prompt dialog."},
			func(ctx context.Context, b schemas.Browser, _ Arguments) (map[string]any, error) {
				if err := b.AcceptDialog(ctx); err != nil {
					return nil, err
				}
				return map[string]any{"accepted": true}, nil
			},
		},
		{
			schemas.ActionDescriptor{Name: ActionDismiss, Description: "Dismiss the open alert, confirm or prompt dialog."},
			func(ctx context.Context, b schemas.Browser, _ Arguments) (map[string]any, error) {
				if err := b.DismissDialog(ctx); err != nil {
					return nil, err
				}
				return map[string]any{"dismissed": true}, nil
			},
		},
		{
			schemas.ActionDescriptor{
				Name:        ActionPrompt,
				Description: "Type text into the open prompt dialog and accept it.",
				Parameters:  map[string]schemas.ParameterSchema{"text": textParam},
			},
			func(ctx context.Context, b schemas.Browser, args Arguments) (map[string]any, error) {
				text, err := args.String("text")
				if err != nil {
					return nil, err
				}
				if err := b.PromptDialog(ctx, text); err != nil {
					return nil, err
				}
				return map[string]any{"prompted": true}, nil
			},
		},
		{
			schemas.ActionDescriptor{Name: ActionDone, Description: "Signal that the user request is complete."},
			func(context.Context, schemas.Browser, Arguments) (map[string]any, error) {
				return map[string]any{"done": true}, nil
			},
		},
	}

	for _, e := range entries {
		if err := r.Register(e.descriptor, e.handler, cfg.SettleDelays[e.descriptor.Name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}
