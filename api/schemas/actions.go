package schemas

// ParamType is the JSON-schema type of an action parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// ParameterSchema describes one named argument of an action.
type ParameterSchema struct {
	Type        ParamType        `json:"type" yaml:"type"`
	Description string           `json:"description" yaml:"description"`
	Required    bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Items       *ParameterSchema `json:"items,omitempty" yaml:"items,omitempty"`
}

// ActionDescriptor is the tool declaration advertised to the model.
type ActionDescriptor struct {
	Name        string                     `json:"name" yaml:"name"`
	Description string                     `json:"description" yaml:"description"`
	Parameters  map[string]ParameterSchema `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// RequiredParameters returns the names of the required parameters.
func (d ActionDescriptor) RequiredParameters() []string {
	var names []string
	for name, p := range d.Parameters {
		if p.Required {
			names = append(names, name)
		}
	}
	return names
}

// ErrorCode classifies a failed action for logs and callers.
type ErrorCode string

const (
	ErrCodeExecutionFailure  ErrorCode = "EXECUTION_FAILURE"
	ErrCodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"
	ErrCodeElementNotFound   ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeTimeoutError      ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNavigationError   ErrorCode = "NAVIGATION_ERROR"
	ErrCodeExecutorPanic     ErrorCode = "EXECUTOR_PANIC"
)

// ActionResult is the outcome of one invocation. Exactly one of Payload or
// Error is meaningful, as reported by Failed.
type ActionResult struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    ErrorCode      `json:"code,omitempty"`
}

// Failed reports whether the invocation failed.
func (r ActionResult) Failed() bool { return r.Error != "" }

// Response is the mapping handed back to the model for this result.
func (r ActionResult) Response() map[string]any {
	if r.Failed() {
		return map[string]any{"error": r.Error}
	}
	if r.Payload == nil {
		return map[string]any{}
	}
	return r.Payload
}

// AsPart wraps the result as a function result part.
func (r ActionResult) AsPart() FunctionResultPart {
	return FunctionResultPart{Name: r.Name, Response: r.Response()}
}
