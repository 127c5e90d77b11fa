// File: internal/agent/plain.go
package agent

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/actions"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CallSummary renders a function call the way transcripts show it.
func CallSummary(call schemas.FunctionCallPart) string {
	return "Calling tool: " + actions.FormatCall(call.Name, call.Args)
}

// plainCallParts replaces a function call with text, so that plain mode never
// leaves an unanswered call in the history.
func plainCallParts(call schemas.FunctionCallPart, result schemas.ActionResult) []schemas.Part {
	return []schemas.Part{
		schemas.TextPart{Text: CallSummary(call)},
		schemas.TextPart{Text: outcomeText(result)},
	}
}

func outcomeText(result schemas.ActionResult) string {
	if result.Failed() {
		return fmt.Sprintf("Tool %s failed: %s", result.Name, result.Error)
	}
	payload, err := json.Marshal(result.Response())
	if err != nil {
		return fmt.Sprintf("Tool %s succeeded.", result.Name)
	}
	return fmt.Sprintf("Tool %s returned: %s", result.Name, payload)
}
