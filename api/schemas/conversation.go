package schemas

import "fmt"

// Role identifies whose utterance a turn is.
type Role string

const (
	// RoleUser marks turns produced by the user or by the loop on the user's behalf.
	RoleUser Role = "user"
	// RoleAgent marks turns produced by the model. The value matches the wire role
	// the Gemini API expects.
	RoleAgent Role = "model"
)

// Part is one unit within a turn. The set of variants is closed: only the types
// in this file implement it.
type Part interface {
	isPart()
}

// TextPart carries free text.
type TextPart struct {
	Text string `json:"text"`
}

// FunctionCallPart is a model request to invoke a named action.
type FunctionCallPart struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResultPart answers a FunctionCallPart with the action's outcome.
type FunctionResultPart struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// InlineBinaryPart embeds raw bytes, typically a PNG screenshot.
type InlineBinaryPart struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

func (TextPart) isPart()           {}
func (FunctionCallPart) isPart()   {}
func (FunctionResultPart) isPart() {}
func (InlineBinaryPart) isPart()   {}

// Content is one role-tagged turn of the conversation.
type Content struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewUserText builds a USER turn holding a single text part.
func NewUserText(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// Clone returns a copy of the turn whose part slice is not shared with c.
func (c Content) Clone() Content {
	parts := make([]Part, len(c.Parts))
	copy(parts, c.Parts)
	return Content{Role: c.Role, Parts: parts}
}

// FunctionCalls returns the function call parts of the turn, in order.
func (c Content) FunctionCalls() []FunctionCallPart {
	var calls []FunctionCallPart
	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

// History is the append-only, strictly alternating conversation of one execution.
type History struct {
	turns []Content
}

// Append adds a turn. It refuses a turn with the same role as the previous one,
// and refuses an AGENT turn as the opening turn.
func (h *History) Append(turn Content) error {
	if len(h.turns) == 0 {
		if turn.Role != RoleUser {
			return fmt.Errorf("history must open with a %s turn, got %s", RoleUser, turn.Role)
		}
	} else if last := h.turns[len(h.turns)-1]; last.Role == turn.Role {
		return fmt.Errorf("history cannot hold two consecutive %s turns", turn.Role)
	}
	h.turns = append(h.turns, turn.Clone())
	return nil
}

// Len reports the number of turns.
func (h *History) Len() int { return len(h.turns) }

// Last returns the most recent turn.
func (h *History) Last() (Content, bool) {
	if len(h.turns) == 0 {
		return Content{}, false
	}
	return h.turns[len(h.turns)-1].Clone(), true
}

// Turns returns a copy of the conversation so callers cannot mutate it in place.
func (h *History) Turns() []Content {
	out := make([]Content, len(h.turns))
	for i, t := range h.turns {
		out[i] = t.Clone()
	}
	return out
}
