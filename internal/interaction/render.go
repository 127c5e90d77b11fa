// File: internal/interaction/render.go
package interaction

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/agent"
)

const (
	agentPrefix = "> AGENT: "
	userPrompt  = "< USER: "
	partJoiner  = " & "
	exitPrompt  = "\nPress enter to exit..."
)

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

func defaultIsTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

// Renderer formats turns for display.
type Renderer struct {
	styled bool
	label  lipgloss.Style
	call   lipgloss.Style
	prompt lipgloss.Style
}

// NewRenderer styles output only when out is a terminal and color is allowed.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	return &Renderer{
		styled: !noColor && isTerminal(out),
		label:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		call:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		prompt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	}
}

// AgentLine renders an AGENT turn as one line.
func (r *Renderer) AgentLine(turn schemas.Content) string {
	texts := make([]string, 0, len(turn.Parts))
	for _, part := range turn.Parts {
		switch p := part.(type) {
		case schemas.TextPart:
			texts = append(texts, p.Text)
		case schemas.FunctionCallPart:
			texts = append(texts, r.style(r.call, agent.CallSummary(p)))
		default:
			texts = append(texts, fmt.Sprintf("[%T]", part))
		}
	}
	return r.style(r.label, agentPrefix) + strings.Join(texts, partJoiner)
}

// Prompt returns the user input prompt.
func (r *Renderer) Prompt() string {
	return r.style(r.prompt, userPrompt)
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}
