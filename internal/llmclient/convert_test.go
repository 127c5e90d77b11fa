package llmclient

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/xkilldash9x/browsepilot/api/schemas"
)

func TestToFunctionDeclarations(t *testing.T) {
	tools := []schemas.ActionDescriptor{{
		Name:        "select",
		Description: "Select options.",
		Parameters: map[string]schemas.ParameterSchema{
			"values":       {Type: schemas.ParamArray, Required: true, Items: &schemas.ParameterSchema{Type: schemas.ParamString}},
			"css_selector": {Type: schemas.ParamString, Required: true},
			"note":         {Type: schemas.ParamString},
		},
	}}

	got := toFunctionDeclarations(tools)
	want := []*genai.FunctionDeclaration{{
		Name:        "select",
		Description: "Select options.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"values":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"css_selector": {Type: genai.TypeString},
				"note":         {Type: genai.TypeString},
			},
			Required: []string{"css_selector", "values"},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestFromGenAIParts(t *testing.T) {
	parts, err := fromGenAIParts([]*genai.Part{
		{Text: "thinking...", Thought: true},
		{Text: "hello"},
		{FunctionCall: &genai.FunctionCall{Name: "back"}},
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []schemas.Part{
		schemas.TextPart{Text: "hello"},
		schemas.FunctionCallPart{Name: "back", Args: map[string]any{}},
		schemas.InlineBinaryPart{MIMEType: "image/png", Data: []byte{1}},
	}, parts)

	_, err = fromGenAIParts([]*genai.Part{nil})
	var malformed *schemas.MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}
