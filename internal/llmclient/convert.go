// internal/llmclient/convert.go
package llmclient

import (
	"fmt"
	"sort"

	"google.golang.org/genai"

	"github.com/xkilldash9x/browsepilot/api/schemas"
)

func toGenAIContents(history []schemas.Content) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(history))
	for i, turn := range history {
		gc := &genai.Content{Role: string(turn.Role), Parts: make([]*genai.Part, 0, len(turn.Parts))}
		for _, part := range turn.Parts {
			gp, err := toGenAIPart(part)
			if err != nil {
				return nil, fmt.Errorf("cannot convert turn %d: %w", i, err)
			}
			gc.Parts = append(gc.Parts, gp)
		}
		contents = append(contents, gc)
	}
	return contents, nil
}

func toGenAIPart(part schemas.Part) (*genai.Part, error) {
	switch p := part.(type) {
	case schemas.TextPart:
		return &genai.Part{Text: p.Text}, nil
	case schemas.FunctionCallPart:
		return &genai.Part{FunctionCall: &genai.FunctionCall{Name: p.Name, Args: p.Args}}, nil
	case schemas.FunctionResultPart:
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{Name: p.Name, Response: p.Response}}, nil
	case schemas.InlineBinaryPart:
		return &genai.Part{InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data}}, nil
	default:
		return nil, fmt.Errorf("unsupported part type %T", part)
	}
}

// fromGenAIParts maps response parts onto the part variants. Thought parts
// are dropped.
func fromGenAIParts(parts []*genai.Part) ([]schemas.Part, error) {
	out := make([]schemas.Part, 0, len(parts))
	for i, p := range parts {
		switch {
		case p == nil:
			return nil, &schemas.MalformedResponseError{Index: i, Reason: "empty part"}
		case p.Thought:
			continue
		case p.FunctionCall != nil:
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			out = append(out, schemas.FunctionCallPart{Name: p.FunctionCall.Name, Args: args})
		case p.FunctionResponse != nil:
			out = append(out, schemas.FunctionResultPart{Name: p.FunctionResponse.Name, Response: p.FunctionResponse.Response})
		case p.InlineData != nil:
			out = append(out, schemas.InlineBinaryPart{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data})
		case p.Text != "":
			out = append(out, schemas.TextPart{Text: p.Text})
		default:
			return nil, &schemas.MalformedResponseError{Index: i, Reason: "part matches no known variant"}
		}
	}
	return out, nil
}

func toFunctionDeclarations(tools []schemas.ActionDescriptor) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if len(tool.Parameters) > 0 {
			decl.Parameters = objectSchema(tool)
		}
		decls = append(decls, decl)
	}
	return decls
}

func objectSchema(tool schemas.ActionDescriptor) *genai.Schema {
	names := make([]string, 0, len(tool.Parameters))
	for name := range tool.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(names)),
	}
	for _, name := range names {
		param := tool.Parameters[name]
		s.Properties[name] = paramSchema(param)
		if param.Required {
			s.Required = append(s.Required, name)
		}
	}
	return s
}

func paramSchema(param schemas.ParameterSchema) *genai.Schema {
	s := &genai.Schema{Type: schemaType(param.Type), Description: param.Description}
	if param.Items != nil {
		s.Items = paramSchema(*param.Items)
	}
	return s
}

func schemaType(t schemas.ParamType) genai.Type {
	switch t {
	case schemas.ParamNumber:
		return genai.TypeNumber
	case schemas.ParamInteger:
		return genai.TypeInteger
	case schemas.ParamBoolean:
		return genai.TypeBoolean
	case schemas.ParamArray:
		return genai.TypeArray
	case schemas.ParamObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
