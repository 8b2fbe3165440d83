package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/natthapon/docflow/internal/docmodel"
)

// GeminiBackend wraps the Gemini multimodal API, grounded on the teacher's
// internal/ai/gemini.go client-construction and schema-building shape.
type GeminiBackend struct {
	apiKey    string
	modelName string
}

// NewGeminiBackend builds a Gemini-backed ModelBackend.
func NewGeminiBackend(apiKey, modelName string) *GeminiBackend {
	return &GeminiBackend{apiKey: apiKey, modelName: modelName}
}

func (g *GeminiBackend) Name() string { return "gemini" }

func (g *GeminiBackend) SupportsNativeFile() bool { return true }

func (g *GeminiBackend) Extract(ctx context.Context, parts []ContentPart, instructions string, docType docmodel.DocType, schema map[string]interface{}, enforceSchema bool, opts ExtractOptions) (Result, error) {
	if g.apiKey == "" {
		return Result{}, docmodel.NewError(docmodel.KindBackendUnconfigured, "GEMINI_API_KEY not set", nil)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "gemini client init failed", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(g.modelName)
	gm.SystemInstruction = genai.NewUserContent(genai.Text(instructions))
	gm.ResponseMIMEType = "application/json"
	if enforceSchema && schema != nil {
		if s, convErr := schemaToGenai(schema); convErr == nil {
			gm.ResponseSchema = s
		}
	}

	var content []genai.Part
	for _, p := range parts {
		if p.Text != "" {
			content = append(content, genai.Text(p.Text))
		}
		if len(p.ImageData) > 0 {
			content = append(content, genai.Blob{MIMEType: p.MimeType, Data: p.ImageData})
		}
	}

	resp, err := gm.GenerateContent(ctx, content...)
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "gemini generate content failed", err)
	}

	return parseGeminiResponse(resp)
}

func (g *GeminiBackend) ExtractNative(ctx context.Context, fileBytes []byte, mimeType string, instructions string, docType docmodel.DocType, schema map[string]interface{}, enforceSchema bool) (Result, error) {
	if g.apiKey == "" {
		return Result{}, docmodel.NewError(docmodel.KindBackendUnconfigured, "GEMINI_API_KEY not set", nil)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "gemini client init failed", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(g.modelName)
	gm.SystemInstruction = genai.NewUserContent(genai.Text(instructions))
	gm.ResponseMIMEType = "application/json"
	if enforceSchema && schema != nil {
		if s, convErr := schemaToGenai(schema); convErr == nil {
			gm.ResponseSchema = s
		}
	}

	resp, err := gm.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: fileBytes},
		genai.Text("Extract the structured data from this document."),
	)
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "gemini generate content failed", err)
	}

	return parseGeminiResponse(resp)
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (Result, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendParse, "empty gemini response", nil)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(sb.String()), &data); err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendParse, "gemini response not valid JSON", err)
	}

	return Result{Data: data, ResponseID: ""}, nil
}

// schemaToGenai converts a JSON-Schema-shaped map into a *genai.Schema tree,
// the shape the teacher's createSchema/createSimpleOCRSchema build by hand
// for its fixed receipt schema, generalized here to walk an arbitrary
// caller-supplied schema.
func schemaToGenai(s map[string]interface{}) (*genai.Schema, error) {
	typ, _ := s["type"].(string)
	out := &genai.Schema{}

	switch typ {
	case "object":
		out.Type = genai.TypeObject
		props, _ := s["properties"].(map[string]interface{})
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			childMap, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			child, err := schemaToGenai(childMap)
			if err != nil {
				return nil, err
			}
			out.Properties[name] = child
		}
		if req, ok := s["required"].([]interface{}); ok {
			for _, r := range req {
				if name, ok := r.(string); ok {
					out.Required = append(out.Required, name)
				}
			}
		} else {
			for name := range out.Properties {
				out.Required = append(out.Required, name)
			}
		}
	case "array":
		out.Type = genai.TypeArray
		if items, ok := s["items"].(map[string]interface{}); ok {
			child, err := schemaToGenai(items)
			if err != nil {
				return nil, err
			}
			out.Items = child
		}
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", typ)
	}

	if desc, ok := s["description"].(string); ok {
		out.Description = desc
	}

	return out, nil
}
