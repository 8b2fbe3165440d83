package model

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/natthapon/docflow/internal/docmodel"
)

// OpenAIBackend talks to the OpenAI-compatible chat-completions API over
// raw net/http, grounded on the teacher's internal/ai/mistral.go transport
// shape (build request struct, marshal, Bearer header, parse JSON, classify
// non-2xx). It has no native-file support — PDFs must already have been
// rasterised by Preprocess before reaching this backend.
type OpenAIBackend struct {
	apiKey    string
	modelName string
	baseURL   string
	client    *http.Client
}

// NewOpenAIBackend builds an OpenAI-backed ModelBackend.
func NewOpenAIBackend(apiKey, modelName string) *OpenAIBackend {
	return &OpenAIBackend{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   "https://api.openai.com/v1/chat/completions",
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenAIBackend) Name() string { return "openai" }

func (o *OpenAIBackend) SupportsNativeFile() bool { return false }

func (o *OpenAIBackend) ExtractNative(ctx context.Context, fileBytes []byte, mimeType string, instructions string, docType docmodel.DocType, schema map[string]interface{}, enforceSchema bool) (Result, error) {
	return Result{}, docmodel.NewError(docmodel.KindUnsupportedScanned, "openai backend has no native-file path; rasterise first", nil)
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (o *OpenAIBackend) Extract(ctx context.Context, parts []ContentPart, instructions string, docType docmodel.DocType, schema map[string]interface{}, enforceSchema bool, opts ExtractOptions) (Result, error) {
	if o.apiKey == "" {
		return Result{}, docmodel.NewError(docmodel.KindBackendUnconfigured, "OPENAI_API_KEY not set", nil)
	}

	userContent := make([]chatContent, 0, len(parts))
	for _, p := range parts {
		if p.Text != "" {
			userContent = append(userContent, chatContent{Type: "text", Text: p.Text})
		}
		if len(p.ImageData) > 0 {
			b64 := base64.StdEncoding.EncodeToString(p.ImageData)
			userContent = append(userContent, chatContent{
				Type:     "image_url",
				ImageURL: &chatImageURL{URL: fmt.Sprintf("data:%s;base64,%s", p.MimeType, b64)},
			})
		}
	}

	req := chatRequest{
		Model: o.modelName,
		Messages: []chatMessage{
			{Role: "system", Content: []chatContent{{Type: "text", Text: instructions}}},
			{Role: "user", Content: userContent},
		},
	}
	if enforceSchema && schema != nil {
		req.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   string(docType) + "_schema",
				Strict: true,
				Schema: schema,
			},
		}
	}

	return o.call(ctx, req, opts)
}

func (o *OpenAIBackend) call(ctx context.Context, req chatRequest, opts ExtractOptions) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBadRequest, "failed to marshal openai request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "failed to build openai request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, docmodel.NewError(docmodel.KindTimeout, "openai call timed out", err)
		}
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "openai call failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "failed to read openai response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatErrorResponse
		_ = json.Unmarshal(respBody, &errResp)
		msg := errResp.Error.Message
		if msg == "" {
			msg = string(respBody)
		}
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, fmt.Sprintf("openai error (%d): %s", resp.StatusCode, msg), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendParse, "openai response not valid JSON envelope", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, docmodel.NewError(docmodel.KindBackendParse, "openai response had no choices", nil)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &data); err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendParse, "openai message content not valid JSON", err)
	}

	return Result{Data: data, ResponseID: parsed.ID}, nil
}
