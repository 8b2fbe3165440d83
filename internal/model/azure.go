package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/natthapon/docflow/internal/docmodel"
)

// AzureOpenAIBackend talks to an Azure OpenAI deployment. Per §4.10 it
// differs from OpenAIBackend only in transport: an `api-key` header instead
// of `Authorization: Bearer`, and a base URL scoped to a resource +
// deployment with an `api-version` query parameter. The request/response
// body shapes are shared with OpenAIBackend.
type AzureOpenAIBackend struct {
	apiKey     string
	endpoint   string // e.g. https://my-resource.openai.azure.com
	deployment string
	apiVersion string
	client     *http.Client
}

// NewAzureOpenAIBackend builds an Azure-OpenAI-backed ModelBackend.
func NewAzureOpenAIBackend(apiKey, endpoint, deployment, apiVersion string) *AzureOpenAIBackend {
	return &AzureOpenAIBackend{
		apiKey:     apiKey,
		endpoint:   endpoint,
		deployment: deployment,
		apiVersion: apiVersion,
		client:     &http.Client{Timeout: 120 * time.Second},
	}
}

func (a *AzureOpenAIBackend) Name() string { return "azure-openai" }

func (a *AzureOpenAIBackend) SupportsNativeFile() bool { return false }

func (a *AzureOpenAIBackend) ExtractNative(ctx context.Context, fileBytes []byte, mimeType string, instructions string, docType docmodel.DocType, schema map[string]interface{}, enforceSchema bool) (Result, error) {
	return Result{}, docmodel.NewError(docmodel.KindUnsupportedScanned, "azure-openai backend has no native-file path; rasterise first", nil)
}

func (a *AzureOpenAIBackend) url() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", a.endpoint, a.deployment, a.apiVersion)
}

func (a *AzureOpenAIBackend) Extract(ctx context.Context, parts []ContentPart, instructions string, docType docmodel.DocType, schema map[string]interface{}, enforceSchema bool, opts ExtractOptions) (Result, error) {
	if a.apiKey == "" || a.endpoint == "" || a.deployment == "" {
		return Result{}, docmodel.NewError(docmodel.KindBackendUnconfigured, "azure openai endpoint/deployment/key not set", nil)
	}

	userContent := make([]chatContent, 0, len(parts))
	for _, p := range parts {
		if p.Text != "" {
			userContent = append(userContent, chatContent{Type: "text", Text: p.Text})
		}
		if len(p.ImageData) > 0 {
			userContent = append(userContent, chatContent{
				Type:     "image_url",
				ImageURL: &chatImageURL{URL: fmt.Sprintf("data:%s;base64,%s", p.MimeType, base64Of(p.ImageData))},
			})
		}
	}

	req := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: []chatContent{{Type: "text", Text: instructions}}},
			{Role: "user", Content: userContent},
		},
	}
	if enforceSchema && schema != nil {
		req.ResponseFormat = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: string(docType) + "_schema", Strict: true, Schema: schema},
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBadRequest, "failed to marshal azure request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url(), bytes.NewReader(body))
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "failed to build azure request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, docmodel.NewError(docmodel.KindTimeout, "azure call timed out", err)
		}
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "azure call failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, "failed to read azure response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatErrorResponse
		_ = json.Unmarshal(respBody, &errResp)
		msg := errResp.Error.Message
		if msg == "" {
			msg = string(respBody)
		}
		return Result{}, docmodel.NewError(docmodel.KindBackendTransport, fmt.Sprintf("azure openai error (%d): %s", resp.StatusCode, msg), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendParse, "azure response not valid JSON envelope", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, docmodel.NewError(docmodel.KindBackendParse, "azure response had no choices", nil)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &data); err != nil {
		return Result{}, docmodel.NewError(docmodel.KindBackendParse, "azure message content not valid JSON", err)
	}

	return Result{Data: data, ResponseID: parsed.ID}, nil
}
