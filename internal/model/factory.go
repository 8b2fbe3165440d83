package model

import (
	"fmt"
	"log"

	"github.com/natthapon/docflow/configs"
	"github.com/natthapon/docflow/internal/docmodel"
)

// NewBackend creates a ModelBackend for the given provider, grounded on the
// teacher's internal/ai/factory.go provider-switch shape.
func NewBackend(provider docmodel.ModelProvider) (Backend, error) {
	switch provider {
	case docmodel.ProviderGemini, "":
		log.Printf("🔵 creating gemini model backend")
		return NewGeminiBackend(configs.GEMINI_API_KEY, configs.GEMINI_MODEL_NAME), nil

	case docmodel.ProviderOpenAI:
		log.Printf("🟢 creating openai model backend")
		return NewOpenAIBackend(configs.OPENAI_API_KEY, configs.OPENAI_MODEL_NAME), nil

	case docmodel.ProviderAzureOpenAI:
		log.Printf("🔷 creating azure-openai model backend")
		return NewAzureOpenAIBackend(
			configs.AZURE_OPENAI_API_KEY,
			configs.AZURE_OPENAI_ENDPOINT,
			configs.AZURE_OPENAI_DEPLOYMENT,
			configs.AZURE_OPENAI_API_VERSION,
		), nil

	default:
		return nil, fmt.Errorf("unsupported model provider: %s (supported: gemini, openai, azure-openai)", provider)
	}
}
