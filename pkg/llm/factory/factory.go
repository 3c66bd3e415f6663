package factory

import (
	"fmt"

	"ai-assistant-be/pkg/errs"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, &errs.ConfigurationError{
			Component: "llm",
			Err:       fmt.Errorf("unsupported LLM provider: %s", providerType),
		}
	}
}
