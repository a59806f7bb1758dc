package factory

import (
	"fmt"

	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/llm/huggingface"
	"ai-tutor-be/pkg/llm/ollama"
	"ai-tutor-be/pkg/llm/openai"
)

type Settings struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "ollama":
		return ollama.NewProvider(s.BaseURL, s.Model), nil
	case "huggingface":
		return huggingface.NewProvider(s.APIKey, s.BaseURL, s.Model), nil
	case "openai":
		if s.APIKey == "" && s.BaseURL == "" {
			return nil, fmt.Errorf("openai provider needs OPENAI_API_KEY or an OPENAI_BASE_URL")
		}
		return openai.NewProvider(s.APIKey, s.BaseURL, s.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
