package factory

import (
	"fmt"

	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/embedding/jina"
	"ai-tutor-be/pkg/embedding/openai"
)

type Settings struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	GeminiAPIKey  string
	JinaAPIKey    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func NewEmbeddingProvider(s Settings) (embedding.EmbeddingProvider, error) {
	switch s.Provider {
	case "ollama":
		return embedding.NewOllamaProvider(s.OllamaBaseURL, s.Model), nil
	case "gemini":
		if s.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini embeddings need GOOGLE_GEMINI_API_KEY")
		}
		return embedding.NewGeminiProvider(s.GeminiAPIKey), nil
	case "jina":
		if s.JinaAPIKey == "" {
			return nil, fmt.Errorf("jina embeddings need JINA_API_KEY")
		}
		return jina.NewJinaProvider(s.JinaAPIKey), nil
	case "openai":
		if s.OpenAIAPIKey == "" && s.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("openai embeddings need OPENAI_API_KEY or OPENAI_BASE_URL")
		}
		return openai.NewProvider(s.OpenAIAPIKey, s.OpenAIBaseURL, s.Model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", s.Provider)
	}
}
