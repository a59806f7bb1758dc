package openai

import (
	"context"
	"errors"

	"ai-tutor-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// Provider uses the chat completions API. baseURL may point at any compatible server.
type Provider struct {
	client *goopenai.Client
	model  string
}

var _ llm.LLMProvider = (*Provider)(nil)

func NewProvider(apiKey, baseURL, model string) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = goopenai.GPT4oMini
	}
	return &Provider{client: goopenai.NewClientWithConfig(cfg), model: model}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7}, options...)

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, m := range history {
		messages[i] = goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
