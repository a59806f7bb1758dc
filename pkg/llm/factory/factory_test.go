package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	for _, name := range []string{"ollama", "huggingface"} {
		p, err := NewLLMProvider(Settings{Provider: name, Model: "m"})
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}

	_, err := NewLLMProvider(Settings{Provider: "openai"})
	assert.Error(t, err)

	p, err := NewLLMProvider(Settings{Provider: "openai", APIKey: "sk"})
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = NewLLMProvider(Settings{Provider: "unknown"})
	assert.ErrorContains(t, err, "unsupported LLM provider")
}
