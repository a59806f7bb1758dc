package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-tutor-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{Message: llm.Message{Role: "assistant", Content: "Cells divide."}, Done: true})
	}))
	defer srv.Close()

	p := NewProvider(srv.URL+"/", "llama3")
	out, err := p.Chat(context.Background(), []llm.Message{{Role: "system", Content: "tutor"}, {Role: "user", Content: "mitosis?"}}, llm.WithMaxTokens(64))
	require.NoError(t, err)

	assert.Equal(t, "Cells divide.", out)
	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, 64, got.Options.NumPredict)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewProvider(srv.URL, "missing").Generate(context.Background(), "hi")
	assert.ErrorContains(t, err, "status 404")
}
