package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-tutor-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{3, 4}, {0, 2}}})
	}))
	defer srv.Close()

	vecs, err := NewOllamaProvider(srv.URL, "nomic-embed-text").Generate(context.Background(), []string{"a", "b"}, TaskRetrievalDocument)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.InDelta(t, 0.6, vecs[0][0], 1e-6)
	assert.InDelta(t, 0.8, vecs[0][1], 1e-6)
	assert.InDelta(t, 1.0, vecs[1][1], 1e-6)
}

func TestOllamaProviderCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "").Generate(context.Background(), []string{"a", "b"}, "")
	assert.Error(t, err)
}

func TestGeminiProviderBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:batchEmbedContents", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		var req geminiBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 2)
		assert.Equal(t, TaskRetrievalQuery, req.Requests[0].TaskType)
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[1,0]},{"values":[0,1]}]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider("key")
	p.BaseURL = srv.URL
	vecs, err := p.Generate(context.Background(), []string{"q1", "q2"}, TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestNormalizeZeroVector(t *testing.T) {
	assert.Equal(t, []float32{0, 0}, normalizeVector([]float32{0, 0}))
	v := normalizeVector([]float32{1, 1})
	assert.InDelta(t, 1/math.Sqrt2, v[0], 1e-6)
}

type flakyEmbedder struct {
	fails int
	calls int
}

func (f *flakyEmbedder) Generate(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.fails {
		return nil, errors.New("503")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func TestRetryingProvider(t *testing.T) {
	inner := &flakyEmbedder{fails: 1}
	vecs, err := NewRetryingProvider(inner, time.Second).WithBackoff(0).Generate(context.Background(), []string{"x"}, "")
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, 2, inner.calls)

	inner = &flakyEmbedder{fails: 5}
	_, err = NewRetryingProvider(inner, time.Second).WithBackoff(0).Generate(context.Background(), []string{"x"}, "")
	assert.True(t, errors.Is(err, apperror.ErrEmbedding))
	assert.Equal(t, 2, inner.calls)
}
