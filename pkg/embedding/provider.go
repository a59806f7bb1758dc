package embedding

import (
	"context"
	"math"
)

// Task types. Providers that do not distinguish them ignore the value.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// The result has one vector per input text, in input order.
type EmbeddingProvider interface {
	Generate(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// normalizeVector normalizes a vector to unit length (magnitude = 1)
// Cosine distance in pgvector assumes normalized vectors
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

// Normalize is exported for providers living in sub-packages.
func Normalize(vectors [][]float32) [][]float32 {
	for i := range vectors {
		vectors[i] = normalizeVector(vectors[i])
	}
	return vectors
}
