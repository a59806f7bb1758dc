package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/vectorindex"
	"ai-tutor-be/pkg/vectorindex/memory"
	"ai-tutor-be/pkg/vectorindex/noop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto fixed axes so similarity is predictable.
type keywordEmbedder struct {
	err   error
	calls int
}

var axes = []string{"cell", "energy", "water"}

func (e *keywordEmbedder) Generate(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(axes))
		for j, a := range axes {
			v[j] = float32(strings.Count(strings.ToLower(t), a))
		}
		out[i] = v
	}
	return out, nil
}

func seeded(t *testing.T) *memory.Index {
	t.Helper()
	idx := memory.New()
	items := []vectorindex.Item{
		{ID: "a", DocumentID: "d1", Text: "cell cell", ChunkIndex: 0, Vector: []float32{1, 0, 0}},
		{ID: "b", DocumentID: "d1", Text: "energy", ChunkIndex: 1, Vector: []float32{0, 1, 0}},
		{ID: "c", DocumentID: "d1", Text: "cell energy", ChunkIndex: 2, Vector: []float32{1, 1, 0}},
		{ID: "d", DocumentID: "d2", Text: "water", ChunkIndex: 0, Vector: []float32{0, 0, 1}},
	}
	require.NoError(t, idx.Upsert(context.Background(), "bio", items))
	return idx
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	r := New(&keywordEmbedder{}, seeded(t), logger.NewNopLogger(), Options{TopK: 2, MaxContextChars: 1000})

	res := r.Retrieve(context.Background(), Query{Text: "what is a cell", Namespace: "bio"})
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "a", res.Chunks[0].Chunk.ID)
	assert.Equal(t, "c", res.Chunks[1].Chunk.ID)
	assert.Equal(t, "cell cell"+ContextSeparator+"cell energy", res.Context)
}

func TestRetrieveIsDeterministic(t *testing.T) {
	r := New(&keywordEmbedder{}, seeded(t), logger.NewNopLogger(), Options{})
	q := Query{Text: "cell energy water", Namespace: "bio"}

	first := r.Retrieve(context.Background(), q)
	second := r.Retrieve(context.Background(), q)
	assert.Equal(t, first, second)
}

func TestRetrieveFiltersByDocument(t *testing.T) {
	r := New(&keywordEmbedder{}, seeded(t), logger.NewNopLogger(), Options{})

	res := r.Retrieve(context.Background(), Query{Text: "water", Namespace: "bio", DocumentID: "d1"})
	for _, c := range res.Chunks {
		assert.Equal(t, "d1", c.Chunk.DocumentID)
	}
}

func TestRetrieveUnconfiguredIsEmpty(t *testing.T) {
	emb := &keywordEmbedder{}
	r := New(emb, noop.New(), logger.NewNopLogger(), Options{})

	res := r.Retrieve(context.Background(), Query{Text: "cell", Namespace: "bio"})
	assert.True(t, res.IsEmpty())
	assert.Empty(t, res.Context)
	assert.Equal(t, 0, emb.calls)
}

func TestRetrieveEmbeddingFailureIsEmpty(t *testing.T) {
	r := New(&keywordEmbedder{err: errors.New("quota")}, seeded(t), logger.NewNopLogger(), Options{})

	res := r.Retrieve(context.Background(), Query{Text: "cell", Namespace: "bio"})
	assert.True(t, res.IsEmpty())
}

func TestAssembleTieBreaksByChunkOrder(t *testing.T) {
	matches := []vectorindex.Match{
		{Item: vectorindex.Item{ID: "z", DocumentID: "d", ChunkIndex: 7, Text: "seven"}, Score: 0.5},
		{Item: vectorindex.Item{ID: "y", DocumentID: "d", ChunkIndex: 2, Text: "two"}, Score: 0.5},
		{Item: vectorindex.Item{ID: "x", DocumentID: "d", ChunkIndex: 4, Text: "four"}, Score: 0.9},
	}

	res := Assemble(matches, 3, 1000)
	ids := []string{res.Chunks[0].Chunk.ID, res.Chunks[1].Chunk.ID, res.Chunks[2].Chunk.ID}
	assert.Equal(t, []string{"x", "y", "z"}, ids)
}

func TestAssembleRespectsBudget(t *testing.T) {
	matches := []vectorindex.Match{
		{Item: vectorindex.Item{ID: "a", Text: strings.Repeat("a", 40)}, Score: 0.9},
		{Item: vectorindex.Item{ID: "b", Text: strings.Repeat("b", 40)}, Score: 0.8},
		{Item: vectorindex.Item{ID: "c", Text: "c"}, Score: 0.7},
	}

	res := Assemble(matches, 10, 90)
	require.Len(t, res.Chunks, 2)
	assert.LessOrEqual(t, len(res.Context), 90)

	// greedy stops at the first chunk that does not fit
	res = Assemble(matches, 10, 60)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, strings.Repeat("a", 40), res.Context)
}

func TestAssembleCutsOversizedFirstChunk(t *testing.T) {
	matches := []vectorindex.Match{
		{Item: vectorindex.Item{ID: "a", Text: strings.Repeat("é", 30)}, Score: 0.9},
		{Item: vectorindex.Item{ID: "b", Text: "b"}, Score: 0.8},
	}

	res := Assemble(matches, 5, 11)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, strings.Repeat("é", 5), res.Context)
}
