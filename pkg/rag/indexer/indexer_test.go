package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/vectorindex"
	"ai-tutor-be/pkg/vectorindex/memory"
	"ai-tutor-be/pkg/vectorindex/noop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder fails every call whose sequence number is in failCalls.
type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	failCalls map[int]bool
	batches   [][]string
}

func (f *fakeEmbedder) Generate(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failCalls[f.calls] {
		return nil, errors.New("rate limited")
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(len(texts[i]))}
	}
	return out, nil
}

func chunks(n int) []store.Chunk {
	out := make([]store.Chunk, n)
	for i := range out {
		out[i] = store.Chunk{
			ID:       fmt.Sprintf("c%d", i),
			Text:     fmt.Sprintf("chunk %d", i),
			Metadata: store.ChunkMetadata{ChunkIndex: i},
		}
	}
	return out
}

func TestUpsertBatches(t *testing.T) {
	emb := &fakeEmbedder{}
	idx := memory.New()
	ix := New(emb, idx, logger.NewNopLogger(), Options{BatchSize: 2})

	n, err := ix.Upsert(context.Background(), chunks(5), "bio", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, emb.batches, 3)
	assert.Len(t, emb.batches[2], 1)

	stats, err := ix.Stats(context.Background(), "bio")
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.VectorCount)
	assert.EqualValues(t, 1, stats.DocumentCount)
}

func TestUpsertRetriesTransientFailure(t *testing.T) {
	emb := &fakeEmbedder{failCalls: map[int]bool{1: true, 2: true}}
	ix := New(emb, memory.New(), logger.NewNopLogger(), Options{BatchSize: 10, Attempts: 3})

	n, err := ix.Upsert(context.Background(), chunks(3), "bio", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, emb.calls)
}

func TestUpsertPartialSuccess(t *testing.T) {
	// second batch fails on every attempt
	emb := &fakeEmbedder{failCalls: map[int]bool{2: true, 3: true, 4: true}}
	idx := memory.New()
	ix := New(emb, idx, logger.NewNopLogger(), Options{BatchSize: 2, Attempts: 3})

	n, err := ix.Upsert(context.Background(), chunks(5), "bio", "doc-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrIndexing))
	assert.Equal(t, 2, n)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 2, appErr.Indexed)

	// first batch stays committed
	stats, _ := idx.Stats(context.Background(), "bio")
	assert.EqualValues(t, 2, stats.VectorCount)
	assert.Equal(t, 4, emb.calls)
}

func TestUpsertUnconfiguredIndex(t *testing.T) {
	emb := &fakeEmbedder{}
	ix := New(emb, noop.New(), logger.NewNopLogger(), Options{})

	n, err := ix.Upsert(context.Background(), chunks(2), "bio", "doc-1")
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, apperror.ErrIndexing))
	assert.Equal(t, 0, emb.calls)
	assert.False(t, ix.IsConfigured())
}

func TestUpsertStoresMetadata(t *testing.T) {
	idx := memory.New()
	ix := New(&fakeEmbedder{}, idx, logger.NewNopLogger(), Options{})

	_, err := ix.Upsert(context.Background(), chunks(1), "bio", "doc-9")
	require.NoError(t, err)

	matches, err := idx.Query(context.Background(), "bio", []float32{1, 7}, 1, vectorindex.Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc-9", matches[0].DocumentID)
	assert.Equal(t, "chunk 0", matches[0].Text)
	assert.Equal(t, "bio", matches[0].Namespace)
}

func TestDeleteIdempotent(t *testing.T) {
	idx := memory.New()
	ix := New(&fakeEmbedder{}, idx, logger.NewNopLogger(), Options{})
	_, err := ix.Upsert(context.Background(), chunks(3), "bio", "doc-1")
	require.NoError(t, err)

	removed, err := ix.Delete(context.Background(), "doc-1", "bio")
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	removed, err = ix.Delete(context.Background(), "doc-1", "bio")
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)

	removed, err = New(&fakeEmbedder{}, noop.New(), logger.NewNopLogger(), Options{}).Delete(context.Background(), "doc-1", "bio")
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)
}

func TestPruneDropsTailOnly(t *testing.T) {
	ctx := context.Background()
	idx := memory.New()
	ix := New(&fakeEmbedder{}, idx, logger.NewNopLogger(), Options{})
	_, err := ix.Upsert(ctx, chunks(5), "bio", "doc-1")
	require.NoError(t, err)

	removed, err := ix.Prune(ctx, "doc-1", "bio", 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	stats, err := idx.Stats(ctx, "bio")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.VectorCount)

	removed, err = ix.Prune(ctx, "doc-1", "bio", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}
