package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/vectorindex"

	"github.com/cenkalti/backoff/v5"
)

const module = "INDEXER"

type Options struct {
	BatchSize int
	// Attempts is the total number of tries per batch, including the first.
	Attempts int
	Backoff  time.Duration
	// Timeout bounds a single attempt. Zero means no per-attempt limit.
	Timeout time.Duration
}

// Indexer embeds chunks and writes them to the vector index batch by batch.
type Indexer struct {
	embedder embedding.EmbeddingProvider
	index    vectorindex.Index
	logger   logger.ILogger
	opts     Options
}

func New(embedder embedding.EmbeddingProvider, index vectorindex.Index, log logger.ILogger, opts Options) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	return &Indexer{embedder: embedder, index: index, logger: log, opts: opts}
}

func (ix *Indexer) IsConfigured() bool {
	return ix.index != nil && ix.index.IsConfigured()
}

// Upsert returns the number of chunks committed. When a batch still fails after
// all attempts the returned count covers earlier batches only and the error is
// an apperror.KindIndexing carrying the same count.
func (ix *Indexer) Upsert(ctx context.Context, chunks []store.Chunk, namespace, documentID string) (int, error) {
	if !ix.IsConfigured() {
		return 0, apperror.Indexing(0, vectorindex.ErrNotConfigured)
	}

	indexed := 0
	for start := 0; start < len(chunks); start += ix.opts.BatchSize {
		end := start + ix.opts.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := ix.upsertBatch(ctx, batch, namespace, documentID); err != nil {
			ix.logger.Error(module, "Batch failed after retries", map[string]interface{}{
				"document_id": documentID,
				"namespace":   namespace,
				"batch_start": start,
				"indexed":     indexed,
				"error":       err,
			})
			return indexed, apperror.Indexing(indexed, err)
		}
		indexed += len(batch)
	}

	ix.logger.Info(module, "Document indexed", map[string]interface{}{
		"document_id": documentID,
		"namespace":   namespace,
		"chunks":      indexed,
	})
	return indexed, nil
}

func (ix *Indexer) upsertBatch(ctx context.Context, batch []store.Chunk, namespace, documentID string) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		callCtx, cancel := ix.attemptContext(ctx)
		defer cancel()

		vectors, err := ix.embedder.Generate(callCtx, texts, embedding.TaskRetrievalDocument)
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}
		if err == nil {
			err = ix.index.Upsert(callCtx, namespace, toItems(batch, vectors, namespace, documentID))
		}
		if errors.Is(err, vectorindex.ErrNotConfigured) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err != nil {
			ix.logger.Warn(module, "Batch attempt failed", map[string]interface{}{
				"document_id": documentID,
				"attempt":     attempt,
				"error":       err.Error(),
			})
		}
		return struct{}{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = ix.opts.Backoff
	b.MaxInterval = 10 * ix.opts.Backoff
	if ix.opts.Backoff == 0 {
		b.InitialInterval = time.Nanosecond
		b.MaxInterval = time.Nanosecond
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(ix.opts.Attempts)),
	)
	return err
}

func (ix *Indexer) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ix.opts.Timeout > 0 {
		return context.WithTimeout(ctx, ix.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func toItems(batch []store.Chunk, vectors [][]float32, namespace, documentID string) []vectorindex.Item {
	items := make([]vectorindex.Item, len(batch))
	for i, c := range batch {
		items[i] = vectorindex.Item{
			ID:         c.ID,
			Vector:     vectors[i],
			DocumentID: documentID,
			Namespace:  namespace,
			Text:       c.Text,
			ChunkIndex: c.Metadata.ChunkIndex,
			StartChar:  c.Metadata.StartChar,
			EndChar:    c.Metadata.EndChar,
		}
	}
	return items
}

// Delete removes every vector of documentID. Deleting an unknown document removes nothing and succeeds.
func (ix *Indexer) Delete(ctx context.Context, documentID, namespace string) (int64, error) {
	if !ix.IsConfigured() {
		return 0, nil
	}
	removed, err := ix.index.Delete(ctx, namespace, vectorindex.Filter{DocumentID: documentID})
	if err != nil {
		return 0, fmt.Errorf("delete vectors of %s: %w", documentID, err)
	}
	ix.logger.Info(module, "Document vectors deleted", map[string]interface{}{
		"document_id": documentID,
		"namespace":   namespace,
		"removed":     removed,
	})
	return removed, nil
}

// Prune removes the vectors of documentID from chunk index keep onwards, the
// tail left behind when a document is re-indexed with fewer chunks.
func (ix *Indexer) Prune(ctx context.Context, documentID, namespace string, keep int) (int64, error) {
	if !ix.IsConfigured() {
		return 0, nil
	}
	if keep <= 0 {
		return ix.Delete(ctx, documentID, namespace)
	}
	removed, err := ix.index.Delete(ctx, namespace, vectorindex.Filter{DocumentID: documentID, FromChunk: keep})
	if err != nil {
		return 0, fmt.Errorf("prune vectors of %s: %w", documentID, err)
	}
	if removed > 0 {
		ix.logger.Info(module, "Stale vectors pruned", map[string]interface{}{
			"document_id": documentID,
			"namespace":   namespace,
			"removed":     removed,
		})
	}
	return removed, nil
}

func (ix *Indexer) Stats(ctx context.Context, namespace string) (vectorindex.Stats, error) {
	if !ix.IsConfigured() {
		return vectorindex.Stats{Namespace: namespace}, nil
	}
	return ix.index.Stats(ctx, namespace)
}
