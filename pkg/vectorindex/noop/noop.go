package noop

import (
	"context"

	"ai-tutor-be/pkg/vectorindex"
)

// Index stands in when no vector store is configured.
type Index struct{}

var _ vectorindex.Index = Index{}

func New() Index { return Index{} }

func (Index) IsConfigured() bool { return false }

func (Index) Upsert(ctx context.Context, namespace string, items []vectorindex.Item) error {
	return vectorindex.ErrNotConfigured
}

func (Index) Query(ctx context.Context, namespace string, vector []float32, topK int, filter vectorindex.Filter) ([]vectorindex.Match, error) {
	return nil, vectorindex.ErrNotConfigured
}

func (Index) Delete(ctx context.Context, namespace string, filter vectorindex.Filter) (int64, error) {
	return 0, nil
}

func (Index) Stats(ctx context.Context, namespace string) (vectorindex.Stats, error) {
	return vectorindex.Stats{Namespace: namespace}, nil
}
