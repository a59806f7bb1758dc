package vectorindex

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("vector index is not configured")

// Item is one chunk vector with the metadata stored next to it.
type Item struct {
	ID         string
	Vector     []float32
	DocumentID string
	Namespace  string
	Text       string
	ChunkIndex int
	StartChar  int
	EndChar    int
}

// Match is a query hit. Vector is not populated.
type Match struct {
	Item
	Score float32
}

// Filter narrows a query or delete inside a namespace. Empty fields match everything.
type Filter struct {
	DocumentID string
	// FromChunk, when positive, only matches chunks at or past this index.
	FromChunk int
}

// Matches reports whether it passes the filter. Namespace is checked by the caller.
func (f Filter) Matches(it Item) bool {
	if f.DocumentID != "" && it.DocumentID != f.DocumentID {
		return false
	}
	return f.FromChunk <= 0 || it.ChunkIndex >= f.FromChunk
}

type Stats struct {
	Namespace     string `json:"namespace"`
	VectorCount   int64  `json:"vector_count"`
	DocumentCount int64  `json:"document_count"`
}

// Index is an external nearest-neighbour store partitioned by namespace.
type Index interface {
	// IsConfigured reports whether the index can be called at all.
	IsConfigured() bool
	Upsert(ctx context.Context, namespace string, items []Item) error
	// Query returns up to topK matches, best first.
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter Filter) ([]Match, error)
	// Delete removes matching vectors and reports how many were removed.
	Delete(ctx context.Context, namespace string, filter Filter) (int64, error)
	Stats(ctx context.Context, namespace string) (Stats, error)
}
