package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"ai-tutor-be/pkg/vectorindex"
)

// Index is an in-process vector store using brute-force cosine similarity.
type Index struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]vectorindex.Item
}

var _ vectorindex.Index = (*Index)(nil)

func New() *Index {
	return &Index{namespaces: make(map[string]map[string]vectorindex.Item)}
}

func (s *Index) IsConfigured() bool { return true }

func (s *Index) Upsert(ctx context.Context, namespace string, items []vectorindex.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]vectorindex.Item)
		s.namespaces[namespace] = ns
	}
	dim := dimension(ns)
	for _, it := range items {
		if dim == 0 {
			dim = len(it.Vector)
		}
		if len(it.Vector) == 0 || len(it.Vector) != dim {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, want %d", it.ID, len(it.Vector), dim)
		}
	}
	for _, it := range items {
		it.Namespace = namespace
		it.Vector = append([]float32(nil), it.Vector...)
		ns[it.ID] = it
	}
	return nil
}

func (s *Index) Query(ctx context.Context, namespace string, vector []float32, topK int, filter vectorindex.Filter) ([]vectorindex.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []vectorindex.Match
	for _, it := range s.namespaces[namespace] {
		if !filter.Matches(it) {
			continue
		}
		m := vectorindex.Match{Item: it, Score: CosineSimilarity(vector, it.Vector)}
		m.Vector = nil
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.ChunkIndex < b.ChunkIndex
	})

	if topK > 0 && topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Index) Delete(ctx context.Context, namespace string, filter vectorindex.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, it := range s.namespaces[namespace] {
		if filter.Matches(it) {
			delete(s.namespaces[namespace], id)
			removed++
		}
	}
	return removed, nil
}

func (s *Index) Stats(ctx context.Context, namespace string) (vectorindex.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make(map[string]struct{})
	for _, it := range s.namespaces[namespace] {
		docs[it.DocumentID] = struct{}{}
	}
	return vectorindex.Stats{
		Namespace:     namespace,
		VectorCount:   int64(len(s.namespaces[namespace])),
		DocumentCount: int64(len(docs)),
	}, nil
}

func dimension(ns map[string]vectorindex.Item) int {
	for _, it := range ns {
		return len(it.Vector)
	}
	return 0
}

// CosineSimilarity returns a value in [-1, 1]; mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}
