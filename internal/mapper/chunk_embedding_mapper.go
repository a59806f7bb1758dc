package mapper

import (
	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/vectorindex"

	"github.com/pgvector/pgvector-go"
)

type ChunkEmbeddingMapper struct{}

func NewChunkEmbeddingMapper() *ChunkEmbeddingMapper {
	return &ChunkEmbeddingMapper{}
}

func (m *ChunkEmbeddingMapper) ToModel(namespace string, it vectorindex.Item) *model.ChunkEmbedding {
	return &model.ChunkEmbedding{
		Id:         it.ID,
		DocumentId: it.DocumentID,
		Namespace:  namespace,
		Text:       it.Text,
		ChunkIndex: it.ChunkIndex,
		StartChar:  it.StartChar,
		EndChar:    it.EndChar,
		Embedding:  pgvector.NewVector(it.Vector),
	}
}

// ToItem leaves Vector empty; callers never need it back.
func (m *ChunkEmbeddingMapper) ToItem(e *model.ChunkEmbedding) vectorindex.Item {
	return vectorindex.Item{
		ID:         e.Id,
		DocumentID: e.DocumentId,
		Namespace:  e.Namespace,
		Text:       e.Text,
		ChunkIndex: e.ChunkIndex,
		StartChar:  e.StartChar,
		EndChar:    e.EndChar,
	}
}

func (m *ChunkEmbeddingMapper) ToModels(namespace string, items []vectorindex.Item) []*model.ChunkEmbedding {
	out := make([]*model.ChunkEmbedding, len(items))
	for i, it := range items {
		out[i] = m.ToModel(namespace, it)
	}
	return out
}
