package implementation

import (
	"context"

	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/vectorindex"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChunkEmbeddingRepositoryImpl is the pgvector backed vector index.
// Similarity is cosine: 1 - (embedding <=> query).
type ChunkEmbeddingRepositoryImpl struct {
	db        *gorm.DB
	mapper    *mapper.ChunkEmbeddingMapper
	batchSize int
}

var _ vectorindex.Index = (*ChunkEmbeddingRepositoryImpl)(nil)

func NewChunkEmbeddingRepository(db *gorm.DB) *ChunkEmbeddingRepositoryImpl {
	return &ChunkEmbeddingRepositoryImpl{
		db:        db,
		mapper:    mapper.NewChunkEmbeddingMapper(),
		batchSize: 100,
	}
}

func (r *ChunkEmbeddingRepositoryImpl) IsConfigured() bool {
	return r.db != nil
}

func (r *ChunkEmbeddingRepositoryImpl) Upsert(ctx context.Context, namespace string, items []vectorindex.Item) error {
	if len(items) == 0 {
		return nil
	}
	models := r.mapper.ToModels(namespace, items)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document_id", "namespace", "text", "chunk_index", "start_char", "end_char", "embedding", "updated_at"}),
		}).
		CreateInBatches(models, r.batchSize).Error
}

func (r *ChunkEmbeddingRepositoryImpl) Query(ctx context.Context, namespace string, vector []float32, topK int, filter vectorindex.Filter) ([]vectorindex.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	type result struct {
		model.ChunkEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)
	query := r.db.WithContext(ctx).
		Table(model.ChunkEmbedding{}.TableName()).
		Select("id, document_id, namespace, text, chunk_index, start_char, end_char, 1 - (embedding <=> ?) AS similarity", queryVector)
	err := specification.Apply(query,
		specification.ByNamespace{Namespace: namespace},
		specification.ByDocumentID{DocumentID: filter.DocumentID},
		specification.FromChunkIndex{Index: filter.FromChunk},
	).
		Order("similarity DESC").
		Order("document_id ASC").
		Order("chunk_index ASC").
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	matches := make([]vectorindex.Match, len(results))
	for i, res := range results {
		matches[i] = vectorindex.Match{Item: r.mapper.ToItem(&res.ChunkEmbedding), Score: float32(res.Similarity)}
	}
	return matches, nil
}

func (r *ChunkEmbeddingRepositoryImpl) Delete(ctx context.Context, namespace string, filter vectorindex.Filter) (int64, error) {
	if namespace == "" && filter.DocumentID == "" {
		// an empty filter would wipe the table
		return 0, nil
	}
	res := specification.Apply(r.db.WithContext(ctx),
		specification.ByNamespace{Namespace: namespace},
		specification.ByDocumentID{DocumentID: filter.DocumentID},
		specification.FromChunkIndex{Index: filter.FromChunk},
	).Delete(&model.ChunkEmbedding{})
	return res.RowsAffected, res.Error
}

func (r *ChunkEmbeddingRepositoryImpl) Stats(ctx context.Context, namespace string) (vectorindex.Stats, error) {
	stats := vectorindex.Stats{Namespace: namespace}
	base := func() *gorm.DB {
		return specification.Apply(r.db.WithContext(ctx).Model(&model.ChunkEmbedding{}),
			specification.ByNamespace{Namespace: namespace})
	}
	if err := base().Count(&stats.VectorCount).Error; err != nil {
		return stats, err
	}
	if err := base().Distinct("document_id").Count(&stats.DocumentCount).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
