package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// ChunkEmbedding rows are hard deleted; a vector index has no use for tombstones.
type ChunkEmbedding struct {
	Id         string          `gorm:"type:text;primaryKey"`
	DocumentId string          `gorm:"type:text;not null;index"`
	Namespace  string          `gorm:"type:text;not null;index"`
	Text       string          `gorm:"type:text"`
	ChunkIndex int             `gorm:"default:0"`
	StartChar  int             `gorm:"default:0"`
	EndChar    int             `gorm:"default:0"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

func (ChunkEmbedding) TableName() string {
	return "chunk_embeddings"
}
