package specification

import (
	"fmt"

	"gorm.io/gorm"
)

type ByID struct {
	ID string
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByNamespace matches every row when Namespace is empty.
type ByNamespace struct {
	Namespace string
}

func (s ByNamespace) Apply(db *gorm.DB) *gorm.DB {
	if s.Namespace == "" {
		return db
	}
	return db.Where("namespace = ?", s.Namespace)
}

// ByDocumentID matches every row when DocumentID is empty.
type ByDocumentID struct {
	DocumentID string
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	if s.DocumentID == "" {
		return db
	}
	return db.Where("document_id = ?", s.DocumentID)
}

// FromChunkIndex keeps chunks at or past Index. Zero or less matches every row.
type FromChunkIndex struct {
	Index int
}

func (s FromChunkIndex) Apply(db *gorm.DB) *gorm.DB {
	if s.Index <= 0 {
		return db
	}
	return db.Where("chunk_index >= ?", s.Index)
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
