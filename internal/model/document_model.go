package model

import (
	"time"

	"ai-tutor-be/pkg/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id         string                              `gorm:"type:text;primaryKey"`
	Namespace  string                              `gorm:"type:text;not null;index"`
	Title      string                              `gorm:"type:text"`
	RawText    string                              `gorm:"type:text"`
	Sections   datatypes.JSONType[[]store.Section] `gorm:"type:jsonb"`
	ChunkCount int                                 `gorm:"default:0"`
	CreatedAt  time.Time                           `gorm:"autoCreateTime"`
	UpdatedAt  time.Time                           `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt                      `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
