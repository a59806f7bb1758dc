package mapper

import (
	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/store"

	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToStore(d *model.Document) *store.Document {
	if d == nil {
		return nil
	}
	return &store.Document{
		ID:         d.Id,
		Namespace:  d.Namespace,
		Title:      d.Title,
		RawText:    d.RawText,
		Sections:   d.Sections.Data(),
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *store.Document) *model.Document {
	if d == nil {
		return nil
	}
	return &model.Document{
		Id:         d.ID,
		Namespace:  d.Namespace,
		Title:      d.Title,
		RawText:    d.RawText,
		Sections:   datatypes.NewJSONType(d.Sections),
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}

func (m *DocumentMapper) ToStoreList(docs []*model.Document) []*store.Document {
	out := make([]*store.Document, len(docs))
	for i, d := range docs {
		out[i] = m.ToStore(d)
	}
	return out
}
