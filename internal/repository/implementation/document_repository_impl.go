package implementation

import (
	"context"
	"errors"

	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) Save(ctx context.Context, doc *store.Document) error {
	m := r.mapper.ToModel(doc)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"namespace", "title", "raw_text", "sections", "chunk_count", "updated_at", "deleted_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	doc.CreatedAt = m.CreatedAt
	return nil
}

func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, id string) (*store.Document, error) {
	var m model.Document
	err := specification.Apply(r.db.WithContext(ctx), specification.ByID{ID: id}).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("document " + id + " not found")
		}
		return nil, err
	}
	return r.mapper.ToStore(&m), nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}).Error
}

func (r *DocumentRepositoryImpl) List(ctx context.Context, specs ...specification.Specification) ([]*store.Document, error) {
	var models []*model.Document
	if err := specification.Apply(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToStoreList(models), nil
}
