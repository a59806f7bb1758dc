package contract

import (
	"context"

	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/store"
)

// DocumentRepository stores uploaded documents with their sections.
type DocumentRepository interface {
	// Save inserts or replaces the document with the same id.
	Save(ctx context.Context, doc *store.Document) error
	// FindByID fails with apperror.KindNotFound for unknown ids.
	FindByID(ctx context.Context, id string) (*store.Document, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	// List ignores specifications it cannot express outside SQL, except ByNamespace.
	List(ctx context.Context, specs ...specification.Specification) ([]*store.Document, error)
}
