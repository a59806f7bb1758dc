package memory

import (
	"context"
	"sort"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// DocumentRepository keeps documents for the life of the process.
type DocumentRepository struct {
	cache *cache.Cache
}

var _ contract.DocumentRepository = (*DocumentRepository)(nil)

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *DocumentRepository) Save(ctx context.Context, doc *store.Document) error {
	r.cache.Set(doc.ID, copyDocument(doc), cache.NoExpiration)
	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*store.Document, error) {
	x, ok := r.cache.Get(id)
	if !ok {
		return nil, apperror.NotFound("document " + id + " not found")
	}
	return copyDocument(x.(*store.Document)), nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

// List understands ByNamespace and Pagination. Results are ordered oldest first.
func (r *DocumentRepository) List(ctx context.Context, specs ...specification.Specification) ([]*store.Document, error) {
	filter := specification.Filters(specs...)

	var docs []*store.Document
	for _, item := range r.cache.Items() {
		doc := item.Object.(*store.Document)
		if filter.Namespace != "" && doc.Namespace != filter.Namespace {
			continue
		}
		docs = append(docs, copyDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return filter.Page(docs), nil
}

func copyDocument(doc *store.Document) *store.Document {
	c := *doc
	c.Sections = append([]store.Section(nil), doc.Sections...)
	return &c
}
