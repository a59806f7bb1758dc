package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const (
	documentKeyPrefix  = "document:"
	namespaceKeyPrefix = "documents:"
)

// DocumentRepository stores each document as JSON under document:<id> and
// indexes ids per namespace in the set documents:<namespace>.
type DocumentRepository struct {
	rdb *redis.Client
}

var _ contract.DocumentRepository = (*DocumentRepository)(nil)

func NewDocumentRepository(rdb *redis.Client) *DocumentRepository {
	return &DocumentRepository{rdb: rdb}
}

func documentKey(id string) string { return documentKeyPrefix + id }

func namespaceKey(ns string) string { return namespaceKeyPrefix + ns }

func (r *DocumentRepository) Save(ctx context.Context, doc *store.Document) error {
	previous, err := r.load(ctx, doc.ID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil && previous.Namespace != doc.Namespace {
			pipe.SRem(ctx, namespaceKey(previous.Namespace), doc.ID)
		}
		pipe.Set(ctx, documentKey(doc.ID), payload, 0)
		pipe.SAdd(ctx, namespaceKey(doc.Namespace), doc.ID)
		return nil
	})
	return err
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*store.Document, error) {
	return r.load(ctx, id)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	doc, err := r.load(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, documentKey(id))
		pipe.SRem(ctx, namespaceKey(doc.Namespace), id)
		return nil
	})
	return err
}

// List requires a ByNamespace specification; without one it scans every document key.
func (r *DocumentRepository) List(ctx context.Context, specs ...specification.Specification) ([]*store.Document, error) {
	filter := specification.Filters(specs...)

	var ids []string
	if filter.Namespace != "" {
		members, err := r.rdb.SMembers(ctx, namespaceKey(filter.Namespace)).Result()
		if err != nil {
			return nil, err
		}
		ids = members
	} else {
		iter := r.rdb.Scan(ctx, 0, documentKeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			ids = append(ids, iter.Val()[len(documentKeyPrefix):])
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = documentKey(id)
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]*store.Document, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// set member whose document was removed
			continue
		}
		var doc store.Document
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return filter.Page(docs), nil
}

func (r *DocumentRepository) load(ctx context.Context, id string) (*store.Document, error) {
	data, err := r.rdb.Get(ctx, documentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NotFound("document " + id + " not found")
	}
	if err != nil {
		return nil, err
	}
	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &doc, nil
}
