package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/rag/chunker"
	"ai-tutor-be/pkg/rag/extract"
	"ai-tutor-be/pkg/rag/indexer"
	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
)

const DefaultNamespace = "default"

type IDocumentService interface {
	Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	Delete(ctx context.Context, id, namespace string) (*dto.DeleteDocumentResponse, error)
	Stats(ctx context.Context, namespace string) (*dto.DocumentStatsResponse, error)
	List(ctx context.Context, namespace string) ([]*dto.DocumentListItem, error)
	Comment(ctx context.Context, id string) (*dto.UploadCommentResponse, error)
}

type documentService struct {
	documents        contract.DocumentRepository
	extractor        *extract.Extractor
	chunker          *chunker.Chunker
	indexer          *indexer.Indexer
	publisherService IPublisherService
	eventPublisher   events.Publisher
	comments         *UploadComments
	logger           logger.ILogger
}

func NewDocumentService(
	documents contract.DocumentRepository,
	extractor *extract.Extractor,
	chunk *chunker.Chunker,
	ix *indexer.Indexer,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	comments *UploadComments,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		documents:        documents,
		extractor:        extractor,
		chunker:          chunk,
		indexer:          ix,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		comments:         comments,
		logger:           log,
	}
}

// Upload extracts, sections, chunks and indexes a file. The document is only
// stored once indexing succeeded; a failed index leaves earlier batches in
// place and reports them through the indexing error. A re-upload under an
// existing id overwrites chunks in place, so the previous vectors stay
// queryable until the new ones are committed.
func (s *documentService) Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	started := time.Now()

	text, err := s.extractor.Extract(req.Filename, req.Content)
	if err != nil {
		return nil, err
	}

	doc := &store.Document{
		ID:        strings.TrimSpace(req.DocumentId),
		Namespace: strings.TrimSpace(req.Namespace),
		Title:     strings.TrimSuffix(filepath.Base(req.Filename), filepath.Ext(req.Filename)),
		RawText:   text,
		CreatedAt: time.Now().UTC(),
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Namespace == "" {
		doc.Namespace = DefaultNamespace
	}

	chunks, err := s.chunker.SplitDocument(doc)
	if err != nil {
		return nil, err
	}

	prev, err := s.previous(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	indexed := 0
	if s.indexer.IsConfigured() {
		indexed, err = s.indexer.Upsert(ctx, chunks, doc.Namespace, doc.ID)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			s.dropStale(ctx, prev, doc, len(chunks))
		}
	} else {
		s.logger.Warn(uploadModule, "Vector index not configured, document kept for tutoring only", map[string]interface{}{
			"document_id": doc.ID,
		})
	}

	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to store document", err)
	}

	publishEvent(ctx, s.eventPublisher, s.logger, events.DocumentIndexed(doc.ID, doc.Namespace, len(chunks), indexed))
	s.queueComment(ctx, req.Filename, doc)

	s.logger.Info(uploadModule, "Document processed", map[string]interface{}{
		"document_id": doc.ID,
		"namespace":   doc.Namespace,
		"chunks":      len(chunks),
		"indexed":     indexed,
		"sections":    len(doc.Sections),
		"duration_ms": time.Since(started).Milliseconds(),
	})

	res := &dto.UploadDocumentResponse{
		DocumentId:    doc.ID,
		Namespace:     doc.Namespace,
		Title:         doc.Title,
		ChunksCount:   len(chunks),
		ChunksIndexed: indexed,
		Indexed:       indexed == len(chunks) && indexed > 0,
		Sections:      make([]dto.SectionSummary, len(doc.Sections)),
	}
	for i, sec := range doc.Sections {
		res.Sections[i] = dto.SectionSummary{Index: sec.Index, Title: sec.Title, Chars: len(sec.Text)}
	}
	return res, nil
}

func (s *documentService) previous(ctx context.Context, id string) (*store.Document, error) {
	prev, err := s.documents.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load document", err)
	}
	return prev, nil
}

// dropStale removes what the previous upload indexed beyond the new chunk
// count, or all of it when the document moved namespace. The new vectors are
// already committed, so a failure here is logged and the upload still succeeds.
func (s *documentService) dropStale(ctx context.Context, prev, doc *store.Document, keep int) {
	var err error
	if prev.Namespace != doc.Namespace {
		_, err = s.indexer.Delete(ctx, prev.ID, prev.Namespace)
	} else {
		_, err = s.indexer.Prune(ctx, doc.ID, doc.Namespace, keep)
	}
	if err != nil {
		s.logger.Warn(uploadModule, "Failed to remove stale vectors", map[string]interface{}{
			"document_id": doc.ID,
			"namespace":   prev.Namespace,
			"error":       err.Error(),
		})
	}
}

func (s *documentService) queueComment(ctx context.Context, filename string, doc *store.Document) {
	payload, err := json.Marshal(dto.UploadCommentMessage{
		DocumentId: doc.ID,
		Filename:   filename,
		Sections:   len(doc.Sections),
	})
	if err == nil {
		err = s.publisherService.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn(uploadModule, "Failed to queue upload comment", map[string]interface{}{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}
}

// Delete removes the vectors and the stored document. Unknown ids succeed with zero removed.
func (s *documentService) Delete(ctx context.Context, id, namespace string) (*dto.DeleteDocumentResponse, error) {
	if namespace == "" {
		if doc, err := s.documents.FindByID(ctx, id); err == nil {
			namespace = doc.Namespace
		} else {
			namespace = DefaultNamespace
		}
	}

	removed, err := s.indexer.Delete(ctx, id, namespace)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindIndexing, "failed to delete document vectors", err)
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to delete document", err)
	}

	publishEvent(ctx, s.eventPublisher, s.logger, events.DocumentDeleted(id, namespace, removed))
	return &dto.DeleteDocumentResponse{DocumentId: id, Removed: removed}, nil
}

func (s *documentService) Stats(ctx context.Context, namespace string) (*dto.DocumentStatsResponse, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	stats, err := s.indexer.Stats(ctx, namespace)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnavailable, "vector index unavailable", err)
	}
	return &dto.DocumentStatsResponse{
		Namespace:     namespace,
		VectorCount:   stats.VectorCount,
		DocumentCount: stats.DocumentCount,
		Configured:    s.indexer.IsConfigured(),
	}, nil
}

func (s *documentService) List(ctx context.Context, namespace string) ([]*dto.DocumentListItem, error) {
	docs, err := s.documents.List(ctx,
		specification.ByNamespace{Namespace: namespace},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list documents", err)
	}
	out := make([]*dto.DocumentListItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, &dto.DocumentListItem{
			DocumentId: d.ID,
			Namespace:  d.Namespace,
			Title:      d.Title,
			Sections:   len(d.Sections),
			ChunkCount: d.ChunkCount,
			CreatedAt:  d.CreatedAt,
		})
	}
	return out, nil
}

// Comment returns the asynchronous upload commentary once it is ready.
func (s *documentService) Comment(ctx context.Context, id string) (*dto.UploadCommentResponse, error) {
	c, ok := s.comments.Get(id)
	if !ok {
		return nil, apperror.NotFound("no comment available yet for document " + id)
	}
	return c, nil
}
