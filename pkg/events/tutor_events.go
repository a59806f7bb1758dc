package events

import "time"

const (
	TypeDocumentIndexed    = "DOCUMENT_INDEXED"
	TypeDocumentDeleted    = "DOCUMENT_DELETED"
	TypeTutoringStarted    = "TUTORING_STARTED"
	TypeSectionNeedsReview = "SECTION_NEEDS_REVIEW"
	TypeTutoringCompleted  = "TUTORING_COMPLETED"
)

func newEvent(typ string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: typ, Data: data, OccurredAt: time.Now().UTC()}
}

func DocumentIndexed(documentID, namespace string, chunks, indexed int) BaseEvent {
	return newEvent(TypeDocumentIndexed, map[string]interface{}{
		"document_id":    documentID,
		"namespace":      namespace,
		"chunks_count":   chunks,
		"chunks_indexed": indexed,
	})
}

func DocumentDeleted(documentID, namespace string, removed int64) BaseEvent {
	return newEvent(TypeDocumentDeleted, map[string]interface{}{
		"document_id": documentID,
		"namespace":   namespace,
		"removed":     removed,
	})
}

func TutoringStarted(sessionID, documentID string, sections int) BaseEvent {
	return newEvent(TypeTutoringStarted, map[string]interface{}{
		"session_id":  sessionID,
		"document_id": documentID,
		"sections":    sections,
	})
}

func SectionNeedsReview(sessionID string, sectionIndex int, title string) BaseEvent {
	return newEvent(TypeSectionNeedsReview, map[string]interface{}{
		"session_id":    sessionID,
		"section_index": sectionIndex,
		"section_title": title,
	})
}

func TutoringCompleted(sessionID string, needsReview []string) BaseEvent {
	return newEvent(TypeTutoringCompleted, map[string]interface{}{
		"session_id":   sessionID,
		"needs_review": needsReview,
	})
}
