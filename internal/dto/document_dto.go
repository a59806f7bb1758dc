package dto

import "time"

type UploadDocumentRequest struct {
	DocumentId string `form:"document_id" validate:"omitempty,max=128"`
	Namespace  string `form:"namespace" validate:"omitempty,max=128"`
	Filename   string `validate:"required"`
	Content    []byte `validate:"required"`
}

type SectionSummary struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Chars int    `json:"chars"`
}

type UploadDocumentResponse struct {
	DocumentId    string           `json:"document_id"`
	Namespace     string           `json:"namespace"`
	Title         string           `json:"title"`
	ChunksCount   int              `json:"chunks_count"`
	ChunksIndexed int              `json:"chunks_indexed"`
	Indexed       bool             `json:"indexed"`
	Sections      []SectionSummary `json:"sections"`
}

type DeleteDocumentResponse struct {
	DocumentId string `json:"document_id"`
	Removed    int64  `json:"removed"`
}

type DocumentStatsResponse struct {
	Namespace     string `json:"namespace"`
	VectorCount   int64  `json:"vector_count"`
	DocumentCount int64  `json:"document_count"`
	Configured    bool   `json:"configured"`
}

type DocumentListItem struct {
	DocumentId string    `json:"document_id"`
	Namespace  string    `json:"namespace"`
	Title      string    `json:"title"`
	Sections   int       `json:"sections"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadCommentMessage is the async job published after an upload.
type UploadCommentMessage struct {
	DocumentId string `json:"document_id"`
	Filename   string `json:"filename"`
	Sections   int    `json:"sections"`
}
