package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable error classification returned to callers.
type Kind string

const (
	KindEmptyDocument   Kind = "empty_document"
	KindIndexing        Kind = "indexing_error"
	KindQuizParse       Kind = "quiz_parse_error"
	KindGeneration      Kind = "generation_error"
	KindEmbedding       Kind = "embedding_error"
	KindSessionNotFound Kind = "session_not_found"
	KindInvalidState    Kind = "invalid_state"
	KindValidation      Kind = "validation_error"
	KindNotFound        Kind = "not_found"
	KindUnavailable     Kind = "service_unavailable"
	KindInternal        Kind = "internal_error"
)

// Sentinels for errors.Is checks. Matching is by Kind only.
var (
	ErrEmptyDocument   = &Error{Kind: KindEmptyDocument}
	ErrIndexing        = &Error{Kind: KindIndexing}
	ErrQuizParse       = &Error{Kind: KindQuizParse}
	ErrGeneration      = &Error{Kind: KindGeneration}
	ErrEmbedding       = &Error{Kind: KindEmbedding}
	ErrSessionNotFound = &Error{Kind: KindSessionNotFound}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnavailable     = &Error{Kind: KindUnavailable}
)

// Error carries a Kind, a human readable message and an optional cause.
// Indexed is only meaningful for KindIndexing and reports how many chunks were
// committed before the failure.
type Error struct {
	Kind    Kind
	Message string
	Indexed int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func EmptyDocument(message string) *Error {
	return New(KindEmptyDocument, message)
}

// Indexing reports a failed upload; indexed is the partial-success count.
func Indexing(indexed int, err error) *Error {
	return &Error{
		Kind:    KindIndexing,
		Message: fmt.Sprintf("indexing failed after %d chunks were committed", indexed),
		Indexed: indexed,
		Err:     err,
	}
}

func QuizParse(err error) *Error {
	return Wrap(KindQuizParse, "could not parse quiz question from model output", err)
}

func Generation(err error) *Error {
	return Wrap(KindGeneration, "text generation failed", err)
}

func Embedding(err error) *Error {
	return Wrap(KindEmbedding, "embedding generation failed", err)
}

func SessionNotFound(sessionID string) *Error {
	return New(KindSessionNotFound, fmt.Sprintf("session %q not found, start a new session", sessionID))
}

func InvalidState(message string) *Error {
	return New(KindInvalidState, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a Kind onto the status code used by the REST surface.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindEmptyDocument, KindValidation:
		return http.StatusBadRequest
	case KindSessionNotFound, KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case KindQuizParse, KindGeneration, KindEmbedding, KindIndexing:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
