package contract

import (
	"context"

	"ai-tutor-be/pkg/store"
)

// MutateFunc receives a private copy of the session and returns the version
// to store. Returning an error discards the copy.
type MutateFunc func(current *store.TutoringSession) (*store.TutoringSession, error)

// SessionRepository is the process-wide registry of live tutoring sessions.
// Turns on one session are serialized; different sessions proceed in parallel.
type SessionRepository interface {
	// Create registers a new session. It fails with apperror.KindInvalidState
	// when an unfinished session already uses the id.
	Create(ctx context.Context, session *store.TutoringSession) error
	// Get returns a copy of the session or apperror.KindSessionNotFound.
	Get(ctx context.Context, id string) (*store.TutoringSession, error)
	// Mutate runs fn while holding the session's lock and stores its result.
	Mutate(ctx context.Context, id string, fn MutateFunc) error
	Delete(ctx context.Context, id string) error
}
