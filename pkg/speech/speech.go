package speech

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("speech service is not configured")

// Transcriber turns recorded audio into text.
type Transcriber interface {
	IsConfigured() bool
	// Transcribe uses filename only as a format hint.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Synthesizer turns text into MP3 audio.
type Synthesizer interface {
	IsConfigured() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type noopTranscriber struct{}

func NewNoopTranscriber() Transcriber { return noopTranscriber{} }

func (noopTranscriber) IsConfigured() bool { return false }

func (noopTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return "", ErrNotConfigured
}

type noopSynthesizer struct{}

func NewNoopSynthesizer() Synthesizer { return noopSynthesizer{} }

func (noopSynthesizer) IsConfigured() bool { return false }

func (noopSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return nil, ErrNotConfigured
}
