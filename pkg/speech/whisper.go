package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// Whisper transcribes through the OpenAI audio transcription API.
type Whisper struct {
	client   *goopenai.Client
	model    string
	language string
	timeout  time.Duration
}

func NewWhisper(apiKey, baseURL, model string, timeout time.Duration) *Whisper {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = goopenai.Whisper1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Whisper{client: goopenai.NewClientWithConfig(cfg), model: model, language: "en", timeout: timeout}
}

func (w *Whisper) IsConfigured() bool { return true }

func (w *Whisper) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio")
	}
	if filename == "" {
		filename = "audio.webm"
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Language: w.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
