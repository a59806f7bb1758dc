package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io"
	defaultVoice      = "aEO01A4wXwd1O8GPgGlF"
	defaultTTSModel   = "eleven_turbo_v2_5"
)

// ElevenLabs synthesizes speech with the ElevenLabs text-to-speech REST API.
type ElevenLabs struct {
	apiKey  string
	voiceID string
	model   string
	baseURL string
	client  *http.Client
}

func NewElevenLabs(apiKey, voiceID, model string, timeout time.Duration) *ElevenLabs {
	if voiceID == "" {
		voiceID = defaultVoice
	}
	if model == "" {
		model = defaultTTSModel
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ElevenLabs{
		apiKey:  apiKey,
		voiceID: voiceID,
		model:   model,
		baseURL: elevenLabsBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the client at another host. Used by tests.
func (e *ElevenLabs) WithBaseURL(url string) *ElevenLabs {
	e.baseURL = strings.TrimRight(url, "/")
	return e
}

func (e *ElevenLabs) IsConfigured() bool { return e.apiKey != "" }

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type ttsRequest struct {
	Text                     string        `json:"text"`
	ModelID                  string        `json:"model_id"`
	VoiceSettings            voiceSettings `json:"voice_settings"`
	OptimizeStreamingLatency int           `json:"optimize_streaming_latency"`
}

// Synthesize retries once on network errors, 429 and 5xx.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !e.IsConfigured() {
		return nil, ErrNotConfigured
	}
	payload, err := json.Marshal(ttsRequest{
		Text:                     text,
		ModelID:                  e.model,
		VoiceSettings:            voiceSettings{Stability: 0.4, SimilarityBoost: 0.4},
		OptimizeStreamingLatency: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/text-to-speech/"+e.voiceID, bytes.NewReader(payload))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "audio/mpeg")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("xi-api-key", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("elevenlabs request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("elevenlabs error: status %d, body: %s", resp.StatusCode, string(body))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return body, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(300*time.Millisecond)),
		backoff.WithMaxTries(2),
	)
}
