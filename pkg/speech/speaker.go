package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ai-tutor-be/internal/pkg/logger"
)

const module = "SPEECH"

// Speaker synthesizes text and stores the MP3 under dir, served at urlPrefix.
// Speech is optional: failures are logged and yield an empty URL.
type Speaker struct {
	synth     Synthesizer
	dir       string
	urlPrefix string
	logger    logger.ILogger
	now       func() time.Time
}

func NewSpeaker(synth Synthesizer, dir, urlPrefix string, log logger.ILogger) *Speaker {
	return &Speaker{synth: synth, dir: dir, urlPrefix: urlPrefix, logger: log, now: time.Now}
}

func (s *Speaker) Enabled() bool {
	return s != nil && s.synth != nil && s.synth.IsConfigured()
}

// Speak returns the public URL of the stored audio, or "" when speech is unavailable.
func (s *Speaker) Speak(ctx context.Context, prefix, text string) string {
	if !s.Enabled() || text == "" {
		return ""
	}
	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil || len(audio) == 0 {
		s.logger.Warn(module, "Speech synthesis failed", map[string]interface{}{
			"prefix": prefix,
			"error":  fmt.Sprint(err),
		})
		return ""
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error(module, "Cannot create audio directory", map[string]interface{}{"dir": s.dir, "error": err})
		return ""
	}
	name := fmt.Sprintf("%s_%s.mp3", prefix, s.now().Format("20060102_150405.000000"))
	if err := os.WriteFile(filepath.Join(s.dir, name), audio, 0o644); err != nil {
		s.logger.Error(module, "Cannot write audio file", map[string]interface{}{"file": name, "error": err})
		return ""
	}
	return s.urlPrefix + "/" + name
}
