package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TUTOR_CONFIG_FILE", "")
	cfg := Load()

	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, 2000, cfg.RAG.MaxContextChars)
	assert.Equal(t, 5, cfg.Tutor.MaxAttempts)
	assert.Equal(t, 20, cfg.Tutor.HistoryMaxTurns)
	assert.Equal(t, 10*time.Minute, cfg.Tutor.CompletedTTL)
	assert.Equal(t, "aEO01A4wXwd1O8GPgGlF", cfg.Speech.ElevenLabsVoice)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TUTOR_CONFIG_FILE", "")
	t.Setenv("RAG_CHUNK_SIZE", "800")
	t.Setenv("TUTOR_COMPLETED_TTL", "1m")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, time.Minute, cfg.Tutor.CompletedTTL)
	assert.True(t, cfg.App.OtelEnabled)
}

func TestYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.yaml")
	content := "rag:\n  top_k: 8\n  index_backoff: 2s\ntutor:\n  max_attempts: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("TUTOR_CONFIG_FILE", path)
	t.Setenv("RAG_CHUNK_SIZE", "600")

	cfg := Load()

	assert.Equal(t, 8, cfg.RAG.TopK)
	assert.Equal(t, 2*time.Second, cfg.RAG.IndexBackoff)
	assert.Equal(t, 3, cfg.Tutor.MaxAttempts)
	// keys absent from the file keep the env value
	assert.Equal(t, 600, cfg.RAG.ChunkSize)
}

func TestInvalidOverlapIsReset(t *testing.T) {
	t.Setenv("TUTOR_CONFIG_FILE", "")
	t.Setenv("RAG_CHUNK_SIZE", "100")
	t.Setenv("RAG_CHUNK_OVERLAP", "150")

	cfg := Load()

	assert.Equal(t, 10, cfg.RAG.ChunkOverlap)
}

func TestApplyFileMissingIsNoop(t *testing.T) {
	cfg := fromEnv()
	assert.NoError(t, cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestNeedsDatabase(t *testing.T) {
	cfg := &Config{}
	cfg.VectorStore.Provider = "qdrant"
	cfg.DocumentStore.Provider = "redis"
	assert.False(t, cfg.NeedsDatabase())

	cfg.VectorStore.Provider = "pgvector"
	assert.True(t, cfg.NeedsDatabase())

	cfg.VectorStore.Provider = "memory"
	cfg.DocumentStore.Provider = "postgres"
	assert.True(t, cfg.NeedsDatabase())
}
