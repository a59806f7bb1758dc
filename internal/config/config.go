package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Ai            AIConfig
	VectorStore   VectorStoreConfig
	DocumentStore DocumentStoreConfig
	Speech        SpeechConfig
	RAG           RAGConfig   `yaml:"rag"`
	Tutor         TutorConfig `yaml:"tutor"`
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	AudioDir           string
	UploadMaxBytes     int
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider        string // "ollama", "huggingface", "openai"
	LLMModel           string
	LLMBaseURL         string
	EmbeddingProvider  string // "ollama", "gemini", "jina", "openai"
	EmbeddingModel     string
	OllamaBaseURL      string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	HuggingFaceAPIKey  string
	GoogleGeminiAPIKey string
	JinaAPIKey         string
	MaxTokens          int
	Timeout            time.Duration
}

type VectorStoreConfig struct {
	Provider         string // "pgvector", "qdrant", "memory", "none"
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	Dimension        int
}

type DocumentStoreConfig struct {
	Provider string // "postgres", "redis", "memory"
}

type SpeechConfig struct {
	STTProvider      string // "openai", "none"
	STTModel         string
	ElevenLabsAPIKey string
	ElevenLabsVoice  string
	ElevenLabsModel  string
	Timeout          time.Duration
}

// RAGConfig and TutorConfig may be overridden by the YAML file named in TUTOR_CONFIG_FILE.
type RAGConfig struct {
	ChunkSize       int           `yaml:"chunk_size"`
	ChunkOverlap    int           `yaml:"chunk_overlap"`
	TargetSections  int           `yaml:"target_sections"`
	IndexBatchSize  int           `yaml:"index_batch_size"`
	IndexAttempts   int           `yaml:"index_attempts"`
	IndexBackoff    time.Duration `yaml:"index_backoff"`
	TopK            int           `yaml:"top_k"`
	MaxContextChars int           `yaml:"max_context_chars"`
}

type TutorConfig struct {
	MaxAttempts        int           `yaml:"max_attempts"`
	HistoryMaxTurns    int           `yaml:"history_max_turns"`
	SectionPromptChars int           `yaml:"section_prompt_chars"`
	CompletedTTL       time.Duration `yaml:"completed_ttl"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := fromEnv()

	if path := getEnv("TUTOR_CONFIG_FILE", ""); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			log.Printf("[WARN] Failed to apply config file %s: %v", path, err)
		}
	}
	cfg.applyDefaults()

	return cfg
}

func fromEnv() *Config {
	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			AudioDir:           getEnv("AUDIO_DIR", "static/audio"),
			UploadMaxBytes:     getEnvAsInt("UPLOAD_MAX_BYTES", 20*1024*1024),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", ""),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			HuggingFaceAPIKey:  getEnv("HUGGINGFACE_API_KEY", ""),
			GoogleGeminiAPIKey: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JinaAPIKey:         getEnv("JINA_API_KEY", ""),
			MaxTokens:          getEnvAsInt("LLM_MAX_TOKENS", 500),
			Timeout:            getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		},
		VectorStore: VectorStoreConfig{
			Provider:         getEnv("VECTOR_STORE_PROVIDER", "memory"),
			QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
			QdrantCollection: getEnv("QDRANT_COLLECTION", "tutor_chunks"),
			Dimension:        getEnvAsInt("EMBEDDING_DIMENSION", 768),
		},
		DocumentStore: DocumentStoreConfig{
			Provider: getEnv("DOCUMENT_STORE", "memory"),
		},
		Speech: SpeechConfig{
			STTProvider:      getEnv("STT_PROVIDER", "none"),
			STTModel:         getEnv("STT_MODEL", "whisper-1"),
			ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),
			ElevenLabsVoice:  getEnv("ELEVENLABS_VOICE_ID", "aEO01A4wXwd1O8GPgGlF"),
			ElevenLabsModel:  getEnv("ELEVENLABS_MODEL", "eleven_turbo_v2_5"),
			Timeout:          getEnvAsDuration("SPEECH_TIMEOUT", 15*time.Second),
		},
		RAG: RAGConfig{
			ChunkSize:       getEnvAsInt("RAG_CHUNK_SIZE", 500),
			ChunkOverlap:    getEnvAsInt("RAG_CHUNK_OVERLAP", 50),
			TargetSections:  getEnvAsInt("RAG_TARGET_SECTIONS", 5),
			IndexBatchSize:  getEnvAsInt("RAG_INDEX_BATCH_SIZE", 100),
			IndexAttempts:   getEnvAsInt("RAG_INDEX_ATTEMPTS", 3),
			IndexBackoff:    getEnvAsDuration("RAG_INDEX_BACKOFF", 500*time.Millisecond),
			TopK:            getEnvAsInt("RAG_TOP_K", 5),
			MaxContextChars: getEnvAsInt("RAG_MAX_CONTEXT_CHARS", 2000),
		},
		Tutor: TutorConfig{
			MaxAttempts:        getEnvAsInt("TUTOR_MAX_ATTEMPTS", 5),
			HistoryMaxTurns:    getEnvAsInt("TUTOR_HISTORY_MAX_TURNS", 20),
			SectionPromptChars: getEnvAsInt("TUTOR_SECTION_PROMPT_CHARS", 2000),
			CompletedTTL:       getEnvAsDuration("TUTOR_COMPLETED_TTL", 10*time.Minute),
		},
	}
}

type fileOverlay struct {
	RAG   *RAGConfig   `yaml:"rag"`
	Tutor *TutorConfig `yaml:"tutor"`
}

// ApplyFile overlays the rag and tutor blocks of a YAML file. Missing keys keep their current value.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	overlay := fileOverlay{RAG: &c.RAG, Tutor: &c.Tutor}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = 500
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		c.RAG.ChunkOverlap = c.RAG.ChunkSize / 10
	}
	if c.RAG.TargetSections <= 0 {
		c.RAG.TargetSections = 5
	}
	if c.RAG.IndexBatchSize <= 0 {
		c.RAG.IndexBatchSize = 100
	}
	if c.RAG.IndexAttempts <= 0 {
		c.RAG.IndexAttempts = 3
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 5
	}
	if c.RAG.MaxContextChars <= 0 {
		c.RAG.MaxContextChars = 2000
	}
	if c.Tutor.MaxAttempts <= 0 {
		c.Tutor.MaxAttempts = 5
	}
	if c.Tutor.HistoryMaxTurns <= 0 {
		c.Tutor.HistoryMaxTurns = 20
	}
	if c.Tutor.SectionPromptChars <= 0 {
		c.Tutor.SectionPromptChars = 2000
	}
	if c.Tutor.CompletedTTL <= 0 {
		c.Tutor.CompletedTTL = 10 * time.Minute
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// NeedsDatabase reports whether any configured store lives in Postgres.
func (c *Config) NeedsDatabase() bool {
	return c.VectorStore.Provider == "pgvector" || c.DocumentStore.Provider == "postgres"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
