package bootstrap

import (
	"context"
	"fmt"
	"time"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/controller"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/cache"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/implementation"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/pkg/embedding"
	embeddingFactory "ai-tutor-be/pkg/embedding/factory"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/llm"
	llmFactory "ai-tutor-be/pkg/llm/factory"
	pktNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/rag/chunker"
	"ai-tutor-be/pkg/rag/extract"
	"ai-tutor-be/pkg/rag/indexer"
	"ai-tutor-be/pkg/rag/prompt"
	"ai-tutor-be/pkg/rag/retriever"
	"ai-tutor-be/pkg/speech"
	"ai-tutor-be/pkg/tutor"
	"ai-tutor-be/pkg/tutor/quiz"
	"ai-tutor-be/pkg/vectorindex"
	vmemory "ai-tutor-be/pkg/vectorindex/memory"
	"ai-tutor-be/pkg/vectorindex/noop"
	"ai-tutor-be/pkg/vectorindex/qdrant"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	module             = "BOOTSTRAP"
	uploadCommentTopic = "upload_comment"
	audioURLPrefix     = "/audio"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	TutoringController controller.ITutoringController
	ChatController     controller.IChatController

	// Services (used directly by the terminal client)
	DocumentService service.IDocumentService
	TutoringService service.ITutoringService
	ChatService     service.IChatService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every component from cfg. db may be nil when neither the
// document store nor the vector index uses Postgres.
func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Collaborators
	baseLLM, err := llmFactory.NewLLMProvider(llmFactory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  llmBaseURL(cfg),
		APIKey:   llmAPIKey(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	llmProvider := llm.NewRetryingProvider(baseLLM, cfg.Ai.Timeout)
	sysLogger.Info(module, "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	baseEmbedder, err := embeddingFactory.NewEmbeddingProvider(embeddingFactory.Settings{
		Provider:      cfg.Ai.EmbeddingProvider,
		Model:         cfg.Ai.EmbeddingModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		GeminiAPIKey:  cfg.Ai.GoogleGeminiAPIKey,
		JinaAPIKey:    cfg.Ai.JinaAPIKey,
		OpenAIAPIKey:  cfg.Ai.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	embedder := embedding.NewRetryingProvider(baseEmbedder, cfg.Ai.Timeout)

	index, err := c.vectorIndex(db, cfg)
	if err != nil {
		return nil, err
	}
	documents, err := c.documentRepository(db, cfg)
	if err != nil {
		return nil, err
	}
	sessions := memory.NewSessionRepository(cfg.Tutor.CompletedTTL)

	speaker := speech.NewSpeaker(synthesizer(cfg), cfg.App.AudioDir, audioURLPrefix, sysLogger)
	eventPublisher := c.eventPublisher(cfg)

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	publisherService := service.NewPublisherService(uploadCommentTopic, pubSub)
	comments := service.NewUploadComments(time.Hour)

	// 3. RAG + tutoring core
	ix := indexer.New(embedder, index, sysLogger, indexer.Options{
		BatchSize: cfg.RAG.IndexBatchSize,
		Attempts:  cfg.RAG.IndexAttempts,
		Backoff:   cfg.RAG.IndexBackoff,
		Timeout:   cfg.Ai.Timeout,
	})
	ret := retriever.New(embedder, index, sysLogger, retriever.Options{
		TopK:            cfg.RAG.TopK,
		MaxContextChars: cfg.RAG.MaxContextChars,
	})
	prompts := prompt.NewBuilder(cfg.Tutor.SectionPromptChars)
	machine := tutor.NewMachine(
		llmProvider,
		quiz.NewEngine(llmProvider, prompts, sysLogger),
		ret,
		prompts,
		sysLogger,
		tutor.Options{MaxAttempts: cfg.Tutor.MaxAttempts, HistoryMaxTurns: cfg.Tutor.HistoryMaxTurns},
	)
	split := chunker.New(chunker.Options{
		ChunkSize:      cfg.RAG.ChunkSize,
		ChunkOverlap:   cfg.RAG.ChunkOverlap,
		TargetSections: cfg.RAG.TargetSections,
	})

	// 4. Services
	c.DocumentService = service.NewDocumentService(documents, extract.New(), split, ix, publisherService, eventPublisher, comments, sysLogger)
	c.TutoringService = service.NewTutoringService(documents, sessions, machine, speaker, eventPublisher, sysLogger)
	c.ChatService = service.NewChatService(llmProvider, ret, transcriber(cfg), speaker, sysLogger, service.ChatOptions{
		HistoryMaxTurns: cfg.Tutor.HistoryMaxTurns,
	})

	c.ConsumerService = service.NewConsumerService(pubSub, uploadCommentTopic, llmProvider, speaker, comments, sysLogger)

	// 5. Controllers
	c.DocumentController = controller.NewDocumentController(c.DocumentService)
	c.TutoringController = controller.NewTutoringController(c.TutoringService)
	c.ChatController = controller.NewChatController(c.ChatService)

	return c, nil
}

// Close releases connections in reverse creation order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (c *Container) vectorIndex(db *gorm.DB, cfg *config.Config) (vectorindex.Index, error) {
	vs := cfg.VectorStore
	switch vs.Provider {
	case "pgvector":
		if db == nil {
			return nil, fmt.Errorf("pgvector index needs DB_CONNECTION_STRING")
		}
		return implementation.NewChunkEmbeddingRepository(db), nil
	case "qdrant":
		idx := qdrant.New(qdrant.Config{
			URL:        vs.QdrantURL,
			APIKey:     vs.QdrantAPIKey,
			Collection: vs.QdrantCollection,
			Timeout:    cfg.Ai.Timeout,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := idx.EnsureCollection(ctx, vs.Dimension); err != nil {
			c.Logger.Warn(module, "Failed to ensure qdrant collection", map[string]interface{}{
				"collection": vs.QdrantCollection,
				"error":      err.Error(),
			})
		}
		return idx, nil
	case "memory":
		return vmemory.New(), nil
	default:
		c.Logger.Warn(module, "Vector index disabled, retrieval will return no context", map[string]interface{}{
			"provider": vs.Provider,
		})
		return noop.New(), nil
	}
}

func (c *Container) documentRepository(db *gorm.DB, cfg *config.Config) (contract.DocumentRepository, error) {
	switch cfg.DocumentStore.Provider {
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres document store needs DB_CONNECTION_STRING")
		}
		return implementation.NewDocumentRepository(db), nil
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			c.Logger.Warn(module, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{
				"error": err.Error(),
			})
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.Logger.Warn(module, "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		return cache.NewDocumentRepository(rdb), nil
	default:
		return memory.NewDocumentRepository(), nil
	}
}

func (c *Container) eventPublisher(cfg *config.Config) events.Publisher {
	if cfg.App.NatsURL == "" {
		return events.NopPublisher{}
	}
	pub, err := pktNats.NewPublisher(cfg.App.NatsURL, c.Logger)
	if err != nil {
		c.Logger.Warn(module, "Failed to connect to NATS, events disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return events.NopPublisher{}
	}
	c.closers = append(c.closers, pub.Close)
	return pub
}

func synthesizer(cfg *config.Config) speech.Synthesizer {
	if cfg.Speech.ElevenLabsAPIKey == "" {
		return speech.NewNoopSynthesizer()
	}
	return speech.NewElevenLabs(cfg.Speech.ElevenLabsAPIKey, cfg.Speech.ElevenLabsVoice, cfg.Speech.ElevenLabsModel, cfg.Speech.Timeout)
}

func transcriber(cfg *config.Config) speech.Transcriber {
	if cfg.Speech.STTProvider != "openai" {
		return speech.NewNoopTranscriber()
	}
	return speech.NewWhisper(cfg.Ai.OpenAIAPIKey, cfg.Ai.OpenAIBaseURL, cfg.Speech.STTModel, cfg.Speech.Timeout)
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMBaseURL != "" {
		return cfg.Ai.LLMBaseURL
	}
	switch cfg.Ai.LLMProvider {
	case "ollama":
		return cfg.Ai.OllamaBaseURL
	case "openai":
		return cfg.Ai.OpenAIBaseURL
	}
	return ""
}

func llmAPIKey(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "huggingface":
		return cfg.Ai.HuggingFaceAPIKey
	case "openai":
		return cfg.Ai.OpenAIAPIKey
	}
	return ""
}
