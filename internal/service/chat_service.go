package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/rag/history"
	"ai-tutor-be/pkg/rag/prompt"
	"ai-tutor-be/pkg/rag/retriever"
	"ai-tutor-be/pkg/speech"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const chatModule = "CHAT"

type IChatService interface {
	ChatText(ctx context.Context, req *dto.ChatTextRequest) (*dto.ChatResponse, error)
	ChatVoice(ctx context.Context, req *dto.ChatVoiceRequest) (*dto.ChatResponse, error)
	Greet(ctx context.Context) *dto.GreetingResponse
	Transcribe(ctx context.Context, filename string, audio []byte) (*dto.TranscriptionResponse, error)
}

type chatMemory struct {
	mu    sync.Mutex
	turns []store.ConversationTurn
}

type ChatOptions struct {
	HistoryMaxTurns int
	// MemoryTTL is how long an idle chat session keeps its history.
	MemoryTTL time.Duration
}

type chatService struct {
	llm         llm.LLMProvider
	retriever   tutor.ContextRetriever
	transcriber speech.Transcriber
	speaker     *speech.Speaker
	memory      *cache.Cache
	memoryMu    sync.Mutex
	opts        ChatOptions
	logger      logger.ILogger
}

func NewChatService(
	llmProvider llm.LLMProvider,
	ret tutor.ContextRetriever,
	transcriber speech.Transcriber,
	speaker *speech.Speaker,
	log logger.ILogger,
	opts ChatOptions,
) IChatService {
	if opts.MemoryTTL <= 0 {
		opts.MemoryTTL = time.Hour
	}
	return &chatService{
		llm:         llmProvider,
		retriever:   ret,
		transcriber: transcriber,
		speaker:     speaker,
		memory:      cache.New(opts.MemoryTTL, 10*time.Minute),
		opts:        opts,
		logger:      log,
	}
}

type chatTurn struct {
	sessionID  string
	text       string
	useRAG     bool
	namespace  string
	documentID string
	speak      bool
}

func (s *chatService) ChatText(ctx context.Context, req *dto.ChatTextRequest) (*dto.ChatResponse, error) {
	useRAG := req.UseRag == nil || *req.UseRag
	return s.chat(ctx, chatTurn{
		sessionID:  req.SessionId,
		text:       req.Text,
		useRAG:     useRAG,
		namespace:  req.Namespace,
		documentID: req.DocumentId,
		speak:      req.Speak,
	})
}

func (s *chatService) ChatVoice(ctx context.Context, req *dto.ChatVoiceRequest) (*dto.ChatResponse, error) {
	transcription, err := s.Transcribe(ctx, req.Filename, req.Audio)
	if err != nil {
		return nil, err
	}
	res, err := s.chat(ctx, chatTurn{
		sessionID:  req.SessionId,
		text:       transcription.Text,
		useRAG:     req.UseRag != "false",
		namespace:  req.Namespace,
		documentID: req.DocumentId,
		speak:      true,
	})
	if err != nil {
		return nil, err
	}
	res.Transcription = transcription.Text
	return res, nil
}

// chat answers one message. Generation failures return a fallback reply rather than an error.
func (s *chatService) chat(ctx context.Context, t chatTurn) (*dto.ChatResponse, error) {
	text := strings.TrimSpace(t.text)
	if text == "" {
		return nil, apperror.Validation("text is required")
	}
	if t.sessionID == "" {
		t.sessionID = uuid.NewString()
	}
	if t.namespace == "" {
		t.namespace = DefaultNamespace
	}

	mem := s.session(t.sessionID)
	mem.mu.Lock()
	defer mem.mu.Unlock()

	var retrieved store.RetrievalResult
	if t.useRAG {
		retrieved = s.retriever.Retrieve(ctx, retriever.Query{
			Text:       text,
			Namespace:  t.namespace,
			DocumentID: t.documentID,
		})
	}

	userPrompt := prompt.Context(retrieved.Context, text)
	reply, err := s.llm.Chat(ctx, history.Conversation(prompt.SystemPrompt, mem.turns, userPrompt))
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		s.logger.Warn(chatModule, "Chat generation failed, using fallback", map[string]interface{}{
			"session_id": t.sessionID,
			"error":      errString(err),
		})
		reply = prompt.FallbackChat()
	} else {
		mem.turns = history.Append(mem.turns, store.RoleUser, text, s.opts.HistoryMaxTurns)
		mem.turns = history.Append(mem.turns, store.RoleAssistant, reply, s.opts.HistoryMaxTurns)
	}

	res := &dto.ChatResponse{
		SessionId: t.sessionID,
		Reply:     reply,
		RagUsed:   !retrieved.IsEmpty(),
		Sources:   sources(retrieved),
	}
	if t.speak {
		res.AudioUrl = s.speaker.Speak(ctx, "reply", reply)
	}

	s.logger.Info(chatModule, "Chat answered", map[string]interface{}{
		"session_id": t.sessionID,
		"rag_used":   res.RagUsed,
		"history":    len(mem.turns),
	})
	return res, nil
}

func (s *chatService) session(id string) *chatMemory {
	s.memoryMu.Lock()
	defer s.memoryMu.Unlock()
	if x, ok := s.memory.Get(id); ok {
		// touch to extend the idle expiry
		s.memory.SetDefault(id, x)
		return x.(*chatMemory)
	}
	m := &chatMemory{}
	s.memory.SetDefault(id, m)
	return m
}

func sources(r store.RetrievalResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.Chunks {
		if !seen[c.Chunk.DocumentID] {
			seen[c.Chunk.DocumentID] = true
			out = append(out, c.Chunk.DocumentID)
		}
	}
	return out
}

func (s *chatService) Greet(ctx context.Context) *dto.GreetingResponse {
	greeting, err := s.llm.Chat(ctx, history.Conversation(prompt.SystemPrompt, nil, prompt.Greeting()))
	greeting = strings.TrimSpace(greeting)
	if err != nil || greeting == "" {
		s.logger.Warn(chatModule, "Greeting generation failed, using fallback", map[string]interface{}{
			"error": errString(err),
		})
		greeting = prompt.FallbackGreeting()
	}
	return &dto.GreetingResponse{
		Greeting: greeting,
		AudioUrl: s.speaker.Speak(ctx, "greeting", greeting),
	}
}

func (s *chatService) Transcribe(ctx context.Context, filename string, audio []byte) (*dto.TranscriptionResponse, error) {
	if len(audio) == 0 {
		return nil, apperror.Validation("empty audio file")
	}
	if !s.transcriber.IsConfigured() {
		return nil, apperror.New(apperror.KindUnavailable, "speech to text is not configured")
	}
	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnavailable, "failed to transcribe audio", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("no speech recognized in audio")
	}
	return &dto.TranscriptionResponse{Text: text}, nil
}
