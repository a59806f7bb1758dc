package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/rag/history"
	"ai-tutor-be/pkg/rag/prompt"
	"ai-tutor-be/pkg/speech"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/patrickmn/go-cache"
)

const uploadModule = "UPLOAD"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// UploadComments holds the generated upload commentary per document for a limited time.
type UploadComments struct {
	cache *cache.Cache
}

func NewUploadComments(ttl time.Duration) *UploadComments {
	return &UploadComments{cache: cache.New(ttl, 2*ttl)}
}

func (u *UploadComments) Put(c *dto.UploadCommentResponse) {
	u.cache.SetDefault(c.DocumentId, c)
}

func (u *UploadComments) Get(documentID string) (*dto.UploadCommentResponse, bool) {
	x, ok := u.cache.Get(documentID)
	if !ok {
		return nil, false
	}
	c := *x.(*dto.UploadCommentResponse)
	return &c, true
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	llm       llm.LLMProvider
	speaker   *speech.Speaker
	comments  *UploadComments
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	llmProvider llm.LLMProvider,
	speaker *speech.Speaker,
	comments *UploadComments,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		llm:       llmProvider,
		speaker:   speaker,
		comments:  comments,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: commentary is best effort and a retry would only repeat the same calls.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.UploadCommentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(uploadModule, "Failed to unmarshal upload comment job", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	comment := prompt.FallbackUploadComment(payload.Filename, payload.Sections)
	reply, err := cs.llm.Chat(ctx, history.Conversation(prompt.SystemPrompt, nil, prompt.UploadComment(payload.Filename, payload.Sections)))
	if err != nil || strings.TrimSpace(reply) == "" {
		cs.logger.Warn(uploadModule, "Upload comment generation failed, using fallback", map[string]interface{}{
			"document_id": payload.DocumentId,
			"error":       errString(err),
		})
	} else {
		comment = strings.TrimSpace(reply)
	}

	result := &dto.UploadCommentResponse{
		DocumentId: payload.DocumentId,
		Comment:    comment,
		AudioUrl:   cs.speaker.Speak(ctx, "comment", comment),
	}
	cs.comments.Put(result)

	cs.logger.Info(uploadModule, "Upload comment ready", map[string]interface{}{
		"document_id": payload.DocumentId,
		"audio":       result.AudioUrl != "",
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
