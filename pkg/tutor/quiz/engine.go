package quiz

import (
	"context"
	"errors"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/rag/history"
	"ai-tutor-be/pkg/rag/prompt"
	"ai-tutor-be/pkg/store"
)

const module = "QUIZ"

// Engine asks the text-generation collaborator for a question and grades answers locally.
type Engine struct {
	llm     llm.LLMProvider
	prompts *prompt.Builder
	logger  logger.ILogger
}

func NewEngine(provider llm.LLMProvider, prompts *prompt.Builder, log logger.ILogger) *Engine {
	return &Engine{llm: provider, prompts: prompts, logger: log}
}

// GenerateQuestion makes one attempt with the normal prompt and, if the reply
// cannot be parsed, one more with the strict prompt. Generation failures are
// returned as they are.
func (e *Engine) GenerateQuestion(ctx context.Context, section store.Section) (store.QuizQuestion, error) {
	q, err := e.attempt(ctx, section, false)
	if err == nil || !errors.Is(err, apperror.ErrQuizParse) {
		return q, err
	}

	e.logger.Warn(module, "Quiz reply unparseable, retrying with strict prompt", map[string]interface{}{
		"section": section.Title,
		"error":   err.Error(),
	})
	q, err = e.attempt(ctx, section, true)
	if err != nil {
		e.logger.Error(module, "Quiz generation failed", map[string]interface{}{
			"section": section.Title,
			"error":   err,
		})
	}
	return q, err
}

func (e *Engine) attempt(ctx context.Context, section store.Section, strict bool) (store.QuizQuestion, error) {
	reply, err := e.llm.Chat(ctx, history.Conversation(prompt.SystemPrompt, nil, e.prompts.Quiz(section, strict)),
		llm.WithTemperature(0.3))
	if err != nil {
		return store.QuizQuestion{}, err
	}
	return ParseQuiz(reply)
}

// Grade is a pure comparison against the correct index.
func Grade(q store.QuizQuestion, option int) bool {
	return option == q.CorrectIndex
}

// ValidOption reports whether option addresses one of q's options.
func ValidOption(q store.QuizQuestion, option int) bool {
	return option >= 0 && option < len(q.Options)
}
