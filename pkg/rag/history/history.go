package history

import (
	"time"

	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/store"
)

// Append adds a turn and drops the oldest turns beyond maxTurns.
// A non-positive maxTurns keeps everything.
func Append(turns []store.ConversationTurn, role, text string, maxTurns int) []store.ConversationTurn {
	turns = append(turns, store.ConversationTurn{Role: role, Text: text, Timestamp: time.Now().UTC()})
	return Window(turns, maxTurns)
}

// Window returns the last maxTurns turns. The result never aliases the
// dropped prefix so the backing array does not grow without bound.
func Window(turns []store.ConversationTurn, maxTurns int) []store.ConversationTurn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	out := make([]store.ConversationTurn, maxTurns)
	copy(out, turns[len(turns)-maxTurns:])
	return out
}

// ToMessages converts stored turns into LLM chat messages, oldest first.
func ToMessages(turns []store.ConversationTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Text})
	}
	return messages
}

// Conversation builds a full chat request: system prompt, recent history, then the new user prompt.
func Conversation(system string, turns []store.ConversationTurn, userPrompt string) []llm.Message {
	messages := make([]llm.Message, 0, len(turns)+2)
	if system != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	}
	messages = append(messages, ToMessages(turns)...)
	return append(messages, llm.Message{Role: llm.RoleUser, Content: userPrompt})
}
