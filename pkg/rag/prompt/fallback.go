package prompt

import (
	"fmt"
	"strings"

	"ai-tutor-be/pkg/store"
)

// Static texts used when the text-generation collaborator is unavailable.

func FallbackIntroduction(sectionCount int) string {
	return fmt.Sprintf("Welcome! We'll go through this document's %d sections one at a time, and you can ask me questions whenever you like. After each section there's a quick quiz to make sure everything's clear.", sectionCount)
}

func FallbackNarration(section store.Section) string {
	return fmt.Sprintf("Let's look at %s. %s", section.Title, Truncate(strings.TrimSpace(section.Text), 500))
}

func FallbackRemediation(section store.Section) string {
	return fmt.Sprintf("Not quite. Take another look at %s and think about what it says on this point, then try again.", section.Title)
}

func FallbackCorrect() string {
	return "Correct, well done!"
}

func FallbackCompletion(sectionCount int, needsReview []string) string {
	msg := fmt.Sprintf("Congratulations! You've completed all %d sections. Keep up the great work!", sectionCount)
	if len(needsReview) > 0 {
		msg += " It may help to revisit: " + strings.Join(needsReview, ", ") + "."
	}
	return msg
}

func FallbackClarification() string {
	return "I couldn't answer that right now. Could you rephrase your question about this section?"
}

func FallbackGreeting() string {
	return "Hello! I'm your AI tutor. How can I help you today?"
}

func FallbackUploadComment(filename string, sectionCount int) string {
	return fmt.Sprintf("Great! I've processed %s and found %d sections. I'm ready to answer questions about it!", filename, sectionCount)
}

func FallbackChat() string {
	return "Sorry, I can't answer right now. Please try again in a moment."
}

// QuizMessage renders a question the way it is shown to the student.
func QuizMessage(q store.QuizQuestion) string {
	var p strings.Builder
	p.WriteString(q.Question)
	p.WriteString("\n\n")
	writeOptions(&p, q.Options)
	letters := make([]string, len(q.Options))
	for i := range q.Options {
		letters[i] = OptionLetter(i)
	}
	p.WriteString("\nPlease select your answer (" + strings.Join(letters, ", ") + ").")
	return p.String()
}
