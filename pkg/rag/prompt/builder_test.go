package prompt

import (
	"strings"
	"testing"

	"ai-tutor-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

var cells = store.Section{Index: 0, Title: "Cells", Text: "Cells are the basic unit of life."}

func TestSectionTextIsTruncated(t *testing.T) {
	b := NewBuilder(10)
	long := store.Section{Title: "Long", Text: strings.Repeat("x", 50)}

	p := b.Narration(long)
	assert.Contains(t, p, strings.Repeat("x", 10)+"...")
	assert.NotContains(t, p, strings.Repeat("x", 11))
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "ab", Truncate("ab", 5))
	assert.Equal(t, "é...", Truncate("éé", 3))
}

func TestQuizPromptStrictVariant(t *testing.T) {
	b := NewBuilder(0)
	normal := b.Quiz(cells, false)
	strict := b.Quiz(cells, true)

	assert.Contains(t, normal, "CORRECT:")
	assert.NotContains(t, normal, "could not be read")
	assert.Contains(t, strict, "could not be read")
}

func TestRemediationNamesWrongOption(t *testing.T) {
	q := store.QuizQuestion{Question: "What is a cell?", Options: []string{"A rock", "Unit of life"}, CorrectIndex: 1}

	p := NewBuilder(0).Remediation(cells, q, 0, 2)
	assert.Contains(t, p, "Student answered: A) A rock")
	assert.Contains(t, p, "attempt 2")
	assert.Contains(t, p, "Do not reveal the correct option")
}

func TestContextPrompt(t *testing.T) {
	assert.Equal(t, "why?", Context("", "why?"))
	p := Context("cells divide", "why?")
	assert.Contains(t, p, "<reference_material>\ncells divide\n</reference_material>")
	assert.True(t, strings.HasSuffix(p, "why?\n</user_question>"))
}

func TestCompletionListsReviewSections(t *testing.T) {
	b := NewBuilder(0)
	assert.NotContains(t, b.Completion(3, nil), "needs_review")
	assert.Contains(t, b.Completion(3, []string{"Energy"}), "- Energy")
	assert.Contains(t, FallbackCompletion(3, []string{"Energy", "Water"}), "Energy, Water")
}

func TestQuizMessage(t *testing.T) {
	q := store.QuizQuestion{Question: "Pick one", Options: []string{"x", "y", "z"}}
	assert.Equal(t, "Pick one\n\nA) x\nB) y\nC) z\n\nPlease select your answer (A, B, C).", QuizMessage(q))
}
