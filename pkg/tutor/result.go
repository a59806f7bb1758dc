package tutor

import (
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/state"
)

const (
	TypeIntro          = "intro"
	TypeAwaitingAnswer = "awaiting_answer"
	TypeQuizComplete   = "quiz_complete"
	TypeSection        = "section"
	TypeClarification  = "clarification"
	TypeComplete       = "complete"
)

// Result is one of the concrete *Result types below.
type Result interface {
	Base() *Turn
}

// Turn holds the fields every tutoring response shares.
type Turn struct {
	Type          string      `json:"type"`
	SessionID     string      `json:"session_id"`
	State         state.State `json:"state"`
	SectionIndex  int         `json:"section_index"`
	SectionTitle  string      `json:"section_title"`
	TotalSections int         `json:"total_sections"`
	Message       string      `json:"message"`
	// NeedsReview is set when this turn moved past a section the learner did not master.
	NeedsReview bool   `json:"needs_review"`
	AudioURL    string `json:"audio_url,omitempty"`
}

func (t *Turn) Base() *Turn { return t }

// QuizView is a question as shown to the learner. The correct answer is never exposed.
type QuizView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func NewQuizView(q *store.QuizQuestion) *QuizView {
	if q == nil {
		return nil
	}
	return &QuizView{Question: q.Question, Options: append([]string(nil), q.Options...)}
}

type SectionView struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

func newSectionView(s store.Section) *SectionView {
	return &SectionView{Index: s.Index, Title: s.Title, Text: s.Text}
}

type IntroResult struct {
	Turn
	Introduction string       `json:"introduction"`
	Narration    string       `json:"narration"`
	Section      *SectionView `json:"section"`
	Quiz         *QuizView    `json:"quiz"`
}

// AwaitingAnswerResult follows a wrong answer: a re-explanation and the same question again.
type AwaitingAnswerResult struct {
	Turn
	Explanation       string    `json:"explanation"`
	Attempts          int       `json:"attempts"`
	AttemptsRemaining int       `json:"attempts_remaining"`
	Quiz              *QuizView `json:"quiz"`
}

type QuizCompleteResult struct {
	Turn
	Feedback string `json:"feedback"`
	Correct  bool   `json:"correct"`
}

// SectionResult presents the next section and its quiz.
// Feedback is filled when the advance was forced by the wrong-answer cap.
type SectionResult struct {
	Turn
	Feedback  string       `json:"feedback,omitempty"`
	Narration string       `json:"narration"`
	Section   *SectionView `json:"section"`
	Quiz      *QuizView    `json:"quiz"`
}

type ClarificationResult struct {
	Turn
	Answer  string    `json:"answer"`
	RAGUsed bool      `json:"rag_used"`
	Quiz    *QuizView `json:"quiz,omitempty"`
}

type CompleteResult struct {
	Turn
	Feedback       string                  `json:"feedback,omitempty"`
	Summary        string                  `json:"summary"`
	ReviewSections []string                `json:"sections_needing_review"`
	Progress       []store.SectionProgress `json:"progress"`
}
