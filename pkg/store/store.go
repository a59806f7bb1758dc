package store

import "time"

// Document is an uploaded source text. It is immutable once chunked.
type Document struct {
	ID         string    `json:"id"`
	Namespace  string    `json:"namespace"`
	Title      string    `json:"title"`
	RawText    string    `json:"raw_text"`
	Sections   []Section `json:"sections"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Section is a titled, non-overlapping slice of a Document used for lesson pacing.
// Concatenating every Section.Text of a document reproduces the raw text.
type Section struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
}

type ChunkMetadata struct {
	ChunkIndex int `json:"chunk_index"`
	StartChar  int `json:"start_char"`
	EndChar    int `json:"end_char"`
}

// Chunk is an overlapping retrieval window over a Document.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Namespace  string        `json:"namespace"`
	Text       string        `json:"text"`
	Metadata   ChunkMetadata `json:"metadata"`
}

type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// RetrievalResult holds the ranked chunks that fit the context budget and
// the concatenated context string built from them.
type RetrievalResult struct {
	Chunks  []ScoredChunk `json:"chunks"`
	Context string        `json:"context"`
}

func (r RetrievalResult) IsEmpty() bool {
	return len(r.Chunks) == 0
}

// QuizQuestion is a multiple choice question with 2 to 4 options.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConversationTurn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SectionProgress tracks how a learner did on one section.
type SectionProgress struct {
	Attempts    int  `json:"attempts"`
	Correct     bool `json:"correct"`
	NeedsReview bool `json:"needs_review"`
}

// TutoringSession is the resumable state of one lesson.
// Sections is shared read-only; everything else is owned by the session.
type TutoringSession struct {
	ID                  string             `json:"session_id"`
	DocumentID          string             `json:"document_id"`
	Namespace           string             `json:"namespace"`
	Sections            []Section          `json:"sections"`
	CurrentSectionIndex int                `json:"current_section_index"`
	State               string             `json:"state"`
	ExplanationAttempts int                `json:"explanation_attempts"`
	History             []ConversationTurn `json:"conversation_history"`
	PendingQuiz         *QuizQuestion      `json:"pending_quiz,omitempty"`
	Progress            []SectionProgress  `json:"progress"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// CurrentSection returns the section being taught, or false once the lesson is past the end.
func (s *TutoringSession) CurrentSection() (Section, bool) {
	if s.CurrentSectionIndex < 0 || s.CurrentSectionIndex >= len(s.Sections) {
		return Section{}, false
	}
	return s.Sections[s.CurrentSectionIndex], true
}

// Clone copies every mutable part of the session. Sections stay shared.
func (s *TutoringSession) Clone() *TutoringSession {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]ConversationTurn(nil), s.History...)
	c.Progress = append([]SectionProgress(nil), s.Progress...)
	if s.PendingQuiz != nil {
		q := *s.PendingQuiz
		q.Options = append([]string(nil), s.PendingQuiz.Options...)
		c.PendingQuiz = &q
	}
	return &c
}
