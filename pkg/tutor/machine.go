package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/rag/history"
	"ai-tutor-be/pkg/rag/prompt"
	"ai-tutor-be/pkg/rag/retriever"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/quiz"
	"ai-tutor-be/pkg/tutor/state"

	"github.com/google/uuid"
)

const module = "TUTOR"

// QuestionGenerator produces the quiz for a section.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, section store.Section) (store.QuizQuestion, error)
}

// ContextRetriever supplies related chunks for clarifying questions.
type ContextRetriever interface {
	Retrieve(ctx context.Context, q retriever.Query) store.RetrievalResult
}

type Options struct {
	// MaxAttempts is the number of wrong answers after which the lesson moves on anyway.
	MaxAttempts     int
	HistoryMaxTurns int
}

// Machine drives a lesson. Every operation works on a copy of the session and
// returns the updated copy only when the whole turn succeeded, so a failed
// turn leaves the caller's session untouched.
type Machine struct {
	llm       llm.LLMProvider
	questions QuestionGenerator
	retriever ContextRetriever
	prompts   *prompt.Builder
	logger    logger.ILogger
	opts      Options
	now       func() time.Time
}

func NewMachine(provider llm.LLMProvider, questions QuestionGenerator, ret ContextRetriever, prompts *prompt.Builder, log logger.ILogger, opts Options) *Machine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.HistoryMaxTurns <= 0 {
		opts.HistoryMaxTurns = 20
	}
	return &Machine{
		llm:       provider,
		questions: questions,
		retriever: ret,
		prompts:   prompts,
		logger:    log,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NewSessionID issues an opaque session token.
func NewSessionID() string {
	return "tutoring_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Input is one learner turn. Option takes precedence over Action, Action over Message.
type Input struct {
	Message string
	Option  *int
	Action  string
}

const ActionAdvance = "advance"

var advanceWords = map[string]bool{
	"next": true, "continue": true, "advance": true, "move on": true, "ready": true, "go on": true,
}

// Start opens a lesson on doc: introduction, first section and its quiz.
func (m *Machine) Start(ctx context.Context, sessionID string, doc *store.Document) (*store.TutoringSession, *IntroResult, error) {
	if len(doc.Sections) == 0 {
		return nil, nil, apperror.EmptyDocument(fmt.Sprintf("document %s has no sections", doc.ID))
	}
	now := m.now()
	s := &store.TutoringSession{
		ID:         sessionID,
		DocumentID: doc.ID,
		Namespace:  doc.Namespace,
		Sections:   doc.Sections,
		State:      string(state.Intro),
		Progress:   make([]store.SectionProgress, len(doc.Sections)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	intro := m.say(ctx, nil, m.prompts.Introduction(len(s.Sections)), prompt.FallbackIntroduction(len(s.Sections)))
	m.remember(s, store.RoleAssistant, intro)

	res, err := m.presentSection(ctx, s)
	if err != nil {
		return nil, nil, err
	}

	m.logger.Info(module, "Tutoring session started", map[string]interface{}{
		"session_id":  s.ID,
		"document_id": s.DocumentID,
		"sections":    len(s.Sections),
	})
	out := &IntroResult{
		Turn:         res.Turn,
		Introduction: intro,
		Narration:    res.Narration,
		Section:      res.Section,
		Quiz:         res.Quiz,
	}
	out.Type = TypeIntro
	out.Message = intro + "\n\n" + res.Message
	return s, out, nil
}

// Handle routes a free-form turn: option selections are graded, advance
// commands advance, anything else is answered as a clarifying question.
func (m *Machine) Handle(ctx context.Context, cur *store.TutoringSession, in Input) (*store.TutoringSession, Result, error) {
	st, err := state.Parse(cur.State)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindInternal, "corrupt session state", err)
	}
	if st.Terminal() {
		_, err := state.Next(st, state.EventClarify)
		return nil, nil, err
	}

	if in.Option != nil {
		return m.SubmitAnswer(ctx, cur, *in.Option)
	}
	if strings.EqualFold(strings.TrimSpace(in.Action), ActionAdvance) {
		return m.Advance(ctx, cur)
	}

	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, nil, apperror.Validation("message, option or action is required")
	}
	if st == state.AwaitingAnswer && cur.PendingQuiz != nil {
		if opt, ok := quiz.ParseOption(msg, len(cur.PendingQuiz.Options)); ok {
			return m.SubmitAnswer(ctx, cur, opt)
		}
	}
	if st == state.QuizComplete && advanceWords[strings.ToLower(strings.Trim(msg, ".!"))] {
		return m.Advance(ctx, cur)
	}
	s, res, err := m.Ask(ctx, cur, msg)
	if err != nil {
		return nil, nil, err
	}
	return s, res, nil
}

// SubmitAnswer grades option against the pending quiz.
func (m *Machine) SubmitAnswer(ctx context.Context, cur *store.TutoringSession, option int) (*store.TutoringSession, Result, error) {
	st, err := state.Parse(cur.State)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindInternal, "corrupt session state", err)
	}
	if !st.Can(state.EventAnswerCorrect) || cur.PendingQuiz == nil {
		_, err := state.Next(st, state.EventAnswerCorrect)
		if err == nil {
			err = apperror.InvalidState("no quiz question is pending")
		}
		return nil, nil, err
	}
	if !quiz.ValidOption(*cur.PendingQuiz, option) {
		return nil, nil, apperror.Validation(fmt.Sprintf("option must be between A and %s", prompt.OptionLetter(len(cur.PendingQuiz.Options)-1)))
	}

	s := cur.Clone()
	section, _ := s.CurrentSection()
	q := *s.PendingQuiz
	m.remember(s, store.RoleUser, prompt.OptionLetter(option)+") "+q.Options[option])
	s.Progress[s.CurrentSectionIndex].Attempts++

	if quiz.Grade(q, option) {
		return m.answerCorrect(ctx, s, section, q)
	}
	return m.answerWrong(ctx, s, section, q, option)
}

func (m *Machine) answerCorrect(ctx context.Context, s *store.TutoringSession, section store.Section, q store.QuizQuestion) (*store.TutoringSession, Result, error) {
	if err := m.transition(s, state.EventAnswerCorrect); err != nil {
		return nil, nil, err
	}
	s.Progress[s.CurrentSectionIndex].Correct = true
	s.PendingQuiz = nil
	s.ExplanationAttempts = 0

	feedback := m.say(ctx, nil, m.prompts.CorrectFeedback(section, q), prompt.FallbackCorrect())
	m.remember(s, store.RoleAssistant, feedback)

	res := &QuizCompleteResult{Turn: m.turn(s, TypeQuizComplete, feedback), Feedback: feedback, Correct: true}
	return s, res, nil
}

func (m *Machine) answerWrong(ctx context.Context, s *store.TutoringSession, section store.Section, q store.QuizQuestion, option int) (*store.TutoringSession, Result, error) {
	if err := m.transition(s, state.EventAnswerWrong); err != nil {
		return nil, nil, err
	}
	s.ExplanationAttempts++

	if s.ExplanationAttempts >= m.opts.MaxAttempts {
		s.Progress[s.CurrentSectionIndex].NeedsReview = true
		m.logger.Info(module, "Attempt cap reached, advancing", map[string]interface{}{
			"session_id": s.ID,
			"section":    s.CurrentSectionIndex,
			"attempts":   s.ExplanationAttempts,
		})
		feedback := fmt.Sprintf("The correct answer was %s) %s. Let's move on, and we'll mark %q for review.",
			prompt.OptionLetter(q.CorrectIndex), q.Options[q.CorrectIndex], section.Title)
		m.remember(s, store.RoleAssistant, feedback)
		return m.advance(ctx, s, feedback, true)
	}

	explanation := m.say(ctx, s.History, m.prompts.Remediation(section, q, option, s.ExplanationAttempts), prompt.FallbackRemediation(section))
	if err := m.transition(s, state.EventPoseQuiz); err != nil {
		return nil, nil, err
	}
	message := explanation + "\n\n" + prompt.QuizMessage(q)
	m.remember(s, store.RoleAssistant, message)

	res := &AwaitingAnswerResult{
		Turn:              m.turn(s, TypeAwaitingAnswer, message),
		Explanation:       explanation,
		Attempts:          s.ExplanationAttempts,
		AttemptsRemaining: m.opts.MaxAttempts - s.ExplanationAttempts,
		Quiz:              NewQuizView(s.PendingQuiz),
	}
	return s, res, nil
}

// Advance moves past a passed quiz to the next section, or completes the lesson.
func (m *Machine) Advance(ctx context.Context, cur *store.TutoringSession) (*store.TutoringSession, Result, error) {
	st, err := state.Parse(cur.State)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindInternal, "corrupt session state", err)
	}
	if st != state.QuizComplete {
		_, err := state.Next(st, state.EventAdvance)
		if err == nil {
			err = apperror.InvalidState(fmt.Sprintf("cannot advance while %s", st))
		}
		return nil, nil, err
	}
	return m.advance(ctx, cur.Clone(), "", false)
}

// advance expects s to be an owned copy in quiz_complete or reviewing.
func (m *Machine) advance(ctx context.Context, s *store.TutoringSession, feedback string, forced bool) (*store.TutoringSession, Result, error) {
	s.CurrentSectionIndex++
	s.ExplanationAttempts = 0
	s.PendingQuiz = nil

	if s.CurrentSectionIndex >= len(s.Sections) {
		res, err := m.complete(ctx, s)
		if err != nil {
			return nil, nil, err
		}
		res.NeedsReview = forced
		res.Feedback = feedback
		if feedback != "" {
			res.Message = feedback + "\n\n" + res.Message
		}
		return s, res, nil
	}

	if err := m.transition(s, state.EventAdvance); err != nil {
		return nil, nil, err
	}
	res, err := m.presentSection(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	res.NeedsReview = forced
	res.Feedback = feedback
	if feedback != "" {
		res.Message = feedback + "\n\n" + res.Message
	}
	return s, res, nil
}

// presentSection narrates the current section and poses its quiz. s must be
// in intro or presenting_section.
func (m *Machine) presentSection(ctx context.Context, s *store.TutoringSession) (*SectionResult, error) {
	if state.State(s.State) == state.Intro {
		if err := m.transition(s, state.EventPresent); err != nil {
			return nil, err
		}
	}
	section, ok := s.CurrentSection()
	if !ok {
		return nil, apperror.InvalidState("no section to present")
	}

	narration := m.say(ctx, nil, m.prompts.Narration(section), prompt.FallbackNarration(section))
	q, err := m.questions.GenerateQuestion(ctx, section)
	if err != nil {
		return nil, err
	}
	if err := m.transition(s, state.EventPoseQuiz); err != nil {
		return nil, err
	}
	s.PendingQuiz = &q

	message := narration + "\n\n" + prompt.QuizMessage(q)
	m.remember(s, store.RoleAssistant, message)

	return &SectionResult{
		Turn:      m.turn(s, TypeSection, message),
		Narration: narration,
		Section:   newSectionView(section),
		Quiz:      NewQuizView(s.PendingQuiz),
	}, nil
}

func (m *Machine) complete(ctx context.Context, s *store.TutoringSession) (*CompleteResult, error) {
	if err := m.transition(s, state.EventFinish); err != nil {
		return nil, err
	}
	s.CurrentSectionIndex = len(s.Sections) - 1

	review := NeedsReview(s)
	summary := m.say(ctx, nil, m.prompts.Completion(len(s.Sections), review), prompt.FallbackCompletion(len(s.Sections), review))
	m.remember(s, store.RoleAssistant, summary)

	m.logger.Info(module, "Tutoring session completed", map[string]interface{}{
		"session_id":   s.ID,
		"needs_review": len(review),
	})
	return &CompleteResult{
		Turn:           m.turn(s, TypeComplete, summary),
		Summary:        summary,
		ReviewSections: review,
		Progress:       append([]store.SectionProgress(nil), s.Progress...),
	}, nil
}

// Ask answers a clarifying question from the current section plus retrieved
// context. State and attempt counts are unchanged.
func (m *Machine) Ask(ctx context.Context, cur *store.TutoringSession, question string) (*store.TutoringSession, *ClarificationResult, error) {
	st, err := state.Parse(cur.State)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindInternal, "corrupt session state", err)
	}
	if _, err := state.Next(st, state.EventClarify); err != nil {
		return nil, nil, err
	}
	section, _ := cur.CurrentSection()

	var related store.RetrievalResult
	if m.retriever != nil {
		related = m.retriever.Retrieve(ctx, retriever.Query{
			Text:       question,
			Namespace:  cur.Namespace,
			DocumentID: cur.DocumentID,
		})
	}

	s := cur.Clone()
	priorTurns := s.History
	m.remember(s, store.RoleUser, question)
	answer := m.say(ctx, priorTurns, m.prompts.Clarification(section, related.Context, question), prompt.FallbackClarification())
	m.remember(s, store.RoleAssistant, answer)

	return s, &ClarificationResult{
		Turn:    m.turn(s, TypeClarification, answer),
		Answer:  answer,
		RAGUsed: !related.IsEmpty(),
		Quiz:    NewQuizView(s.PendingQuiz),
	}, nil
}

// NeedsReview lists the titles of sections flagged for review, in lesson order.
func NeedsReview(s *store.TutoringSession) []string {
	var out []string
	for i, p := range s.Progress {
		if p.NeedsReview && i < len(s.Sections) {
			out = append(out, s.Sections[i].Title)
		}
	}
	return out
}

// say asks the collaborator for text and falls back to a static message when it fails.
func (m *Machine) say(ctx context.Context, turns []store.ConversationTurn, userPrompt, fallback string) string {
	out, err := m.llm.Chat(ctx, history.Conversation(prompt.SystemPrompt, turns, userPrompt))
	if err != nil || strings.TrimSpace(out) == "" {
		m.logger.Warn(module, "Generation failed, using fallback text", map[string]interface{}{
			"error": fmt.Sprint(err),
		})
		return fallback
	}
	return strings.TrimSpace(out)
}

func (m *Machine) remember(s *store.TutoringSession, role, text string) {
	s.History = history.Append(s.History, role, text, m.opts.HistoryMaxTurns)
	s.UpdatedAt = m.now()
}

func (m *Machine) transition(s *store.TutoringSession, e state.Event) error {
	next, err := state.Next(state.State(s.State), e)
	if err != nil {
		return err
	}
	s.State = string(next)
	return nil
}

func (m *Machine) turn(s *store.TutoringSession, typ, message string) Turn {
	t := Turn{
		Type:          typ,
		SessionID:     s.ID,
		State:         state.State(s.State),
		SectionIndex:  s.CurrentSectionIndex,
		TotalSections: len(s.Sections),
		Message:       message,
	}
	if sec, ok := s.CurrentSection(); ok {
		t.SectionTitle = sec.Title
	}
	return t
}
