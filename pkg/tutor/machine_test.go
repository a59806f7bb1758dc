package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/rag/chunker"
	"ai-tutor-be/pkg/rag/prompt"
	"ai-tutor-be/pkg/rag/retriever"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/quiz"
	"ai-tutor-be/pkg/tutor/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoLLM answers quiz prompts in the quiz line format and everything else with a fixed line.
type echoLLM struct {
	fail  bool
	calls int
}

func (e *echoLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	e.calls++
	if e.fail {
		return "", apperror.Generation(errors.New("quota exceeded"))
	}
	last := history[len(history)-1].Content
	if strings.Contains(last, "CORRECT:") {
		return "QUESTION: Which letter is this section about?\nA) X\nB) The section letter\nC) Y\nD) Z\nCORRECT: B", nil
	}
	return "tutor says", nil
}

func (e *echoLLM) Generate(ctx context.Context, p string, options ...llm.Option) (string, error) {
	return e.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: p}}, options...)
}

type failingQuestions struct{ err error }

func (f failingQuestions) GenerateQuestion(ctx context.Context, section store.Section) (store.QuizQuestion, error) {
	return store.QuizQuestion{}, f.err
}

type fixedRetriever struct{ ctx string }

func (f fixedRetriever) Retrieve(ctx context.Context, q retriever.Query) store.RetrievalResult {
	if f.ctx == "" {
		return store.RetrievalResult{}
	}
	return store.RetrievalResult{
		Chunks:  []store.ScoredChunk{{Chunk: store.Chunk{ID: "c1", Text: f.ctx}, Score: 0.9}},
		Context: f.ctx,
	}
}

const correct, wrong = 1, 0

func newMachine(provider llm.LLMProvider) *Machine {
	log := logger.NewNopLogger()
	prompts := prompt.NewBuilder(0)
	return NewMachine(provider, quiz.NewEngine(provider, prompts, log), fixedRetriever{ctx: "related text"}, prompts, log, Options{MaxAttempts: 5, HistoryMaxTurns: 20})
}

func document(t *testing.T, text string, sections int) *store.Document {
	t.Helper()
	doc := &store.Document{ID: "doc-1", Namespace: "bio", RawText: text}
	_, err := chunker.New(chunker.Options{ForceSections: sections}).SplitDocument(doc)
	require.NoError(t, err)
	require.Len(t, doc.Sections, sections)
	return doc
}

func TestStartThreeSections(t *testing.T) {
	m := newMachine(&echoLLM{})

	s, res, err := m.Start(context.Background(), "tutoring_abc", document(t, "A\n\nB\n\nC", 3))
	require.NoError(t, err)

	assert.Equal(t, 0, res.SectionIndex)
	assert.Equal(t, state.AwaitingAnswer, res.State)
	assert.Equal(t, TypeIntro, res.Type)
	assert.Equal(t, 3, res.TotalSections)
	require.NotNil(t, res.Quiz)
	assert.Len(t, res.Quiz.Options, 4)
	assert.Equal(t, "tutor says", res.Introduction)

	assert.Equal(t, "tutoring_abc", s.ID)
	assert.Equal(t, string(state.AwaitingAnswer), s.State)
	require.NotNil(t, s.PendingQuiz)
	assert.Equal(t, correct, s.PendingQuiz.CorrectIndex)
	assert.Len(t, s.Progress, 3)
}

func TestStartWithoutSections(t *testing.T) {
	_, _, err := newMachine(&echoLLM{}).Start(context.Background(), "s", &store.Document{ID: "d"})
	assert.True(t, errors.Is(err, apperror.ErrEmptyDocument))
}

func TestCorrectAnswerThenAdvance(t *testing.T) {
	m := newMachine(&echoLLM{})
	s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB", 2))
	require.NoError(t, err)

	s, res, err := m.SubmitAnswer(context.Background(), s, correct)
	require.NoError(t, err)
	assert.IsType(t, &QuizCompleteResult{}, res)
	assert.Equal(t, state.QuizComplete, res.Base().State)
	assert.Nil(t, s.PendingQuiz)
	assert.True(t, s.Progress[0].Correct)

	s, res, err = m.Advance(context.Background(), s)
	require.NoError(t, err)
	sec, ok := res.(*SectionResult)
	require.True(t, ok)
	assert.Equal(t, 1, sec.SectionIndex)
	assert.Equal(t, state.AwaitingAnswer, sec.State)
	assert.Equal(t, 1, s.CurrentSectionIndex)
	assert.False(t, sec.NeedsReview)
}

func TestLastSectionCompletes(t *testing.T) {
	m := newMachine(&echoLLM{})
	s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB", 2))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		s, _, err = m.SubmitAnswer(context.Background(), s, correct)
		require.NoError(t, err)
		var res Result
		s, res, err = m.Advance(context.Background(), s)
		require.NoError(t, err)
		if i == 1 {
			done, ok := res.(*CompleteResult)
			require.True(t, ok)
			assert.Equal(t, state.Complete, done.State)
			assert.Empty(t, done.ReviewSections)
		}
	}
	assert.Equal(t, string(state.Complete), s.State)

	_, _, err = m.SubmitAnswer(context.Background(), s, correct)
	assert.True(t, errors.Is(err, apperror.ErrInvalidState))

	_, _, err = m.Handle(context.Background(), s, Input{Message: "hello?"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidState))
}

func TestWrongAnswerRemediates(t *testing.T) {
	m := newMachine(&echoLLM{})
	s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB", 2))
	require.NoError(t, err)
	quizBefore := *s.PendingQuiz

	s, res, err := m.SubmitAnswer(context.Background(), s, wrong)
	require.NoError(t, err)
	again, ok := res.(*AwaitingAnswerResult)
	require.True(t, ok)
	assert.Equal(t, state.AwaitingAnswer, again.State)
	assert.Equal(t, 1, again.Attempts)
	assert.Equal(t, 4, again.AttemptsRemaining)
	assert.Equal(t, quizBefore.Question, again.Quiz.Question)
	assert.Equal(t, 1, s.ExplanationAttempts)
	assert.Equal(t, 0, s.CurrentSectionIndex)

	s, res, err = m.SubmitAnswer(context.Background(), s, correct)
	require.NoError(t, err)
	assert.Equal(t, state.QuizComplete, res.Base().State)
	assert.Equal(t, 0, s.ExplanationAttempts)
	assert.Equal(t, 2, s.Progress[0].Attempts)
}

func TestFiveWrongAnswersForceAdvance(t *testing.T) {
	m := newMachine(&echoLLM{})
	s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB\n\nC", 3))
	require.NoError(t, err)

	var res Result
	for i := 0; i < 4; i++ {
		s, res, err = m.SubmitAnswer(context.Background(), s, wrong)
		require.NoError(t, err)
		assert.Equal(t, state.AwaitingAnswer, res.Base().State)
		assert.Equal(t, 0, s.CurrentSectionIndex)
	}

	s, res, err = m.SubmitAnswer(context.Background(), s, wrong)
	require.NoError(t, err)
	sec, ok := res.(*SectionResult)
	require.True(t, ok)
	assert.True(t, sec.NeedsReview)
	assert.Equal(t, 1, sec.SectionIndex)
	assert.Contains(t, sec.Feedback, "B) The section letter")
	assert.True(t, s.Progress[0].NeedsReview)
	assert.Equal(t, 0, s.ExplanationAttempts)
	assert.NotNil(t, s.PendingQuiz)
}

func TestForcedAdvanceOnLastSectionCompletes(t *testing.T) {
	m := newMachine(&echoLLM{})
	s, _, err := m.Start(context.Background(), "s1", document(t, "only one section", 1))
	require.NoError(t, err)

	var res Result
	for i := 0; i < 5; i++ {
		s, res, err = m.SubmitAnswer(context.Background(), s, wrong)
		require.NoError(t, err)
	}
	done, ok := res.(*CompleteResult)
	require.True(t, ok)
	assert.True(t, done.NeedsReview)
	assert.Equal(t, []string{s.Sections[0].Title}, done.ReviewSections)
}

func TestFailedTurnLeavesSessionUntouched(t *testing.T) {
	provider := &echoLLM{}
	log := logger.NewNopLogger()
	prompts := prompt.NewBuilder(0)
	good := NewMachine(provider, quiz.NewEngine(provider, prompts, log), nil, prompts, log, Options{})
	bad := NewMachine(provider, failingQuestions{err: apperror.QuizParse(errors.New("garbled"))}, nil, prompts, log, Options{})

	s, _, err := good.Start(context.Background(), "s1", document(t, "A\n\nB", 2))
	require.NoError(t, err)
	s, _, err = good.SubmitAnswer(context.Background(), s, correct)
	require.NoError(t, err)
	before := s.Clone()

	next, res, err := bad.Advance(context.Background(), s)
	assert.True(t, errors.Is(err, apperror.ErrQuizParse))
	assert.Nil(t, next)
	assert.Nil(t, res)
	assert.Equal(t, before, s)
}

func TestGenerationFailureDegrades(t *testing.T) {
	provider := &echoLLM{}
	m := newMachine(provider)
	s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB", 2))
	require.NoError(t, err)

	provider.fail = true
	s, res, err := m.SubmitAnswer(context.Background(), s, wrong)
	require.NoError(t, err)
	again := res.(*AwaitingAnswerResult)
	assert.Equal(t, prompt.FallbackRemediation(s.Sections[0]), again.Explanation)
}

func TestHandleRoutesInput(t *testing.T) {
	m := newMachine(&echoLLM{})
	s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB", 2))
	require.NoError(t, err)

	// clarifying question keeps state and attempts
	next, res, err := m.Handle(context.Background(), s, Input{Message: "Why is that important?"})
	require.NoError(t, err)
	clar, ok := res.(*ClarificationResult)
	require.True(t, ok)
	assert.True(t, clar.RAGUsed)
	assert.Equal(t, state.AwaitingAnswer, clar.State)
	assert.Equal(t, s.ExplanationAttempts, next.ExplanationAttempts)
	assert.Equal(t, s.PendingQuiz, next.PendingQuiz)
	assert.Len(t, next.History, len(s.History)+2)

	// a letter is an answer
	next, res, err = m.Handle(context.Background(), next, Input{Message: "b"})
	require.NoError(t, err)
	assert.Equal(t, state.QuizComplete, res.Base().State)

	// "next" advances
	next, res, err = m.Handle(context.Background(), next, Input{Message: "Next!"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Base().SectionIndex)

	opt := wrong
	_, res, err = m.Handle(context.Background(), next, Input{Option: &opt})
	require.NoError(t, err)
	assert.Equal(t, TypeAwaitingAnswer, res.Base().Type)

	_, _, err = m.Handle(context.Background(), next, Input{})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestAdvanceRequiresPassedQuiz(t *testing.T) {
	m := newMachine(&echoLLM{})
	s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB", 2))
	require.NoError(t, err)

	_, _, err = m.Advance(context.Background(), s)
	assert.True(t, errors.Is(err, apperror.ErrInvalidState))

	_, _, err = m.SubmitAnswer(context.Background(), s, 9)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestSameInputsSameStates(t *testing.T) {
	run := func() []string {
		m := newMachine(&echoLLM{})
		s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB\n\nC", 3))
		require.NoError(t, err)
		trace := []string{s.State}
		for _, opt := range []int{wrong, correct, -1, wrong, wrong, correct, -1, correct, -1} {
			var res Result
			if opt < 0 {
				s, res, err = m.Advance(context.Background(), s)
			} else {
				s, res, err = m.SubmitAnswer(context.Background(), s, opt)
			}
			require.NoError(t, err)
			trace = append(trace, string(res.Base().State), string(rune('0'+s.CurrentSectionIndex)))
		}
		return trace
	}
	assert.Equal(t, run(), run())
}

func TestHistoryIsCapped(t *testing.T) {
	provider := &echoLLM{}
	log := logger.NewNopLogger()
	prompts := prompt.NewBuilder(0)
	m := NewMachine(provider, quiz.NewEngine(provider, prompts, log), nil, prompts, log, Options{HistoryMaxTurns: 4})

	s, _, err := m.Start(context.Background(), "s1", document(t, "A\n\nB", 2))
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		s, _, err = m.Ask(context.Background(), s, "question?")
		require.NoError(t, err)
	}
	assert.Len(t, s.History, 4)
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	assert.True(t, strings.HasPrefix(id, "tutoring_"))
	assert.Len(t, id, len("tutoring_")+8)
	assert.NotEqual(t, id, NewSessionID())
}
