package state

import (
	"errors"
	"testing"

	"ai-tutor-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonPath(t *testing.T) {
	s := Intro
	var err error
	for _, e := range []Event{EventPresent, EventPoseQuiz, EventAnswerWrong, EventPoseQuiz, EventAnswerCorrect, EventAdvance, EventPoseQuiz, EventAnswerCorrect, EventFinish} {
		s, err = Next(s, e)
		require.NoError(t, err, "event %s", e)
	}
	assert.Equal(t, Complete, s)
	assert.True(t, s.Terminal())
}

func TestForcedAdvanceFromReviewing(t *testing.T) {
	s, err := Next(Reviewing, EventAdvance)
	require.NoError(t, err)
	assert.Equal(t, PresentingSection, s)

	s, err = Next(Reviewing, EventFinish)
	require.NoError(t, err)
	assert.Equal(t, Complete, s)
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		from State
		e    Event
	}{
		{Complete, EventAnswerCorrect},
		{Complete, EventClarify},
		{QuizComplete, EventAnswerWrong},
		{AwaitingAnswer, EventAdvance},
		{Intro, EventPoseQuiz},
	}
	for _, tt := range tests {
		s, err := Next(tt.from, tt.e)
		assert.True(t, errors.Is(err, apperror.ErrInvalidState), "%s -> %s", tt.from, tt.e)
		assert.Equal(t, tt.from, s)
		assert.False(t, tt.from.Can(tt.e))
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("awaiting_answer")
	require.NoError(t, err)
	assert.Equal(t, AwaitingAnswer, s)

	_, err = Parse("section_qna")
	assert.Error(t, err)
}
