package state

import (
	"fmt"

	"ai-tutor-be/pkg/apperror"
)

type State string

const (
	Intro             State = "intro"
	PresentingSection State = "presenting_section"
	AwaitingAnswer    State = "awaiting_answer"
	Reviewing         State = "reviewing"
	QuizComplete      State = "quiz_complete"
	Complete          State = "complete"
)

type Event string

const (
	EventPresent       Event = "present"
	EventPoseQuiz      Event = "pose_quiz"
	EventAnswerCorrect Event = "answer_correct"
	EventAnswerWrong   Event = "answer_wrong"
	EventClarify       Event = "clarify"
	EventAdvance       Event = "advance"
	EventFinish        Event = "finish"
)

// transitions is the complete lesson graph. Reviewing may advance or finish
// directly when the wrong-answer cap forces the lesson forward.
var transitions = map[State]map[Event]State{
	Intro: {
		EventPresent: PresentingSection,
	},
	PresentingSection: {
		EventPoseQuiz: AwaitingAnswer,
	},
	AwaitingAnswer: {
		EventAnswerCorrect: QuizComplete,
		EventAnswerWrong:   Reviewing,
		EventClarify:       AwaitingAnswer,
	},
	Reviewing: {
		EventPoseQuiz: AwaitingAnswer,
		EventAdvance:  PresentingSection,
		EventFinish:   Complete,
	},
	QuizComplete: {
		EventAdvance: PresentingSection,
		EventFinish:  Complete,
		EventClarify: QuizComplete,
	},
}

func Parse(s string) (State, error) {
	st := State(s)
	switch st {
	case Intro, PresentingSection, AwaitingAnswer, Reviewing, QuizComplete, Complete:
		return st, nil
	}
	return "", fmt.Errorf("unknown tutoring state %q", s)
}

func (s State) String() string {
	return string(s)
}

func (s State) Terminal() bool {
	return s == Complete
}

// Can reports whether e is allowed in s.
func (s State) Can(e Event) bool {
	_, ok := transitions[s][e]
	return ok
}

// Next applies e to s. Disallowed events fail with apperror.KindInvalidState.
func Next(s State, e Event) (State, error) {
	next, ok := transitions[s][e]
	if !ok {
		if s.Terminal() {
			return s, apperror.InvalidState("the tutoring session is complete, start a new session")
		}
		return s, apperror.InvalidState(fmt.Sprintf("cannot %s while %s", e, s))
	}
	return next, nil
}
