package quiz

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"
)

const (
	MinOptions = 2
	MaxOptions = 4
)

var (
	questionRe = regexp.MustCompile(`^(?i:question)\s*[:.]\s*(.+)$`)
	optionRe   = regexp.MustCompile(`^\(?([A-Da-d])\s*[).:]\s*(.+)$`)
	correctRe  = regexp.MustCompile(`^(?i:correct(?:\s+answer)?)\s*[:.]\s*\(?([A-Da-d])\b`)
)

// ParseQuiz reads the line format requested by the quiz prompt:
//
//	QUESTION: ...
//	A) ...
//	B) ...
//	CORRECT: B
//
// Markdown emphasis and surrounding chatter are ignored. Anything that does not
// yield one question, 2 to 4 options and a correct letter within range fails
// with apperror.KindQuizParse.
func ParseQuiz(text string) (store.QuizQuestion, error) {
	var (
		q       store.QuizQuestion
		letters []byte
		correct byte
	)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.NewReplacer("**", "", "__", "", "`", "").Replace(raw))
		line = strings.TrimSpace(strings.TrimLeft(line, "-*# "))
		if line == "" {
			continue
		}

		if m := questionRe.FindStringSubmatch(line); m != nil && q.Question == "" {
			q.Question = strings.TrimSpace(m[1])
			continue
		}
		if m := correctRe.FindStringSubmatch(line); m != nil {
			correct = strings.ToUpper(m[1])[0]
			continue
		}
		if m := optionRe.FindStringSubmatch(line); m != nil && q.Question != "" {
			letter := strings.ToUpper(m[1])[0]
			// options must come in order A, B, C, D
			if int(letter-'A') != len(letters) {
				continue
			}
			letters = append(letters, letter)
			q.Options = append(q.Options, strings.TrimSpace(m[2]))
		}
	}

	switch {
	case q.Question == "":
		return store.QuizQuestion{}, apperror.QuizParse(errors.New("no QUESTION line"))
	case len(q.Options) < MinOptions || len(q.Options) > MaxOptions:
		return store.QuizQuestion{}, apperror.QuizParse(fmt.Errorf("got %d options, want %d to %d", len(q.Options), MinOptions, MaxOptions))
	case correct == 0:
		return store.QuizQuestion{}, apperror.QuizParse(errors.New("no CORRECT line"))
	case int(correct-'A') >= len(q.Options):
		return store.QuizQuestion{}, apperror.QuizParse(fmt.Errorf("correct option %c is not among %d options", correct, len(q.Options)))
	}
	q.CorrectIndex = int(correct - 'A')
	return q, nil
}

// ParseOption recognises a quiz answer typed as a letter ("b", "B)", "(c)")
// or a 1-based number ("2", "2."), optionally prefixed by "option" or "answer".
// Free text such as "a cell is..." is not an answer.
func ParseOption(input string, optionCount int) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(input))
	for _, prefix := range []string{"OPTION", "ANSWER", "MY ANSWER IS", "ANSWER:"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok && (rest == "" || rest[0] == ' ' || rest[0] == ':') {
			s = strings.TrimSpace(strings.TrimLeft(rest, ": "))
		}
	}
	s = strings.TrimPrefix(s, "(")
	if s == "" {
		return 0, false
	}

	var idx int
	switch c := s[0]; {
	case c >= 'A' && c <= 'Z':
		idx = int(c - 'A')
	case c >= '1' && c <= '9':
		idx = int(c - '1')
	default:
		return 0, false
	}
	if idx >= optionCount {
		return 0, false
	}

	rest := s[1:]
	if rest == "" || rest == "." || rest == ")" || strings.HasPrefix(rest, ")") || strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, ". ") {
		return idx, true
	}
	return 0, false
}
