package cli

import (
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdMessage commandKind = iota
	cmdAnswer
	cmdAdvance
	cmdQuit
	cmdEmpty
)

type learnerCommand struct {
	kind    commandKind
	option  int
	message string
}

// parseLearnerInput maps a line typed during a lesson to a command.
// A single letter A-D or digit 1-4 answers the pending quiz.
func parseLearnerInput(line string) learnerCommand {
	text := strings.TrimSpace(line)
	lower := strings.ToLower(text)

	switch lower {
	case "":
		return learnerCommand{kind: cmdEmpty}
	case "next", "n", "continue", "skip":
		return learnerCommand{kind: cmdAdvance}
	case "quit", "exit", "q", ":q":
		return learnerCommand{kind: cmdQuit}
	}

	if len(lower) == 1 {
		if c := lower[0]; c >= 'a' && c <= 'd' {
			return learnerCommand{kind: cmdAnswer, option: int(c - 'a')}
		}
		if n, err := strconv.Atoi(lower); err == nil && n >= 1 && n <= 4 {
			return learnerCommand{kind: cmdAnswer, option: n - 1}
		}
	}
	return learnerCommand{kind: cmdMessage, message: text}
}
