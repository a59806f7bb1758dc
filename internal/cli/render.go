package cli

import (
	"fmt"
	"io"
	"strings"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/pkg/tutor"

	"github.com/fatih/color"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	tutorColor   = color.New(color.FgGreen)
	quizColor    = color.New(color.FgYellow)
	warnColor    = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

func setColor(enabled bool) {
	color.NoColor = !enabled
}

var optionLetters = []string{"A", "B", "C", "D"}

// renderResult prints one tutoring turn the way a learner reads it.
func renderResult(w io.Writer, res tutor.Result) {
	base := res.Base()
	if base.TotalSections > 0 && base.SectionTitle != "" {
		headingColor.Fprintf(w, "[%d/%d] %s\n", base.SectionIndex+1, base.TotalSections, base.SectionTitle)
	}

	switch r := res.(type) {
	case *tutor.IntroResult:
		tutorColor.Fprintln(w, r.Introduction)
		fmt.Fprintln(w)
		tutorColor.Fprintln(w, r.Narration)
		renderQuiz(w, r.Quiz)
	case *tutor.SectionResult:
		if r.Feedback != "" {
			warnColor.Fprintln(w, r.Feedback)
		}
		tutorColor.Fprintln(w, r.Narration)
		renderQuiz(w, r.Quiz)
	case *tutor.AwaitingAnswerResult:
		tutorColor.Fprintln(w, r.Explanation)
		dimColor.Fprintf(w, "attempts %d, %d remaining\n", r.Attempts, r.AttemptsRemaining)
		renderQuiz(w, r.Quiz)
	case *tutor.QuizCompleteResult:
		tutorColor.Fprintln(w, r.Feedback)
		dimColor.Fprintln(w, "type 'next' to continue")
	case *tutor.ClarificationResult:
		tutorColor.Fprintln(w, r.Answer)
		if r.RAGUsed {
			dimColor.Fprintln(w, "(answered from your document)")
		}
		renderQuiz(w, r.Quiz)
	case *tutor.CompleteResult:
		if r.Feedback != "" {
			tutorColor.Fprintln(w, r.Feedback)
		}
		headingColor.Fprintln(w, "Lesson complete")
		tutorColor.Fprintln(w, r.Summary)
		if len(r.ReviewSections) > 0 {
			warnColor.Fprintf(w, "Review: %s\n", strings.Join(r.ReviewSections, ", "))
		}
	default:
		tutorColor.Fprintln(w, base.Message)
	}

	if base.AudioURL != "" {
		dimColor.Fprintf(w, "audio: %s\n", base.AudioURL)
	}
}

func renderQuiz(w io.Writer, q *tutor.QuizView) {
	if q == nil {
		return
	}
	fmt.Fprintln(w)
	quizColor.Fprintln(w, q.Question)
	for i, opt := range q.Options {
		if i >= len(optionLetters) {
			break
		}
		quizColor.Fprintf(w, "  %s) %s\n", optionLetters[i], opt)
	}
}

func renderChat(w io.Writer, res *dto.ChatResponse) {
	if res.Transcription != "" {
		dimColor.Fprintf(w, "you said: %s\n", res.Transcription)
	}
	tutorColor.Fprintln(w, res.Reply)
	if res.RagUsed {
		dimColor.Fprintf(w, "sources: %s\n", strings.Join(res.Sources, ", "))
	}
	if res.AudioUrl != "" {
		dimColor.Fprintf(w, "audio: %s\n", res.AudioUrl)
	}
}

func renderUpload(w io.Writer, res *dto.UploadDocumentResponse) {
	headingColor.Fprintf(w, "%s (%s)\n", res.Title, res.DocumentId)
	dimColor.Fprintf(w, "%d chunks, %d indexed, namespace %s\n", res.ChunksCount, res.ChunksIndexed, res.Namespace)
	for _, s := range res.Sections {
		fmt.Fprintf(w, "  %d. %s\n", s.Index+1, s.Title)
	}
}
