package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/tutor"
	"ai-tutor-be/pkg/tutor/state"

	"github.com/spf13/cobra"
)

var learnSpeak bool

var learnCmd = &cobra.Command{
	Use:   "learn <file>",
	Short: "Upload a document and learn it section by section",
	Long: `Learn indexes the file, then walks through it one section at a time.
Answer quizzes with A-D, type 'next' to move on, 'quit' to stop.
Anything else is sent to the tutor as a question or reply.`,
	Args: cobra.ExactArgs(1),
	RunE: runLearn,
}

func init() {
	learnCmd.Flags().BoolVar(&learnSpeak, "speak", false, "Synthesize every tutor message")
}

func runLearn(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	uploaded, err := rt.container.DocumentService.Upload(ctx, &dto.UploadDocumentRequest{
		Namespace: namespace,
		Filename:  filepath.Base(args[0]),
		Content:   data,
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	renderUpload(out, uploaded)
	fmt.Fprintln(out)

	res, err := rt.container.TutoringService.Start(ctx, &dto.StartTutoringRequest{
		DocumentId: uploaded.DocumentId,
		Speak:      learnSpeak,
	})
	if err != nil {
		return fmt.Errorf("start lesson: %w", err)
	}
	renderResult(out, res)

	return lessonLoop(ctx, rt.container.TutoringService, res.Base().SessionID, cmd.InOrStdin(), out)
}

type lessonDriver interface {
	Turn(ctx context.Context, req *dto.TutoringTurnRequest) (tutor.Result, error)
	Answer(ctx context.Context, req *dto.SubmitAnswerRequest) (tutor.Result, error)
	Advance(ctx context.Context, req *dto.AdvanceRequest) (tutor.Result, error)
}

// lessonLoop reads learner input until the lesson completes, the learner
// quits or input ends.
func lessonLoop(ctx context.Context, lessons lessonDriver, sessionID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		var (
			res tutor.Result
			err error
		)
		switch c := parseLearnerInput(scanner.Text()); c.kind {
		case cmdEmpty:
			continue
		case cmdQuit:
			return nil
		case cmdAdvance:
			res, err = lessons.Advance(ctx, &dto.AdvanceRequest{SessionId: sessionID, Speak: learnSpeak})
		case cmdAnswer:
			option := c.option
			res, err = lessons.Answer(ctx, &dto.SubmitAnswerRequest{SessionId: sessionID, Option: &option, Speak: learnSpeak})
		default:
			res, err = lessons.Turn(ctx, &dto.TutoringTurnRequest{SessionId: sessionID, Message: c.message, Speak: learnSpeak})
		}

		if err != nil {
			if recoverable(err) {
				warnColor.Fprintln(out, err.Error())
				continue
			}
			return err
		}

		renderResult(out, res)
		if res.Base().State == state.Complete {
			return nil
		}
	}
}

// recoverable errors leave the session as it was, so the learner can retry.
func recoverable(err error) bool {
	for _, target := range []error{apperror.ErrInvalidState, apperror.ErrValidation, apperror.ErrGeneration, apperror.ErrQuizParse} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
