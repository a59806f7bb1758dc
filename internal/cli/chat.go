package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ai-tutor-be/internal/dto"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	chatNoRAG bool
	chatFile  string
	chatSpeak bool
	chatGreet bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant over indexed material",
	Long: `Chat keeps conversation memory for the whole run. With --file the
document is indexed first and answers are grounded in it.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoRAG, "no-rag", false, "Answer without retrieval")
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "Index this file before chatting")
	chatCmd.Flags().BoolVar(&chatSpeak, "speak", false, "Synthesize every reply")
	chatCmd.Flags().BoolVar(&chatGreet, "greet", true, "Print a greeting first")
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if chatFile != "" {
		data, err := os.ReadFile(chatFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", chatFile, err)
		}
		uploaded, err := rt.container.DocumentService.Upload(ctx, &dto.UploadDocumentRequest{
			Namespace: namespace,
			Filename:  filepath.Base(chatFile),
			Content:   data,
		})
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		renderUpload(out, uploaded)
	}

	if chatGreet {
		g := rt.container.ChatService.Greet(ctx)
		tutorColor.Fprintln(out, g.Greeting)
	}

	return chatLoop(ctx, rt.container.ChatService, uuid.NewString(), cmd.InOrStdin(), out)
}

type chatDriver interface {
	ChatText(ctx context.Context, req *dto.ChatTextRequest) (*dto.ChatResponse, error)
}

func chatLoop(ctx context.Context, chat chatDriver, sessionID string, in io.Reader, out io.Writer) error {
	useRAG := !chatNoRAG
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		c := parseLearnerInput(scanner.Text())
		switch c.kind {
		case cmdEmpty:
			continue
		case cmdQuit:
			return nil
		}

		res, err := chat.ChatText(ctx, &dto.ChatTextRequest{
			Text:      scanner.Text(),
			SessionId: sessionID,
			UseRag:    &useRAG,
			Namespace: namespace,
			Speak:     chatSpeak,
		})
		if err != nil {
			if recoverable(err) {
				warnColor.Fprintln(out, err.Error())
				continue
			}
			return err
		}
		renderChat(out, res)
	}
}
