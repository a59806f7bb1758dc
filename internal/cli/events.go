package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/pkg/events"
	pktNats "ai-tutor-be/pkg/nats"

	"github.com/spf13/cobra"
)

var (
	eventsSubject string
	eventsDurable string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail tutoring and indexing events from NATS",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsSubject, "subject", pktNats.SubjectPrefix+">", "Subject filter")
	eventsCmd.Flags().StringVar(&eventsDurable, "durable", "", "Durable consumer name (ephemeral when empty)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		return fmt.Errorf("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	err = sub.Subscribe(ctx, eventsSubject, eventsDurable, func(ctx context.Context, evt events.Event) error {
		payload, _ := json.Marshal(evt.Payload())
		dimColor.Fprintf(out, "%s ", evt.Timestamp().Format("15:04:05"))
		headingColor.Fprintf(out, "%s ", evt.EventType())
		fmt.Fprintln(out, string(payload))
		return nil
	})
	if err != nil {
		return err
	}

	dimColor.Fprintf(out, "listening on %s, ctrl-c to stop\n", eventsSubject)
	<-ctx.Done()
	return nil
}
