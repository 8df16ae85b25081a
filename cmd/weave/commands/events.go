package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/weave/internal/hermes"
	"github.com/MikeSquared-Agency/weave/internal/printer"
)

var eventsSubject string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail Weave events from NATS",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsSubject, "subject", hermes.SubjectAll, "subject to subscribe to")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	if cfg.NatsURL == "" {
		return printer.Error("NATS_URL is required", "events are read from NATS.", []string{
			"Set NATS_URL, e.g. nats://localhost:4222",
		})
	}

	client, err := hermes.NewClient(cmd.Context(), cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		return printer.Error("Failed to connect to NATS", err.Error(), nil)
	}
	defer client.Close()

	err = client.Subscribe(eventsSubject, func(subject string, data []byte) {
		fmt.Println(printer.Event(time.Now(), subject, data))
	})
	if err != nil {
		return printer.Error("Failed to subscribe", err.Error(), nil)
	}

	printer.Step("watching %s (ctrl-c to stop)\n", eventsSubject)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}
