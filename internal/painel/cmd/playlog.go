package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wrale/wrale-painel/internal/painel/playlog"
	playlogpg "github.com/wrale/wrale-painel/internal/painel/playlog/postgres"
)

func newPlaylogCmd(a *app) *cobra.Command {
	var (
		since  time.Duration
		limit  int
		device string
		output string
	)

	cmd := &cobra.Command{
		Use:   "playlog",
		Short: "List recorded play events",
		Long: `List the proof-of-play events stored in PostgreSQL, newest first.
Requires playlog.enabled and playlog.dsn.

Without --device the identifier stored in the state directory is used.`,
		Example: `  # Events of the last hour
  painel playlog

  # Last day of another device as JSON
  painel playlog --device 7d9f3c1e-... --since 24h -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Playlog.Enabled {
				return fmt.Errorf("play log disabled, set playlog.enabled and playlog.dsn")
			}

			if device == "" {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				id, err := store.Load(cmd.Context())
				store.Close()
				if err != nil {
					return fmt.Errorf("no device given and none paired: %w", err)
				}
				device = id.String()
			}

			db, err := playlogpg.Open(cmd.Context(), a.cfg.Playlog.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			rec := playlogpg.NewRecorder(db, 0, a.logger)
			events, err := rec.Events(cmd.Context(), device, time.Now().Add(-since), limit)
			if err != nil {
				return fmt.Errorf("error listing play events: %w", err)
			}

			if output != "text" {
				return printAs(cmd.OutOrStdout(), output, events)
			}
			return printEvents(cmd.OutOrStdout(), events)
		},
	}

	cmd.Flags().DurationVar(&since, "since", time.Hour, "Only events newer than this")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of events")
	cmd.Flags().StringVar(&device, "device", "", "Device identifier")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func printEvents(w io.Writer, events []playlog.Event) error {
	tw := newTabWriter(w)
	defer tw.Flush()

	fmt.Fprintf(tw, "TIME\tEVENT\tDETAIL\n")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ev.Timestamp.Local().Format(time.TimeOnly), ev.Type, eventDetail(ev))
	}
	return nil
}

func eventDetail(ev playlog.Event) string {
	switch ev.Type {
	case playlog.EventTablePage:
		return fmt.Sprintf("page %d/%d", ev.Page+1, ev.TotalPages)
	case playlog.EventItemCompleted:
		return fmt.Sprintf("#%d %s %s (%s, %s)", ev.ItemIndex, ev.ItemKind, ev.Source, ev.Reason, ev.Elapsed.Round(time.Millisecond))
	case playlog.EventSnapshotAccepted:
		return strconv.FormatUint(ev.Fingerprint, 16)
	}
	return ev.Detail
}
