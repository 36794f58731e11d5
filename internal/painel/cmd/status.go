package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

const statusTimeout = 5 * time.Second

func newStatusCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of the running player",
		Long: `Query the local API of a running "painel run" and print the pairing
state, the display cycle position and the last poll outcome.`,
		Example: `  # Show status
  painel status

  # Status as JSON for scripting
  painel status -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := fetchStatus(cmd.Context(), a.cfg.Listen)
			if err != nil {
				return err
			}
			if output != "text" {
				return printAs(cmd.OutOrStdout(), output, st)
			}
			return printStatus(cmd.OutOrStdout(), st, time.Now())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

// fetchStatus reads the status endpoint of the player listening on listen
func fetchStatus(ctx context.Context, listen string) (*v1alpha1.PlayerStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+listen+"/api/v1alpha1/status", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player not reachable on %s: %w", listen, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player status: HTTP %d", resp.StatusCode)
	}

	var st v1alpha1.PlayerStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("error decoding status: %w", err)
	}
	return &st, nil
}

func printStatus(w io.Writer, st *v1alpha1.PlayerStatus, now time.Time) error {
	tw := newTabWriter(w)
	defer tw.Flush()

	if !st.Paired {
		fmt.Fprintf(tw, "Paired:\tno (setup screen)\n")
		fmt.Fprintf(tw, "Pages:\t%d\n", st.Connections)
		return nil
	}

	fmt.Fprintf(tw, "Device:\t%s\n", st.DeviceID)
	fmt.Fprintf(tw, "Pages:\t%d\n", st.Connections)

	if st.AcceptedAt == nil {
		fmt.Fprintf(tw, "Content:\twaiting for first snapshot\n")
	} else {
		fmt.Fprintf(tw, "Mode:\t%s\n", st.Mode)
		fmt.Fprintf(tw, "Orientation:\t%s\n", st.Orientation)
		fmt.Fprintf(tw, "Content:\t%d products, %d playlist items (%s, %s)\n",
			st.Products, st.Playlist, st.Fingerprint, formatAge(*st.AcceptedAt, now))
	}

	if st.State != "" {
		fmt.Fprintf(tw, "State:\t%s (page %d, item %d)\n", st.State, st.TablePage, st.VideoIndex)
	}

	if st.LastFetch != nil {
		fmt.Fprintf(tw, "Last poll:\t%s\n", formatAge(*st.LastFetch, now))
	}
	if st.LastError != "" {
		fmt.Fprintf(tw, "Last error:\t%s\n", st.LastError)
	}
	return nil
}
