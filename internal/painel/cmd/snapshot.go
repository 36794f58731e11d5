package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/config"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/layout"
	"github.com/wrale/wrale-painel/internal/painel/snapshot"
	snapredis "github.com/wrale/wrale-painel/internal/painel/snapshot/redis"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		output string
		fetch  bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the last known content snapshot",
		Long: `Print the content snapshot cached by the player, or fetch a fresh one
from the backend with --fetch.

The summary lists the products as the price table shows them. Use -o json
or -o yaml for the full document.`,
		Example: `  # Summary of the cached snapshot
  painel snapshot

  # Current backend content as YAML
  painel snapshot --fetch -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.Load(cmd.Context())
			if err != nil {
				if perrors.IsNotPaired(err) {
					return fmt.Errorf("device not paired, run painel pair CODE first")
				}
				return err
			}

			var content *v1alpha1.ContentSnapshot
			switch {
			case fetch:
				backend, err := a.backend()
				if err != nil {
					return err
				}
				content, err = backend.GetSnapshot(cmd.Context(), id.String())
				if err != nil {
					return fmt.Errorf("error fetching snapshot: %w", err)
				}
			case a.cfg.Cache.Backend == config.CacheRedis:
				c := snapredis.NewCache(snapredis.Options{
					Addr:     a.cfg.Cache.RedisAddr,
					Password: a.cfg.Cache.RedisPassword,
					DB:       a.cfg.Cache.RedisDB,
				})
				defer c.Close()
				content, err = c.LoadSnapshot(cmd.Context(), id)
			default:
				content, err = store.LoadSnapshot(cmd.Context(), id)
			}
			if err != nil {
				if perrors.IsNotFound(err) {
					return fmt.Errorf("no snapshot cached yet, try --fetch")
				}
				return err
			}

			if output != "text" {
				return printAs(cmd.OutOrStdout(), output, content)
			}
			return printSnapshot(cmd.OutOrStdout(), content, a.cfg.Layout)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&fetch, "fetch", false, "Fetch the snapshot from the backend instead of the cache")

	return cmd
}

func printSnapshot(w io.Writer, content *v1alpha1.ContentSnapshot, settings layout.Settings) error {
	fp, err := snapshot.Fingerprint(content)
	if err != nil {
		return err
	}
	params := settings.For(content.Config.Orientation)

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Title:\t%s\n", content.Config.Title)
	fmt.Fprintf(tw, "Mode:\t%s\n", content.Config.Mode)
	fmt.Fprintf(tw, "Orientation:\t%s\n", params.Orientation)
	fmt.Fprintf(tw, "Fingerprint:\t%s\n", strconv.FormatUint(fp, 16))
	fmt.Fprintf(tw, "Table pages:\t%d\n", layout.TotalPages(len(content.Products), params.Capacity))
	tw.Flush()

	fmt.Fprintln(w)
	tw = newTabWriter(w)
	fmt.Fprintf(tw, "CODE\tPRODUCT\tPRICE\tOFFER\n")
	for _, p := range content.Products {
		offer := ""
		if p.OnOffer {
			offer = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Code, p.DisplayName(), layout.FormatPrice(p.Price), offer)
	}
	tw.Flush()

	if len(content.Playlist) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw = newTabWriter(w)
	defer tw.Flush()
	fmt.Fprintf(tw, "#\tKIND\tITEM\tSOURCE\n")
	for i, item := range content.Playlist {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, item.RawKind(), item.Label(), item.Source())
	}
	return nil
}
