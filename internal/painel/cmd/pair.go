package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/pairing"
)

func newPairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pair CODE",
		Short: "Pair this device with the backend",
		Long: `Exchange the short code shown on the backend for a durable device
identifier and store it in the state directory.

A running "painel run" keeps the state database open; pair through the
setup screen of the kiosk page instead.`,
		Example: `  # Pair using the code shown in the backend
  painel pair A4X9B2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			backend, err := a.backend()
			if err != nil {
				return err
			}

			svc := pairing.NewService(backend, store, a.logger)
			id, err := svc.Pair(cmd.Context(), args[0])
			if err != nil {
				var perr *perrors.Error
				if errors.As(err, &perr) {
					return fmt.Errorf("FALHA NO PAREAMENTO: %s", perr.Message)
				}
				return fmt.Errorf("FALHA NO PAREAMENTO: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Paired as %s\n", id)
			return nil
		},
	}
}

func newUnpairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unpair",
		Short: "Forget the paired device identifier",
		Long: `Remove the stored device identifier. The next "painel run" shows the
setup screen again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			svc := pairing.NewService(nil, store, a.logger)
			if err := svc.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("error removing device identifier: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Device identifier removed")
			return nil
		},
	}
}
