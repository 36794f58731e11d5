package cmd

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the player configuration",
	}
	cmd.AddCommand(newConfigViewCmd(a))
	return cmd
}

// newConfigViewCmd prints the effective configuration after the config
// file, PAINEL_* variables and flags have been merged
func newConfigViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Display the effective configuration",
		Long: `Display the configuration after merging defaults, the config file,
.env, PAINEL_* environment variables and command line flags. Secrets are
masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
