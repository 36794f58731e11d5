// Package cmd implements the painel commands
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wrale/wrale-painel/internal/painel/config"
	"github.com/wrale/wrale-painel/internal/painel/logging"
)

// app carries the state shared by every command of one invocation
type app struct {
	cfgFile string
	server  string
	debug   bool

	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "painel",
		Short: "Price board and promotional video player",
		Long: `painel drives an unattended TV screen in a retail store. It pairs
with the backend using a short code, polls the device configuration and
cycles between price table pages and promotional videos.

The screen itself is a kiosk browser page attached to the local websocket
served by "painel run".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is painel.yaml in ., $HOME/.painel or /etc/painel)")
	rootCmd.PersistentFlags().StringVar(&a.server, "server", "", "backend base URL")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(a),
		newPairCmd(a),
		newUnpairCmd(a),
		newStatusCmd(a),
		newSnapshotCmd(a),
		newConfigCmd(a),
		newPlaylogCmd(a),
		newVersionCmd(a),
	)

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// init loads the configuration, letting command line flags override it
func (a *app) init(logOut io.Writer) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.server != "" {
		cfg.Server = a.server
	}
	if a.debug {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("error configuring logging: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
