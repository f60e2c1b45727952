// Command formwizard serves the carbon report wizard in the browser and in
// the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/formwizard/internal/config"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
)

// Version set via ldflags during build
var version = "dev"

var rootFlags struct {
	configPath string
}

// Loaded in PersistentPreRunE for every subcommand.
var (
	cfg    *config.Config
	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "formwizard",
	Short:         "Multi-step carbon report form wizard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(rootFlags.configPath)
		if err != nil {
			return err
		}
		logger = cfg.NewLogger()
		logging.SetDefault(logger)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	// Needs no config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "formwizard %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configPath, "config", "c", "",
		"config file (default: ./"+config.ProjectPath+" when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if logger != nil {
		// stderr sync fails on some platforms; nothing to do about it.
		_ = logging.Sync(logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
