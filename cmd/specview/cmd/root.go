// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/SpecView/pkg/config"
	"github.com/ChrisMcGann/SpecView/pkg/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string

	// Loaded by the root command before any subcommand runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "specview",
	Short: "SpecView - annotated spectrum viewer",
	Long: `SpecView renders peptide MS/MS spectra as annotated, zoomable charts.

A view holds a primary spectrum, an optional mirrored comparison spectrum and
an optional mass error panel. Zoom and scroll gestures on one panel are
propagated to the linked panels.

Spectra come from MSP or SPTXT libraries or are retrieved by USI from PROXI
repositories.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if err := logging.SetLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "specview.yaml", "Configuration file (defaults are used when missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(summarizeCmd)
}
