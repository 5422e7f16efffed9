package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/SpecView/pkg/axis"
)

var (
	// Flags for fetch command
	fetchUSI     string
	fetchSources string
	fetchStore   string
	fetchJSON    string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Retrieve a spectrum by USI from PROXI repositories",
	Long: `Query the configured PROXI sources for a USI. All sources are asked at
once; the first success in priority order is used.

Examples:
  specview fetch --usi mzspec:PXD000561:Adult_Frontalcortex_bRP_Elite_85_f09:scan:17555
  specview fetch --usi mzspec:... --sources PRIDE,MassIVE --store spectra.db --json spectrum.json`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchUSI, "usi", "", "Universal Spectrum Identifier (required)")
	fetchCmd.Flags().StringVar(&fetchSources, "sources", "", "Comma-separated sources in priority order (config default if empty)")
	fetchCmd.Flags().StringVar(&fetchStore, "store", "", "Persist the spectrum to this SQLite store")
	fetchCmd.Flags().StringVar(&fetchJSON, "json", "", "Write the spectrum as JSON to this file")

	fetchCmd.MarkFlagRequired("usi")
}

func runFetch(cmd *cobra.Command, args []string) error {
	var names []string
	if fetchSources != "" {
		for _, n := range strings.Split(fetchSources, ",") {
			names = append(names, strings.TrimSpace(n))
		}
	}
	store := fetchStore
	if store == "" {
		store = cfg.Store.Path
	}

	client, cleanup, err := newFetcher(names, store)
	if err != nil {
		return err
	}
	defer cleanup()

	spec, err := client.Fetch(cmd.Context(), fetchUSI)
	if err != nil {
		return err
	}

	fmt.Printf("USI: %s\n", fetchUSI)
	fmt.Printf("Peaks: %d\n", spec.Len())
	if mz, ok := axis.ExtentOf(spec.MZs); ok {
		fmt.Printf("m/z range: %.4f - %.4f\n", mz.Min, mz.Max)
	}
	for _, a := range spec.Attributes {
		fmt.Printf("  %s = %s\n", a.Name, a.Value)
	}
	if store != "" {
		fmt.Printf("Stored in: %s\n", store)
	}

	if fetchJSON != "" {
		data, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode spectrum: %w", err)
		}
		if err := os.WriteFile(fetchJSON, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", fetchJSON, err)
		}
		fmt.Printf("Output: %s\n", fetchJSON)
	}
	return nil
}
