package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/SpecView/pkg/reader/msp"
)

var (
	// Flags for summarize command
	summaryFormat string
	summaryMods   string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize spectral library contents",
	Long:  `Print summary statistics about a spectral library including spectrum count, m/z range, charge states and the fraction of annotated peaks.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVarP(&summaryFormat, "from", "f", "", "Input format: msp, sptxt (auto-detect if not specified)")
	summarizeCmd.Flags().StringVar(&summaryMods, "mods", "", "CSV of custom modifications (Name,Mass)")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	r, closer, err := openLibrary(args[0], summaryFormat, summaryMods)
	if err != nil {
		return err
	}
	defer closer.Close()

	s, err := msp.Summarize(r)
	if err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	fmt.Printf("Library: %s\n", args[0])
	fmt.Printf("Spectra: %d\n", s.Entries)
	fmt.Printf("Peaks: %d\n", s.Peaks)
	if s.Peaks > 0 {
		fmt.Printf("m/z range: %.4f - %.4f\n", s.MZ.Min, s.MZ.Max)
	}
	fmt.Printf("Annotated peaks: %d (%.1f%%)\n", s.Annotated, 100*s.AnnotatedFraction())

	charges := make([]int, 0, len(s.Charges))
	for z := range s.Charges {
		charges = append(charges, z)
	}
	sort.Ints(charges)
	for _, z := range charges {
		fmt.Printf("  charge %d: %d\n", z, s.Charges[z])
	}
	return nil
}
