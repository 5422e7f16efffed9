package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/SpecView/pkg/annotate"
	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/filter"
	"github.com/ChrisMcGann/SpecView/pkg/link"
	"github.com/ChrisMcGann/SpecView/pkg/match"
	"github.com/ChrisMcGann/SpecView/pkg/panel"
	"github.com/ChrisMcGann/SpecView/pkg/proxi"
	"github.com/ChrisMcGann/SpecView/pkg/render"
	"github.com/ChrisMcGann/SpecView/pkg/view"
)

var (
	// Flags for render command
	primarySrc    spectrumSource
	mirrorSrc     spectrumSource
	modsCSV       string
	showError     bool
	errorType     string
	outputDir     string
	outputFormat  string
	outputPrefix  string
	width         int
	height        int
	gestures      []string
	normalize     bool
	hideUnmatched bool
	topN          int
	cutoffPercent float64
	ionTypes      string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a spectrum view to SVG or PNG files",
	Long: `Render the panels of a spectrum view, one file per panel.

Gestures are applied in order before writing. Each gesture is
panel:deltaX:deltaY:ctrl:x:y, e.g. primary:-300:0:true:450:120 zooms the
primary panel in around pixel (450, 120). Linked panels follow.

Examples:
  # Annotated spectrum from an MSP library
  specview render --in library.msp --entry "PEPTIDE/2" --out plots

  # Library spectrum mirrored against a repository spectrum with an error panel
  specview render --in library.msp --mirror-usi mzspec:PXD000561:file:scan:17555 --error --format png`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&primarySrc.file, "in", "i", "", "Library file of the primary spectrum")
	f.StringVarP(&primarySrc.format, "from", "f", "", "Library format: msp, sptxt (auto-detect if not specified)")
	f.StringVar(&primarySrc.entry, "entry", "", "Entry name, peptide or 0-based index (first entry if empty)")
	f.StringVar(&primarySrc.usi, "usi", "", "USI of the primary spectrum")
	f.StringVar(&primarySrc.peptide, "peptide", "", "Peptide to annotate the primary spectrum with")
	f.StringVar(&mirrorSrc.file, "mirror-in", "", "Library file of the mirror spectrum")
	f.StringVar(&mirrorSrc.format, "mirror-from", "", "Library format of the mirror file")
	f.StringVar(&mirrorSrc.entry, "mirror-entry", "", "Entry of the mirror spectrum")
	f.StringVar(&mirrorSrc.usi, "mirror-usi", "", "USI of the mirror spectrum")
	f.StringVar(&mirrorSrc.peptide, "mirror-peptide", "", "Peptide to annotate the mirror spectrum with")
	f.StringVar(&modsCSV, "mods", "", "CSV of custom modifications (Name,Mass)")
	f.BoolVar(&showError, "error", false, "Add the mass error panel")
	f.StringVar(&errorType, "error-type", "", "Error unit: ppm, Da, mmu (config default if empty)")
	f.StringVarP(&outputDir, "out", "o", ".", "Output directory")
	f.StringVar(&outputFormat, "format", "", "Image format: svg or png (config default if empty)")
	f.StringVar(&outputPrefix, "prefix", "", "File name prefix")
	f.IntVar(&width, "width", 0, "Panel width in pixels (config default if 0)")
	f.IntVar(&height, "height", 0, "Panel height in pixels (config default if 0)")
	f.StringArrayVar(&gestures, "gesture", nil, "Wheel gesture panel:dx:dy:ctrl:x:y (repeatable)")
	f.BoolVar(&normalize, "normalize", false, "Scale intensities to the base peak")
	f.BoolVar(&hideUnmatched, "hide-unmatched", false, "Hide peaks without a match")
	f.IntVar(&topN, "top-n", 0, "Show only the top N most intense peaks (0 = no limit)")
	f.Float64Var(&cutoffPercent, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	f.StringVar(&ionTypes, "ion-types", "", "Comma-separated ion types to show (e.g., 'b,y')")
}

func runRender(cmd *cobra.Command, args []string) error {
	if primarySrc.empty() {
		return fmt.Errorf("a primary spectrum is required (--in or --usi)")
	}

	rc := cfg.Render
	if outputFormat == "" {
		outputFormat = rc.Format
	}
	enc, err := render.EncoderFor(outputFormat)
	if err != nil {
		return err
	}
	events, err := parseGestures(gestures)
	if err != nil {
		return err
	}

	var client *proxi.Client
	closeClient := func() {}
	defer func() { closeClient() }()
	fetch := func() (*proxi.Client, error) {
		if client != nil {
			return client, nil
		}
		c, cleanup, err := newFetcher(nil, cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		client, closeClient = c, cleanup
		return client, nil
	}

	vc := view.Config{
		ShowError:     showError,
		ErrorType:     cfg.ErrorUnit(),
		Annotator:     annotate.NewFragment(cfg.Annotate.Tolerance),
		Normalize:     normalize || rc.Normalize,
		HideUnmatched: hideUnmatched || rc.HideUnmatched,
		PairTolerance: cfg.Annotate.PairTolerance,
		Options:       rc.Options,
		Width:         float64(rc.Width),
		Height:        float64(rc.Height),
		ErrorHeight:   float64(rc.ErrorHeight),
		Filter: filter.Config{
			TopN:            topN,
			IntensityCutoff: cutoffPercent,
		},
	}
	if width > 0 {
		vc.Width = float64(width)
	}
	if height > 0 {
		vc.Height = float64(height)
	}
	if errorType != "" {
		unit, err := match.ParseErrorType(errorType)
		if err != nil {
			return err
		}
		vc.ErrorType = unit
	}
	if ionTypes != "" {
		for _, t := range strings.Split(ionTypes, ",") {
			vc.Filter.IonTypes = append(vc.Filter.IonTypes, core.IonType(strings.TrimSpace(t)))
		}
	}

	ctx := cmd.Context()
	vc.Primary, err = primarySrc.load(ctx, modsCSV, fetch)
	if err != nil {
		return fmt.Errorf("primary spectrum: %w", err)
	}
	if !mirrorSrc.empty() {
		mirror, err := mirrorSrc.load(ctx, modsCSV, fetch)
		if err != nil {
			return fmt.Errorf("mirror spectrum: %w", err)
		}
		vc.Mirror = &mirror
	}

	v, err := view.New(vc)
	if err != nil {
		return err
	}
	defer v.Close()

	for _, g := range events {
		res, err := v.Wheel(g.target, g.event)
		if err != nil {
			return fmt.Errorf("gesture on %s: %w", g.target, err)
		}
		if res.Changed {
			fmt.Printf("Gesture on %s: x zoom %.3f, x scroll %.1f, updated %v\n",
				res.Origin, res.Change.X.Zoom, res.Change.X.Scroll, res.Updated)
		} else {
			fmt.Printf("Gesture on %s: no change\n", res.Origin)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, id := range v.IDs() {
		p, err := v.Panel(id)
		if err != nil {
			return err
		}
		path := filepath.Join(outputDir, fmt.Sprintf("%s%s.%s", outputPrefix, id, enc.Extension()))
		if err := writePanel(path, enc, p); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

func writePanel(path string, enc render.Encoder, p panel.Panel) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := enc.Encode(f, p.Scene()); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return f.Close()
}

type gesture struct {
	target link.ID
	event  panel.WheelEvent
}

func parseGestures(specs []string) ([]gesture, error) {
	out := make([]gesture, 0, len(specs))
	for _, s := range specs {
		g, err := parseGesture(s)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// parseGesture parses "panel:dx:dy:ctrl:x:y".
func parseGesture(s string) (gesture, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return gesture{}, fmt.Errorf("invalid gesture '%s', expected panel:dx:dy:ctrl:x:y", s)
	}

	var nums [4]float64
	for i, idx := range []int{1, 2, 4, 5} {
		v, err := strconv.ParseFloat(parts[idx], 64)
		if err != nil {
			return gesture{}, fmt.Errorf("invalid number '%s' in gesture '%s'", parts[idx], s)
		}
		nums[i] = v
	}
	ctrl, err := strconv.ParseBool(parts[3])
	if err != nil {
		return gesture{}, fmt.Errorf("invalid ctrl flag '%s' in gesture '%s'", parts[3], s)
	}

	return gesture{
		target: link.ID(parts[0]),
		event:  panel.WheelEvent{DeltaX: nums[0], DeltaY: nums[1], Ctrl: ctrl, X: nums[2], Y: nums[3]},
	}, nil
}
