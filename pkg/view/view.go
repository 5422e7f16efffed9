// Package view composes a primary spectrum panel with an optional mirror
// panel and an optional mass-error panel, and keeps their viewports linked.
//
// A View is not safe for concurrent use. Hosts serialise calls per view.
package view

import (
	"errors"
	"fmt"
	"math"

	"github.com/ChrisMcGann/SpecView/pkg/annotate"
	"github.com/ChrisMcGann/SpecView/pkg/axis"
	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/filter"
	"github.com/ChrisMcGann/SpecView/pkg/link"
	"github.com/ChrisMcGann/SpecView/pkg/logging"
	"github.com/ChrisMcGann/SpecView/pkg/match"
	"github.com/ChrisMcGann/SpecView/pkg/panel"
	"github.com/ChrisMcGann/SpecView/pkg/viewport"
)

// Panel identifiers inside a view.
const (
	PrimaryID link.ID = "primary"
	MirrorID  link.ID = "mirror"
	ErrorID   link.ID = "error"
)

// ErrUnknownPanel is returned for operations on a panel the view does not hold.
var ErrUnknownPanel = errors.New("unknown panel")

// Input is one spectrum with its annotations.
type Input struct {
	Spectrum *core.Spectrum
	Ions     []core.MatchedIon
	Peptide  string
}

// Config describes a view.
type Config struct {
	Primary Input
	Mirror  *Input

	// ShowError adds the error panel when the primary spectrum has
	// matched ions.
	ShowError bool
	ErrorType match.ErrorType

	// Annotator fills Ions for inputs that have a peptide but no ions.
	Annotator annotate.Annotator

	Normalize     bool
	HideUnmatched bool
	// PairTolerance pairs primary and mirror peaks for HideUnmatched.
	PairTolerance match.Tolerance
	Filter        filter.Config

	// MZExtent pins the m/z axis of every panel. Nil uses the union of
	// the primary and mirror ranges.
	MZExtent *axis.Extent

	Options     panel.Options
	Width       float64
	Height      float64
	ErrorHeight float64
}

// WheelResult reports the outcome of a gesture on one panel.
type WheelResult struct {
	Origin  link.ID         `json:"origin"`
	Change  viewport.Change `json:"change"`
	Changed bool            `json:"changed"`
	Updated []link.ID       `json:"updated"`
}

// View owns the panels of one chart and the broker linking them.
type View struct {
	broker  *link.Broker
	panels  map[link.ID]panel.Panel
	order   []link.ID
	cancels map[link.ID][]func()

	primary *panel.Peaks
	mirror  *panel.Peaks
	errs    *panel.Error
	pairs   []match.Pair

	lastUpdated []link.ID
}

// New builds and links the panels described by cfg.
func New(cfg Config) (*View, error) {
	primary, err := prepare(cfg.Primary, cfg)
	if err != nil {
		return nil, fmt.Errorf("primary spectrum: %w", err)
	}
	var mirror *Input
	if cfg.Mirror != nil {
		m, err := prepare(*cfg.Mirror, cfg)
		if err != nil {
			return nil, fmt.Errorf("mirror spectrum: %w", err)
		}
		mirror = &m
	}

	v := &View{
		broker:  link.NewBroker(),
		panels:  make(map[link.ID]panel.Panel),
		cancels: make(map[link.ID][]func()),
	}

	v.primary = panel.NewPeaks(primary.Spectrum, primary.Ions, primary.Peptide, false, cfg.Options, cfg.Width, cfg.Height)
	v.add(PrimaryID, v.primary)

	if mirror != nil {
		mopts := cfg.Options
		mopts.HideMZLabel = true
		v.mirror = panel.NewPeaks(mirror.Spectrum, mirror.Ions, mirror.Peptide, true, mopts, cfg.Width, cfg.Height)
		v.add(MirrorID, v.mirror)
		v.broker.Link(PrimaryID, MirrorID, link.Mirror)
		v.pairs = match.MatchPeaks(primary.Spectrum, mirror.Spectrum, cfg.PairTolerance)
	}

	if cfg.ShowError && len(primary.Ions) == 0 {
		logging.Debug("no matched ions, skipping the error panel")
	}
	if cfg.ShowError && len(primary.Ions) > 0 {
		h := cfg.ErrorHeight
		if h <= 0 {
			h = cfg.Height
		}
		unit := cfg.ErrorType
		if unit == "" {
			unit = match.PPM
		}
		v.errs = panel.NewError(primary.Ions, unit, cfg.Options, cfg.Width, h)
		v.add(ErrorID, v.errs)
		v.broker.Link(PrimaryID, ErrorID, link.Horizontal)
		if v.mirror != nil {
			v.broker.Link(MirrorID, ErrorID, link.Horizontal)
		}
	}

	v.applyFilters(cfg)
	v.shareMZExtent(cfg.MZExtent)
	v.shareTickWidths()
	return v, nil
}

func prepare(in Input, cfg Config) (Input, error) {
	if in.Spectrum == nil {
		in.Spectrum = &core.Spectrum{}
	}
	if err := in.Spectrum.Validate(); err != nil {
		return in, err
	}
	if len(in.Ions) == 0 && in.Peptide != "" && cfg.Annotator != nil {
		ions, err := cfg.Annotator.Annotate(in.Peptide, in.Spectrum)
		if err != nil {
			return in, fmt.Errorf("annotating %s: %w", in.Peptide, err)
		}
		in.Ions = ions
	}
	if cfg.Normalize {
		s := *in.Spectrum
		s.Intensities = filter.NormalizeIntensities(s.Intensities)
		in.Spectrum = &s
	}
	return in, nil
}

func (v *View) add(id link.ID, p panel.Panel) {
	v.panels[id] = p
	v.order = append(v.order, id)
	unregister := v.broker.Register(id, p.SetFromExternal)
	unsubscribe := p.OnChange(func(c viewport.Change) {
		v.lastUpdated = v.broker.Publish(id, c)
	})
	v.cancels[id] = []func(){unsubscribe, unregister}
}

func (v *View) applyFilters(cfg Config) {
	peaksPanels := []struct {
		p    *panel.Peaks
		side filter.Side
	}{
		{v.primary, filter.Query},
		{v.mirror, filter.Reference},
	}
	for _, pp := range peaksPanels {
		if pp.p == nil {
			continue
		}
		spec := pp.p.Spectrum()
		hidden := cfg.Filter.Hidden(spec, pp.p.Index())
		if cfg.HideUnmatched {
			if v.mirror != nil {
				hidden.Add(filter.HideUnpaired(spec.Len(), v.pairs, pp.side))
			} else {
				hidden.Add(filter.HideUnmatched(spec.Len(), pp.p.Index()))
			}
		}
		if len(hidden) > 0 {
			logging.Debugf("hiding %d of %d peaks", len(hidden), spec.Len())
		}
		pp.p.SetHidden(hidden)
	}
}

func (v *View) shareMZExtent(pinned *axis.Extent) {
	var e axis.Extent
	if pinned != nil {
		e = *pinned
	} else {
		sets := [][]float64{v.primary.Spectrum().MZs}
		if v.mirror != nil {
			sets = append(sets, v.mirror.Spectrum().MZs)
		}
		e, _ = axis.UnionOf(sets...)
	}
	for _, id := range v.order {
		v.panels[id].SetMZExtent(e)
	}
}

// shareTickWidths gives every panel the widest tick gutter so their plot
// areas line up horizontally.
func (v *View) shareTickWidths() {
	var xw, yw float64
	for _, id := range v.order {
		x, y := v.panels[id].NaturalTickWidths()
		xw, yw = math.Max(xw, x), math.Max(yw, y)
	}
	for _, id := range v.order {
		v.panels[id].SetSharedTickWidths(xw, yw)
	}
}

// IDs returns the live panels in creation order.
func (v *View) IDs() []link.ID {
	return append([]link.ID(nil), v.order...)
}

// Panel returns the panel with the given id.
func (v *View) Panel(id link.ID) (panel.Panel, error) {
	p, ok := v.panels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPanel, id)
	}
	return p, nil
}

// Broker exposes the link table.
func (v *View) Broker() *link.Broker { return v.broker }

// Pairs returns the primary/mirror peak pairs, empty without a mirror.
func (v *View) Pairs() []match.Pair { return v.pairs }

// States snapshots the viewport of every live panel.
func (v *View) States() map[link.ID]viewport.Change {
	out := make(map[link.ID]viewport.Change, len(v.panels))
	for id, p := range v.panels {
		out[id] = p.Change()
	}
	return out
}

// Wheel delivers a gesture to one panel. Linked panels are updated before
// Wheel returns.
func (v *View) Wheel(id link.ID, e panel.WheelEvent) (WheelResult, error) {
	p, err := v.Panel(id)
	if err != nil {
		return WheelResult{}, err
	}
	v.lastUpdated = nil
	c, changed := p.HandleWheel(e)
	res := WheelResult{Origin: id, Change: c, Changed: changed}
	if changed {
		res.Updated = v.lastUpdated
	}
	return res, nil
}

// Resize changes the pixel size of one panel.
func (v *View) Resize(id link.ID, width, height float64) error {
	p, err := v.Panel(id)
	if err != nil {
		return err
	}
	p.Resize(width, height)
	return nil
}

// Remove tears a panel down: its subscription and links are cancelled and
// the remaining panels stop receiving its changes.
func (v *View) Remove(id link.ID) error {
	if _, err := v.Panel(id); err != nil {
		return err
	}
	for _, cancel := range v.cancels[id] {
		cancel()
	}
	delete(v.cancels, id)
	delete(v.panels, id)
	for i, o := range v.order {
		if o == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	switch id {
	case PrimaryID:
		v.primary = nil
	case MirrorID:
		v.mirror = nil
	case ErrorID:
		v.errs = nil
	}
	return nil
}

// Close removes every panel.
func (v *View) Close() {
	for _, id := range v.IDs() {
		_ = v.Remove(id)
	}
}
