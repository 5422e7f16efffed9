package panel

import (
	"github.com/ChrisMcGann/SpecView/pkg/axis"
	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/filter"
	"github.com/ChrisMcGann/SpecView/pkg/logging"
	"github.com/ChrisMcGann/SpecView/pkg/peaks"
	"github.com/ChrisMcGann/SpecView/pkg/render"
	"github.com/ChrisMcGann/SpecView/pkg/viewport"
)

// Peaks draws one stem per peak, coloured and labelled by its matched ion.
// A mirrored panel grows its peaks downward from a baseline at the top.
type Peaks struct {
	base

	spec    *core.Spectrum
	index   *peaks.Index
	seqLen  int
	hidden  filter.IndexSet
	mzFixed bool
}

// NewPeaks creates a peak panel of the given pixel size.
func NewPeaks(spec *core.Spectrum, ions []core.MatchedIon, peptide string, mirror bool, opts Options, width, height float64) *Peaks {
	kind := KindPeaks
	if mirror {
		kind = KindMirror
	}
	p := &Peaks{
		base: base{
			kind:   kind,
			opts:   opts,
			width:  width,
			height: height,
			mirror: mirror,
		},
	}
	p.vp = viewport.Viewport{
		X: viewport.NewAxis(axis.DefaultExtent, 0, false),
		Y: viewport.NewAxis(axis.DefaultExtent, 0, mirror),
	}
	p.SetData(spec, ions, peptide)
	return p
}

// SetData replaces the spectrum and its annotations. The peak index is
// rebuilt and the viewport keeps its zoom and scroll, re-clamped.
func (p *Peaks) SetData(spec *core.Spectrum, ions []core.MatchedIon, peptide string) {
	if spec == nil {
		spec = &core.Spectrum{}
	}
	p.spec = spec
	p.seqLen = len(core.StripModifications(peptide))
	p.index = peaks.Build(ions, func(prev, next core.MatchedIon) {
		logging.Debugf("peak %d annotated twice (%s%d, then %s%d), keeping the last",
			next.PeakIndex, prev.IonType, prev.AAPosition, next.IonType, next.AAPosition)
	})
	if n := p.index.Duplicates(); n > 0 {
		logging.Warnf("%d duplicate matched ion(s) overwritten", n)
	}
	if n := p.index.Skipped(); n > 0 {
		logging.Warnf("%d matched ion(s) with invalid peak index ignored", n)
	}

	if !p.mzFixed {
		mz, _ := axis.ExtentOf(spec.MZs)
		p.vp.X.SetDomain(mz.Safe())
	}
	p.vp.Y.SetDomain(p.IntensityExtent())
	p.measure()
	p.relayout()
}

// SetHidden replaces the set of peak indices that are not drawn.
func (p *Peaks) SetHidden(hidden filter.IndexSet) {
	p.hidden = hidden
	p.invalidate()
}

// Hidden returns the current hide set.
func (p *Peaks) Hidden() filter.IndexSet { return p.hidden }

// SetMZExtent pins the m/z domain, typically to a range shared with a
// mirror spectrum.
func (p *Peaks) SetMZExtent(e axis.Extent) {
	p.mzFixed = true
	p.vp.X.SetDomain(e.Safe())
	p.measure()
	p.relayout()
}

// Index returns the peak index built from the matched ions.
func (p *Peaks) Index() *peaks.Index { return p.index }

// Spectrum returns the displayed spectrum.
func (p *Peaks) Spectrum() *core.Spectrum { return p.spec }

// IntensityExtent is [0, max*(1+padding)], or [0, 1] when there is no
// positive intensity.
func (p *Peaks) IntensityExtent() axis.Extent {
	e, ok := axis.ExtentOf(p.spec.Intensities)
	if !ok || e.Max <= 0 {
		return axis.Extent{Min: 0, Max: 1}
	}
	return axis.Extent{Min: 0, Max: e.Max * (1 + p.opts.YPaddingFrac)}
}

func (p *Peaks) measure() {
	p.ownXTick = p.labelWidth(p.vp.X.Domain(), p.opts.XTicks, p.opts.XPrecision)
	p.ownYTick = p.labelWidth(p.vp.Y.Domain(), p.opts.YTicks, p.opts.YPrecision)
}

// HandleWheel applies a wheel gesture and reports whether the viewport
// changed. Subscribers are notified once per effective change.
func (p *Peaks) HandleWheel(e WheelEvent) (viewport.Change, bool) {
	return p.wheel(e, p.layout.YOffset)
}

// Scene renders the panel in its current state.
func (p *Peaks) Scene() *render.Scene {
	return p.frame(p.axes(p.vp.Y.Visible(), p.opts.IntensityLabel), p.buildStems)
}

func (p *Peaks) buildStems() *render.Layer {
	l := p.layout
	layer := render.NewLayer("peaks")
	xm := axis.Mapper{Extent: p.vp.X.Domain(), PixelStart: l.XStartPadded, PixelEnd: l.XEndPadded}
	ym := axis.Mapper{Extent: p.vp.Y.Domain(), PixelStart: 0, PixelEnd: l.YHeight()}

	rotation := -90.0
	if p.mirror {
		rotation = 90
	}

	for i := 0; i < p.spec.Len(); i++ {
		if p.hidden.Has(i) {
			continue
		}
		x := xm.ToPixel(p.spec.MZs[i])
		top := l.ValueY(ym.ToPixel(p.spec.Intensities[i]))
		st := p.index.StyleFor(i, p.seqLen)

		layer.Lines = append(layer.Lines, render.Line{
			From:  render.Point{X: x, Y: l.YStart},
			To:    render.Point{X: x, Y: top},
			Color: st.Color,
			Width: 1,
		})
		if st.Label == "" {
			continue
		}
		layer.Texts = append(layer.Texts, render.Text{
			At:       render.Point{X: x, Y: top},
			Body:     st.Label,
			Color:    st.Color,
			Size:     p.opts.AnnotationFontSize,
			Anchor:   render.AnchorStart,
			Baseline: render.BaselineMiddle,
			Rotation: rotation,
		})
	}
	return layer
}
