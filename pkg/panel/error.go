package panel

import (
	"math"

	"github.com/ChrisMcGann/SpecView/pkg/axis"
	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/match"
	"github.com/ChrisMcGann/SpecView/pkg/render"
	"github.com/ChrisMcGann/SpecView/pkg/viewport"
)

const errorDotRadius = 3

// Error plots the mass error of each matched ion against its m/z. Only the
// horizontal axis is interactive; the error axis is fixed and symmetric
// around zero.
type Error struct {
	base

	ions    []core.MatchedIon
	unit    match.ErrorType
	errors  []float64
	mzFixed bool
}

// NewError creates an error panel of the given pixel size.
func NewError(ions []core.MatchedIon, unit match.ErrorType, opts Options, width, height float64) *Error {
	p := &Error{
		base: base{
			kind:   KindError,
			opts:   opts,
			width:  width,
			height: height,
		},
	}
	p.vp = viewport.Viewport{X: viewport.NewAxis(axis.DefaultExtent, 0, false)}
	p.SetData(ions, unit)
	return p
}

// SetData replaces the matched ions and the error unit.
func (p *Error) SetData(ions []core.MatchedIon, unit match.ErrorType) {
	p.ions = ions
	p.unit = unit
	p.errors = match.Errors(ions, unit)
	if !p.mzFixed {
		mzs := make([]float64, len(ions))
		for i, ion := range ions {
			mzs[i] = ion.PeakMZ
		}
		mz, _ := axis.ExtentOf(mzs)
		p.vp.X.SetDomain(mz.Safe())
	}
	p.measure()
	p.relayout()
}

// SetMZExtent pins the m/z domain so dots line up with the peak panels.
func (p *Error) SetMZExtent(e axis.Extent) {
	p.mzFixed = true
	p.vp.X.SetDomain(e.Safe())
	p.measure()
	p.relayout()
}

// Unit returns the error unit being plotted.
func (p *Error) Unit() match.ErrorType { return p.unit }

// ErrorExtent is [-m, m] where m is the largest absolute error plus the
// vertical padding, or [-1, 1] when there is no non-zero error.
func (p *Error) ErrorExtent() axis.Extent {
	e, ok := axis.ExtentOf(p.errors)
	if !ok {
		return axis.Extent{Min: -1, Max: 1}
	}
	m := math.Max(math.Abs(e.Min), math.Abs(e.Max)) * (1 + p.opts.YPaddingFrac)
	if m == 0 || math.IsInf(m, 0) {
		return axis.Extent{Min: -1, Max: 1}
	}
	return axis.Extent{Min: -m, Max: m}
}

func (p *Error) measure() {
	p.ownXTick = p.labelWidth(p.vp.X.Domain(), p.opts.XTicks, p.opts.XPrecision)
	p.ownYTick = p.labelWidth(p.ErrorExtent(), p.opts.YTicks, p.opts.YPrecision)
}

// HandleWheel applies a wheel gesture to the m/z axis. The vertical delta
// is ignored.
func (p *Error) HandleWheel(e WheelEvent) (viewport.Change, bool) {
	return p.wheel(e, p.layout.YOffset)
}

// Scene renders the panel in its current state.
func (p *Error) Scene() *render.Scene {
	axes := p.axes(p.ErrorExtent(), p.unit.Label())
	l := p.layout
	axes.Lines = append(axes.Lines,
		render.Line{From: render.Point{X: l.XStart, Y: l.YEnd}, To: render.Point{X: l.XEnd, Y: l.YEnd}, Color: axisColor, Width: 1},
		render.Line{From: render.Point{X: l.XEnd, Y: l.YEnd}, To: render.Point{X: l.XEnd, Y: l.YStart}, Color: axisColor, Width: 1},
	)
	zero := l.ValueY(p.errorMapper().ToPixel(0))
	axes.Lines = append(axes.Lines, render.Line{
		From:  render.Point{X: l.XStart, Y: zero},
		To:    render.Point{X: l.XEnd, Y: zero},
		Color: zeroLineColor,
		Width: 1,
		Dash:  []float64{5, 5},
	})
	return p.frame(axes, p.buildDots)
}

func (p *Error) errorMapper() axis.Mapper {
	return axis.Mapper{Extent: p.ErrorExtent(), PixelStart: 0, PixelEnd: p.layout.YHeight()}
}

func (p *Error) buildDots() *render.Layer {
	l := p.layout
	layer := render.NewLayer("errors")
	xm := axis.Mapper{Extent: p.vp.X.Domain(), PixelStart: l.XStartPadded, PixelEnd: l.XEndPadded}
	ym := p.errorMapper()
	for i, ion := range p.ions {
		layer.Circles = append(layer.Circles, render.Circle{
			Center: render.Point{X: xm.ToPixel(ion.PeakMZ), Y: l.ValueY(ym.ToPixel(p.errors[i]))},
			Radius: errorDotRadius,
			Fill:   axisColor,
		})
	}
	return layer
}
