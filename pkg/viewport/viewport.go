// Package viewport tracks the zoom and scroll state of a panel's axes and
// keeps it inside valid bounds.
//
// Each axis is measured in "value direction" pixels: offset 0 is the axis
// origin (where the domain minimum is drawn) and offsets grow towards the
// domain maximum. On screen the content is magnified by Zoom around the
// origin and shifted by a translation t, so a content offset u is shown at
// zoom*u + t. For a start-anchored axis t equals Scroll. For an axis anchored
// at the opposite edge (the vertical axis of a mirrored panel) t equals
// -Scroll. In both cases t stays inside [-(zoom-1)*length, 0].
package viewport

import (
	"math"

	"github.com/ChrisMcGann/SpecView/pkg/axis"
)

// MaxZoom bounds magnification so the transform stays finite.
const MaxZoom = 1e6

// AxisState is the zoom/scroll pair exchanged between panels.
type AxisState struct {
	Zoom   float64 `json:"zoom"`
	Scroll float64 `json:"scroll"`
}

// Axis owns the zoom and scroll of one axis of one panel.
type Axis struct {
	domain   axis.Extent
	length   float64
	inverted bool
	zoom     float64
	scroll   float64
}

// NewAxis returns a fully zoomed-out axis over domain spanning length pixels.
// inverted selects the opposite-edge sign convention for Scroll.
func NewAxis(domain axis.Extent, length float64, inverted bool) *Axis {
	a := &Axis{
		domain:   domain,
		inverted: inverted,
		zoom:     1,
	}
	a.SetLength(length)
	return a
}

// State returns the current zoom and scroll.
func (a *Axis) State() AxisState {
	return AxisState{Zoom: a.zoom, Scroll: a.scroll}
}

// Zoom returns the current magnification (>= 1).
func (a *Axis) Zoom() float64 { return a.zoom }

// Scroll returns the current scroll offset in pixels.
func (a *Axis) Scroll() float64 { return a.scroll }

// Length returns the pixel length of the axis.
func (a *Axis) Length() float64 { return a.length }

// Inverted reports whether the axis uses the opposite-edge sign convention.
func (a *Axis) Inverted() bool { return a.inverted }

// Domain returns the full data extent of the axis.
func (a *Axis) Domain() axis.Extent { return a.domain }

// SetDomain replaces the data extent. Zoom and scroll are kept.
func (a *Axis) SetDomain(domain axis.Extent) axis.Extent {
	a.domain = domain
	return a.Visible()
}

// SetLength updates the pixel length after a resize and re-clamps scroll.
func (a *Axis) SetLength(length float64) axis.Extent {
	if !(length > 0) || math.IsInf(length, 0) {
		length = 0
	}
	a.length = length
	a.scroll = a.clampScroll(a.scroll)
	return a.Visible()
}

// ScrollBounds returns the inclusive range Scroll may take at the current zoom.
func (a *Axis) ScrollBounds() (lo, hi float64) {
	span := (a.zoom - 1) * a.length
	if a.inverted {
		return 0, span
	}
	return -span, 0
}

// Translation returns the value-direction shift t applied to the content.
func (a *Axis) Translation() float64 {
	if a.inverted {
		return -a.scroll
	}
	return a.scroll
}

func (a *Axis) setTranslation(t float64) {
	if a.inverted {
		t = -t
	}
	a.scroll = a.clampScroll(t)
}

func (a *Axis) clampScroll(scroll float64) float64 {
	if math.IsNaN(scroll) {
		return 0
	}
	lo, hi := a.ScrollBounds()
	// +0 normalises a negative zero produced by sign flips.
	return math.Min(math.Max(scroll, lo), hi) + 0
}

func clampZoom(zoom float64) float64 {
	if !(zoom >= 1) {
		return 1
	}
	return math.Min(zoom, MaxZoom)
}

// ZoomFactor converts a raw wheel delta into a multiplicative zoom change.
// Negative deltas (wheel up / pinch out) magnify.
func ZoomFactor(rawDelta, sensitivity float64) float64 {
	return 1 - rawDelta*sensitivity
}

// ApplyZoomDelta magnifies the axis around center, a value-direction pixel
// offset from the origin, so the data value under center stays put. Zoom
// never drops below 1 and scroll is clamped afterwards.
func (a *Axis) ApplyZoomDelta(rawDelta, center, sensitivity float64) axis.Extent {
	old := a.zoom
	zoom := clampZoom(old * ZoomFactor(rawDelta, sensitivity))
	k := zoom / old

	t := a.Translation()
	a.zoom = zoom
	a.setTranslation(k*(t-center) + center)

	return a.Visible()
}

// ApplyScrollDelta shifts a magnified axis. At zoom 1 the whole domain is
// visible and scrolling does nothing.
func (a *Axis) ApplyScrollDelta(rawDelta, sensitivity float64) axis.Extent {
	if a.zoom > 1 {
		a.scroll = a.clampScroll(a.scroll + rawDelta*sensitivity)
	}
	return a.Visible()
}

// SetFromExternal overwrites the state with values received from a linked
// panel. Values are clamped against this axis' own bounds.
func (a *Axis) SetFromExternal(s AxisState) axis.Extent {
	a.zoom = clampZoom(s.Zoom)
	a.scroll = a.clampScroll(s.Scroll)
	return a.Visible()
}

// Reset returns to the fully zoomed-out state.
func (a *Axis) Reset() axis.Extent {
	a.zoom = 1
	a.scroll = 0
	return a.Visible()
}

// Visible returns the data sub-range currently shown on the axis.
func (a *Axis) Visible() axis.Extent {
	d := a.domain
	if a.length <= 0 {
		return d
	}
	r := d.Range()
	lo := d.Min + (-a.Translation()/(a.length*a.zoom))*r
	return axis.Extent{Min: lo, Max: lo + r/a.zoom}
}

// ContentToScreen maps an unmagnified value-direction offset to where it is
// shown on screen.
func (a *Axis) ContentToScreen(offset float64) float64 {
	return a.zoom*offset + a.Translation()
}

// ScreenToContent is the inverse of ContentToScreen.
func (a *Axis) ScreenToContent(offset float64) float64 {
	return (offset - a.Translation()) / a.zoom
}

// Change is the "viewport changed" notification of a panel. Y is nil for
// panels whose vertical axis is not interactive.
type Change struct {
	X AxisState  `json:"x"`
	Y *AxisState `json:"y,omitempty"`
}

// Viewport groups the axes of one panel.
type Viewport struct {
	X *Axis
	Y *Axis // nil when the vertical axis is static
}

// Change snapshots the viewport as a notification payload.
func (v *Viewport) Change() Change {
	c := Change{X: v.X.State()}
	if v.Y != nil {
		y := v.Y.State()
		c.Y = &y
	}
	return c
}

// SetFromExternal applies a change received from a linked panel.
// The vertical component is ignored when either side has no vertical state.
func (v *Viewport) SetFromExternal(c Change) {
	v.X.SetFromExternal(c.X)
	if v.Y != nil && c.Y != nil {
		v.Y.SetFromExternal(*c.Y)
	}
}
