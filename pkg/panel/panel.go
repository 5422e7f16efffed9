// Package panel implements the interactive chart panels: a peak panel
// (optionally mirrored) and a mass-error panel.
//
// A panel owns its viewport. User input goes through HandleWheel, which
// mutates the viewport, notifies subscribers once and returns the new state.
// Changes from linked panels go through SetFromExternal, which never
// notifies. Scene renders the current state; the peak or dot geometry is
// built once per data or size change and reused under a new group
// transform on every zoom or scroll step.
package panel

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ChrisMcGann/SpecView/pkg/axis"
	"github.com/ChrisMcGann/SpecView/pkg/render"
	"github.com/ChrisMcGann/SpecView/pkg/ticks"
	"github.com/ChrisMcGann/SpecView/pkg/viewport"
)

// Kind identifies the role of a panel in a view.
type Kind int

const (
	KindPeaks Kind = iota
	KindMirror
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindPeaks:
		return "peaks"
	case KindMirror:
		return "mirror"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the interaction state of a panel.
type State int

const (
	Idle State = iota
	Computing
)

func (s State) String() string {
	if s == Computing {
		return "computing"
	}
	return "idle"
}

// WheelEvent is a wheel or trackpad gesture in panel pixel coordinates.
type WheelEvent struct {
	DeltaX float64 `json:"deltaX"`
	DeltaY float64 `json:"deltaY"`
	Ctrl   bool    `json:"ctrlKey"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Listener receives "viewport changed" notifications.
type Listener func(viewport.Change)

// Panel is the behaviour shared by peak and error panels.
type Panel interface {
	Kind() Kind
	HandleWheel(e WheelEvent) (viewport.Change, bool)
	SetFromExternal(c viewport.Change)
	Resize(width, height float64)
	OnChange(l Listener) (cancel func())
	Change() viewport.Change
	State() State
	Version() uint64
	Layout() Layout
	Scene() *render.Scene
	MZExtent() axis.Extent
	SetMZExtent(e axis.Extent)
	NaturalTickWidths() (x, y float64)
	SetSharedTickWidths(x, y float64)
}

var (
	axisColor     = drawing.ColorBlack
	zeroLineColor = drawing.ColorFromHex("808080")
)

type subscription struct {
	id int
	fn Listener
}

// base carries the state machine, layout and scene plumbing.
type base struct {
	kind   Kind
	opts   Options
	width  float64
	height float64
	mirror bool

	vp     viewport.Viewport
	layout Layout
	state  State

	subs    []subscription
	nextSub int
	version uint64

	ownXTick, ownYTick       float64
	sharedXTick, sharedYTick float64

	content       *render.Layer
	contentBuilds int
}

func (b *base) Kind() Kind { return b.kind }

// State returns Computing while a mutation is in progress.
func (b *base) State() State { return b.state }

// Version increases whenever the rendered output would change.
func (b *base) Version() uint64 { return b.version }

// Layout returns the current geometry.
func (b *base) Layout() Layout { return b.layout }

// Options returns the drawing options the panel was built with.
func (b *base) Options() Options { return b.opts }

// Change snapshots the viewport.
func (b *base) Change() viewport.Change { return b.vp.Change() }

// MZExtent returns the m/z domain of the horizontal axis.
func (b *base) MZExtent() axis.Extent { return b.vp.X.Domain() }

// ContentBuilds counts how often the peak or dot geometry was rebuilt.
func (b *base) ContentBuilds() int { return b.contentBuilds }

// OnChange subscribes l to user-driven viewport changes. The returned
// function cancels the subscription.
func (b *base) OnChange(l Listener) (cancel func()) {
	id := b.nextSub
	b.nextSub++
	b.subs = append(b.subs, subscription{id: id, fn: l})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *base) emit(c viewport.Change) {
	for _, s := range append([]subscription(nil), b.subs...) {
		s.fn(c)
	}
}

// SetFromExternal applies a change from a linked panel without notifying.
// A change arriving while the panel is computing its own update is ignored.
func (b *base) SetFromExternal(c viewport.Change) {
	if b.state == Computing {
		return
	}
	b.state = Computing
	b.vp.SetFromExternal(c)
	b.version++
	b.state = Idle
}

// wheel runs one gesture. Ctrl zooms around the cursor; otherwise the
// deltas scroll. yCenter converts a cursor y to a value-direction offset.
func (b *base) wheel(e WheelEvent, yCenter func(float64) float64) (viewport.Change, bool) {
	if b.state == Computing {
		return b.vp.Change(), false
	}
	b.state = Computing
	defer func() { b.state = Idle }()

	before := b.vp.Change()
	if e.Ctrl {
		b.vp.X.ApplyZoomDelta(e.DeltaX, e.X-b.layout.XStartPadded, b.opts.ZoomSensitivity)
		if b.vp.Y != nil {
			b.vp.Y.ApplyZoomDelta(e.DeltaY, yCenter(e.Y), b.opts.ZoomSensitivity)
		}
	} else {
		b.vp.X.ApplyScrollDelta(e.DeltaX, b.opts.ScrollSensitivity)
		if b.vp.Y != nil {
			b.vp.Y.ApplyScrollDelta(e.DeltaY, b.opts.ScrollSensitivity)
		}
	}
	after := b.vp.Change()
	if sameChange(before, after) {
		return after, false
	}

	b.version++
	b.emit(after)
	return after, true
}

func sameChange(a, b viewport.Change) bool {
	if a.X != b.X {
		return false
	}
	if (a.Y == nil) != (b.Y == nil) {
		return false
	}
	return a.Y == nil || *a.Y == *b.Y
}

// Resize updates the pixel size and re-clamps scroll to the new axes.
func (b *base) Resize(width, height float64) {
	b.width, b.height = width, height
	b.relayout()
}

// NaturalTickWidths returns the tick label widths the panel needs on its own.
func (b *base) NaturalTickWidths() (x, y float64) {
	return b.ownXTick, b.ownYTick
}

// SetSharedTickWidths forces tick gutters so several panels line up.
// Zero restores the panel's own width.
func (b *base) SetSharedTickWidths(x, y float64) {
	b.sharedXTick, b.sharedYTick = x, y
	b.relayout()
}

func (b *base) tickWidths() (x, y float64) {
	x, y = b.ownXTick, b.ownYTick
	if b.sharedXTick > 0 {
		x = b.sharedXTick
	}
	if b.sharedYTick > 0 {
		y = b.sharedYTick
	}
	return x, y
}

func (b *base) relayout() {
	xw, yw := b.tickWidths()
	b.layout = computeLayout(b.opts, b.width, b.height, xw, yw, b.mirror)
	b.vp.X.SetLength(b.layout.XWidthPadded())
	if b.vp.Y != nil {
		b.vp.Y.SetLength(b.layout.YHeight())
	}
	b.invalidate()
}

func (b *base) invalidate() {
	b.content = nil
	b.version++
}

func (b *base) labelWidth(window axis.Extent, count, precision int) float64 {
	f := ticks.Formatter{Count: count, Precision: precision}
	return ticks.MaxLabelWidth(ticks.Labels(f.Ticks(window)), b.opts.TickFontSize, b.opts.TickLetterWidth)
}

func (b *base) clip() render.Rect {
	l := b.layout
	return render.Rect{
		X0: l.XStart,
		Y0: math.Min(l.YStart, l.YEnd),
		X1: l.XEnd,
		Y1: math.Max(l.YStart, l.YEnd),
	}
}

func (b *base) transform() render.Transform {
	t := render.Transform{
		OriginX:    b.layout.XStartPadded,
		OriginY:    b.layout.YStart,
		ScaleX:     b.vp.X.Zoom(),
		ScaleY:     1,
		TranslateX: b.vp.X.Scroll(),
	}
	if b.vp.Y != nil {
		t.ScaleY = b.vp.Y.Zoom()
		t.TranslateY = -b.vp.Y.Scroll()
	}
	return t
}

// frame assembles the scene from a fresh axes layer and the cached content.
func (b *base) frame(axes *render.Layer, build func() *render.Layer) *render.Scene {
	if b.content == nil {
		b.content = build()
		b.contentBuilds++
	}
	content := b.content.Clone()
	clip := b.clip()
	content.Clip = &clip
	content.Transform = b.transform()

	s := render.NewScene(int(math.Round(b.width)), int(math.Round(b.height)))
	s.Add(axes, content)
	return s
}

// axes draws both axis lines, their ticks and labels. Tick labels are
// recomputed from the visible windows on every call.
func (b *base) axes(yWindow axis.Extent, yLabel string) *render.Layer {
	l, o := b.layout, b.opts
	layer := render.NewLayer("axes")

	layer.Lines = append(layer.Lines,
		render.Line{From: render.Point{X: l.XStart, Y: l.YStart}, To: render.Point{X: l.XEnd, Y: l.YStart}, Color: axisColor, Width: 1},
		render.Line{From: render.Point{X: l.XStart, Y: l.YEnd}, To: render.Point{X: l.XStart, Y: l.YStart}, Color: axisColor, Width: 1},
	)

	xf := ticks.Formatter{Count: o.XTicks, Precision: o.XPrecision}
	w := l.XWidthPadded()
	for _, tk := range xf.Ticks(b.vp.X.Visible()) {
		x := l.XStartPadded + tk.Fraction*w
		end := l.ValueY(-o.TickLength)
		text := render.Text{
			At:     render.Point{X: x, Y: l.ValueY(-o.TickLength - o.TickMargin)},
			Body:   tk.Label,
			Color:  axisColor,
			Size:   o.TickFontSize,
			Anchor: render.AnchorMiddle,
		}
		if !l.Mirror {
			text.Baseline = render.BaselineHanging
		}
		layer.Lines = append(layer.Lines, render.Line{
			From: render.Point{X: x, Y: l.YStart}, To: render.Point{X: x, Y: end}, Color: axisColor, Width: 1,
		})
		layer.Texts = append(layer.Texts, text)
	}

	yf := ticks.Formatter{Count: o.YTicks, Precision: o.YPrecision}
	h := l.YHeight()
	for _, tk := range yf.Ticks(yWindow) {
		y := l.ValueY(tk.Fraction * h)
		layer.Lines = append(layer.Lines, render.Line{
			From: render.Point{X: l.XStart - o.TickLength, Y: y}, To: render.Point{X: l.XStart, Y: y}, Color: axisColor, Width: 1,
		})
		layer.Texts = append(layer.Texts, render.Text{
			At:       render.Point{X: l.XStart - o.TickLength - o.TickMargin, Y: y},
			Body:     tk.Label,
			Color:    axisColor,
			Size:     o.TickFontSize,
			Anchor:   render.AnchorEnd,
			Baseline: render.BaselineMiddle,
		})
	}

	if !o.HideMZLabel {
		y := b.height - o.LabelMargin
		if l.Mirror {
			y = o.LabelFontSize + textLeading
		}
		layer.Texts = append(layer.Texts, render.Text{
			At: render.Point{X: l.XCenter(), Y: y}, Body: o.MZLabel, Color: axisColor, Size: o.LabelFontSize, Anchor: render.AnchorMiddle,
		})
	}
	layer.Texts = append(layer.Texts, render.Text{
		At:       render.Point{X: o.LabelMargin + o.LabelFontSize, Y: l.YCenter()},
		Body:     yLabel,
		Color:    axisColor,
		Size:     o.LabelFontSize,
		Anchor:   render.AnchorMiddle,
		Rotation: -90,
	})

	return layer
}
