// Package render holds the display list panels draw into and the encoders
// that turn it into SVG or PNG.
//
// A Scene is a stack of layers. Each layer has an optional clip rectangle in
// screen coordinates and a group transform. The transform moves primitive
// anchor points only: stroke widths, circle radii and font sizes are left
// alone, so zooming stretches the geometry without thickening it.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Anchor is the horizontal alignment of a text primitive.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// Baseline is the vertical alignment of a text primitive.
type Baseline int

const (
	BaselineAlphabetic Baseline = iota
	BaselineMiddle
	BaselineHanging
)

// Point is a position in pixels.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Transform scales about an origin and then translates:
// x' = OriginX + TranslateX + ScaleX*(x-OriginX), likewise for y.
type Transform struct {
	OriginX, OriginY       float64
	ScaleX, ScaleY         float64
	TranslateX, TranslateY float64
}

// Identity is the transform that leaves points unchanged.
var Identity = Transform{ScaleX: 1, ScaleY: 1}

// Apply maps a point through the transform.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.OriginX + t.TranslateX + t.ScaleX*(p.X-t.OriginX),
		Y: t.OriginY + t.TranslateY + t.ScaleY*(p.Y-t.OriginY),
	}
}

// Line is a straight stroke.
type Line struct {
	From, To Point
	Color    drawing.Color
	Width    float64
	Dash     []float64
}

// Text is a single label.
type Text struct {
	At       Point
	Body     string
	Color    drawing.Color
	Size     float64
	Anchor   Anchor
	Baseline Baseline
	Rotation float64 // degrees, clockwise
}

// Circle is a filled dot.
type Circle struct {
	Center Point
	Radius float64
	Fill   drawing.Color
}

// Layer is a group of primitives sharing a clip and a transform.
type Layer struct {
	Name      string
	Clip      *Rect
	Transform Transform
	Lines     []Line
	Texts     []Text
	Circles   []Circle
}

// NewLayer returns an empty, unclipped layer with the identity transform.
func NewLayer(name string) *Layer {
	return &Layer{Name: name, Transform: Identity}
}

// Clone returns a copy of the layer that shares primitive slices.
// Used to re-apply a new transform to cached content.
func (l *Layer) Clone() *Layer {
	c := *l
	return &c
}

// Len returns the number of primitives in the layer.
func (l *Layer) Len() int {
	return len(l.Lines) + len(l.Texts) + len(l.Circles)
}

// Scene is a complete frame.
type Scene struct {
	Width, Height int
	Background    drawing.Color
	Layers        []*Layer
}

// NewScene returns an empty scene with a white background.
func NewScene(width, height int) *Scene {
	return &Scene{Width: width, Height: height, Background: drawing.ColorWhite}
}

// Add appends layers in drawing order.
func (s *Scene) Add(layers ...*Layer) {
	s.Layers = append(s.Layers, layers...)
}

// Layer returns the first layer called name.
func (s *Scene) Layer(name string) (*Layer, bool) {
	for _, l := range s.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// Encoder writes a scene in some image format.
type Encoder interface {
	Encode(w io.Writer, s *Scene) error
	ContentType() string
	Extension() string
}

// EncoderFor returns the encoder for "svg" or "png".
func EncoderFor(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "svg":
		return SVG{}, nil
	case "png":
		return PNG{}, nil
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
}

// ClipLine clips the segment a-b to r using Liang-Barsky. ok is false when
// nothing of the segment is inside r.
func ClipLine(a, b Point, r Rect) (Point, Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, a.X - r.X0},
		{dx, r.X1 - a.X},
		{-dy, a.Y - r.Y0},
		{dy, r.Y1 - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = math.Max(t0, t)
		} else {
			t1 = math.Min(t1, t)
		}
		if t0 > t1 {
			return a, b, false
		}
	}

	return Point{a.X + t0*dx, a.Y + t0*dy}, Point{a.X + t1*dx, a.Y + t1*dy}, true
}

// visit walks the primitives of a layer in screen coordinates, after the
// transform and clip have been applied.
func (l *Layer) visit(line func(Line), text func(Text), circle func(Circle)) {
	for _, ln := range l.Lines {
		a, b := l.Transform.Apply(ln.From), l.Transform.Apply(ln.To)
		if l.Clip != nil {
			var ok bool
			if a, b, ok = ClipLine(a, b, *l.Clip); !ok {
				continue
			}
		}
		ln.From, ln.To = a, b
		line(ln)
	}
	for _, c := range l.Circles {
		c.Center = l.Transform.Apply(c.Center)
		if l.Clip != nil && !l.Clip.Contains(c.Center) {
			continue
		}
		circle(c)
	}
	for _, t := range l.Texts {
		t.At = l.Transform.Apply(t.At)
		if l.Clip != nil && !l.Clip.Contains(t.At) {
			continue
		}
		text(t)
	}
}

func round(v float64) int {
	return int(math.Round(v))
}
