package render

import (
	"fmt"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// SVG encodes scenes as SVG documents through the go-chart vector renderer.
// The renderer has no clip paths, so clipping is resolved geometrically.
type SVG struct{}

func (SVG) ContentType() string { return "image/svg+xml" }

func (SVG) Extension() string { return "svg" }

func (SVG) Encode(w io.Writer, s *Scene) error {
	r, err := chart.SVG(s.Width, s.Height)
	if err != nil {
		return fmt.Errorf("creating svg renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("loading font: %w", err)
	}

	r.ResetStyle()
	r.SetFillColor(s.Background)
	r.SetStrokeColor(drawing.ColorTransparent)
	r.MoveTo(0, 0)
	r.LineTo(s.Width, 0)
	r.LineTo(s.Width, s.Height)
	r.LineTo(0, s.Height)
	r.Close()
	r.Fill()

	for _, l := range s.Layers {
		l.visit(
			func(ln Line) { svgLine(r, ln) },
			func(t Text) { svgText(r, font, t) },
			func(c Circle) { svgCircle(r, c) },
		)
	}

	return r.Save(w)
}

func svgLine(r chart.Renderer, ln Line) {
	r.ResetStyle()
	r.SetStrokeColor(ln.Color)
	r.SetStrokeWidth(ln.Width)
	if len(ln.Dash) > 0 {
		r.SetStrokeDashArray(ln.Dash)
	}
	r.MoveTo(round(ln.From.X), round(ln.From.Y))
	r.LineTo(round(ln.To.X), round(ln.To.Y))
	r.Stroke()
}

func svgCircle(r chart.Renderer, c Circle) {
	r.ResetStyle()
	r.SetFillColor(c.Fill)
	r.SetStrokeColor(drawing.ColorTransparent)
	r.Circle(c.Radius, round(c.Center.X), round(c.Center.Y))
}

func svgText(r chart.Renderer, font *truetype.Font, t Text) {
	r.ResetStyle()
	r.SetFont(font)
	r.SetFontColor(t.Color)
	r.SetFontSize(t.Size)

	box := r.MeasureText(t.Body)
	var dx, dy float64
	switch t.Anchor {
	case AnchorMiddle:
		dx = -float64(box.Width()) / 2
	case AnchorEnd:
		dx = -float64(box.Width())
	}
	switch t.Baseline {
	case BaselineMiddle:
		dy = float64(box.Height()) / 2
	case BaselineHanging:
		dy = float64(box.Height())
	}

	x, y := t.At.X, t.At.Y
	if t.Rotation != 0 {
		rad := t.Rotation * math.Pi / 180
		sin, cos := math.Sincos(rad)
		x += dx*cos - dy*sin
		y += dx*sin + dy*cos
		r.SetTextRotation(rad)
		defer r.ClearTextRotation()
	} else {
		x += dx
		y += dy
	}
	r.Text(t.Body, round(x), round(y))
}
