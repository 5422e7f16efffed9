package render

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
)

// PNG rasterises scenes with gg, using go-chart's bundled font.
type PNG struct{}

func (PNG) ContentType() string { return "image/png" }

func (PNG) Extension() string { return "png" }

func (PNG) Encode(w io.Writer, s *Scene) error {
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("loading font: %w", err)
	}

	dc := gg.NewContext(s.Width, s.Height)
	dc.SetColor(s.Background)
	dc.Clear()

	for _, l := range s.Layers {
		dc.Push()
		if c := l.Clip; c != nil {
			dc.DrawRectangle(c.X0, c.Y0, c.X1-c.X0, c.Y1-c.Y0)
			dc.Clip()
		}

		l.visit(
			func(ln Line) {
				dc.SetColor(ln.Color)
				dc.SetLineWidth(ln.Width)
				dc.SetDash(ln.Dash...)
				dc.DrawLine(ln.From.X, ln.From.Y, ln.To.X, ln.To.Y)
				dc.Stroke()
			},
			func(t Text) {
				dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: t.Size}))
				dc.SetColor(t.Color)

				ax := 0.0
				switch t.Anchor {
				case AnchorMiddle:
					ax = 0.5
				case AnchorEnd:
					ax = 1
				}
				ay := 0.0
				switch t.Baseline {
				case BaselineMiddle:
					ay = 0.5
				case BaselineHanging:
					ay = 1
				}

				if t.Rotation == 0 {
					dc.DrawStringAnchored(t.Body, t.At.X, t.At.Y, ax, ay)
					return
				}
				dc.Push()
				dc.RotateAbout(gg.Radians(t.Rotation), t.At.X, t.At.Y)
				dc.DrawStringAnchored(t.Body, t.At.X, t.At.Y, ax, ay)
				dc.Pop()
			},
			func(c Circle) {
				dc.SetColor(c.Fill)
				dc.DrawCircle(c.Center.X, c.Center.Y, c.Radius)
				dc.Fill()
			},
		)

		dc.ResetClip()
		dc.Pop()
	}

	return dc.EncodePNG(w)
}
