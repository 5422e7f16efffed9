package panel

import "math"

// textLeading is the extra height a text line takes beyond its font size.
const textLeading = 3

// Layout holds the pixel geometry of a panel's plot area.
//
// YStart is the baseline the peaks grow from and YEnd the far edge. In a
// mirrored panel the baseline is at the top and YEnd below it.
type Layout struct {
	Width, Height float64
	Mirror        bool

	XStart, XEnd             float64
	XStartPadded, XEndPadded float64
	YStart, YEnd             float64
}

func computeLayout(o Options, width, height, xTickWidth, yTickWidth float64, mirror bool) Layout {
	l := Layout{Width: width, Height: height, Mirror: mirror}

	l.XStart = o.LabelFontSize + textLeading + o.LabelMargin + yTickWidth + o.TickMargin + o.TickLength
	l.XEnd = width - xTickWidth/2
	l.XStartPadded = l.XStart + o.XPadding
	l.XEndPadded = l.XEnd - o.XPadding

	below := 2*o.TickLength + o.TickFontSize + textLeading + o.TickMargin
	if !o.HideMZLabel {
		below += o.LabelMargin + o.LabelFontSize + textLeading
	}
	if mirror {
		l.YStart = below
		l.YEnd = height - o.TickFontSize/2
	} else {
		l.YStart = height - below
		l.YEnd = o.TickFontSize / 2
	}
	return l
}

// XWidthPadded is the pixel length of the m/z axis data range.
func (l Layout) XWidthPadded() float64 {
	return math.Max(0, l.XEndPadded-l.XStartPadded)
}

// YHeight is the pixel length of the vertical axis.
func (l Layout) YHeight() float64 {
	if l.Mirror {
		return math.Max(0, l.YEnd-l.YStart)
	}
	return math.Max(0, l.YStart-l.YEnd)
}

// ValueY converts a value-direction offset from the baseline to a screen y.
func (l Layout) ValueY(offset float64) float64 {
	if l.Mirror {
		return l.YStart + offset
	}
	return l.YStart - offset
}

// YOffset is the inverse of ValueY.
func (l Layout) YOffset(screenY float64) float64 {
	if l.Mirror {
		return screenY - l.YStart
	}
	return l.YStart - screenY
}

// XCenter is the horizontal centre of the axes.
func (l Layout) XCenter() float64 {
	return l.XStart + (l.XEnd-l.XStart)/2
}

// YCenter is the vertical centre of the axes.
func (l Layout) YCenter() float64 {
	return l.YEnd + (l.YStart-l.YEnd)/2
}
