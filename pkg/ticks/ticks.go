// Package ticks computes axis tick values and their text labels for the
// window currently shown on an axis.
package ticks

import (
	"math"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/SpecView/pkg/axis"
)

// Precision limits accepted by FormatPrecision.
const (
	MinPrecision = 1
	MaxPrecision = 21
)

// Tick is a single labelled position along an axis.
type Tick struct {
	Fraction float64 // position along the axis in [0,1]
	Value    float64
	Label    string
}

// Formatter turns fractional axis positions into labels for a visible window.
type Formatter struct {
	Count     int // number of ticks, at least 2
	Precision int // significant digits
}

// Value returns the data value at fraction f of window.
func Value(f float64, window axis.Extent) float64 {
	return window.Min + f*window.Range()
}

// Fractions returns n evenly spaced fractions from 0 to 1 inclusive.
func Fractions(n int) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / float64(n-1)
	}
	return out
}

// Label formats the value at fraction f of window.
func (f Formatter) Label(frac float64, window axis.Extent) string {
	return FormatPrecision(Value(frac, window), f.Precision)
}

// Ticks returns the ticks for window. Values are recomputed on every call.
func (f Formatter) Ticks(window axis.Extent) []Tick {
	fr := Fractions(f.Count)
	out := make([]Tick, len(fr))
	for i, frac := range fr {
		v := Value(frac, window)
		out[i] = Tick{
			Fraction: frac,
			Value:    v,
			Label:    FormatPrecision(v, f.Precision),
		}
	}
	return out
}

// FormatPrecision formats v with p significant digits. Exponential notation
// is used when the decimal exponent is below -6 or not smaller than p, and
// the exponent is written without padding ("1.5e+3").
func FormatPrecision(v float64, p int) string {
	if p < MinPrecision {
		p = MinPrecision
	}
	if p > MaxPrecision {
		p = MaxPrecision
	}

	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if p == 1 {
			return "0"
		}
		return "0." + strings.Repeat("0", p-1)
	}

	s := strconv.FormatFloat(v, 'e', p-1, 64)
	i := strings.IndexByte(s, 'e')
	mant := s[:i]
	exp, _ := strconv.Atoi(s[i+1:])

	if exp < -6 || exp >= p {
		sign := "+"
		if exp < 0 {
			sign = "-"
			exp = -exp
		}
		return mant + "e" + sign + strconv.Itoa(exp)
	}
	return strconv.FormatFloat(v, 'f', p-1-exp, 64)
}

// LabelWidth estimates the rendered width of label from a per-character
// width ratio of the font size.
func LabelWidth(label string, fontSize, letterWidth float64) float64 {
	return float64(len(label)) * letterWidth * fontSize
}

// MaxLabelWidth returns the widest estimated width among labels.
func MaxLabelWidth(labels []string, fontSize, letterWidth float64) float64 {
	var w float64
	for _, l := range labels {
		w = math.Max(w, LabelWidth(l, fontSize, letterWidth))
	}
	return w
}

// Labels extracts the label text of ticks.
func Labels(ts []Tick) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Label
	}
	return out
}
