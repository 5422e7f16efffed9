// Package axis maps data values (m/z, intensity, mass error) to pixel
// positions and back.
package axis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultExtent is used whenever no finite data range can be derived.
var DefaultExtent = Extent{Min: 0, Max: 1}

// Extent is the [Min, Max] data range an axis represents.
type Extent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Range returns Max - Min.
func (e Extent) Range() float64 {
	return e.Max - e.Min
}

// Degenerate reports whether the extent cannot be used as a divisor.
func (e Extent) Degenerate() bool {
	r := e.Range()
	return r == 0 || math.IsNaN(r) || math.IsInf(r, 0)
}

// Mid returns the centre of the extent.
func (e Extent) Mid() float64 {
	return e.Min + e.Range()/2
}

// Contains reports whether v lies inside the closed extent.
func (e Extent) Contains(v float64) bool {
	return v >= e.Min && v <= e.Max
}

// Union returns the smallest extent that covers both e and o.
func (e Extent) Union(o Extent) Extent {
	return Extent{Min: math.Min(e.Min, o.Min), Max: math.Max(e.Max, o.Max)}
}

// Safe returns an extent that is never degenerate. A single value v becomes
// the unit range centred on v; non-finite bounds fall back to DefaultExtent.
func (e Extent) Safe() Extent {
	if math.IsNaN(e.Min) || math.IsNaN(e.Max) || math.IsInf(e.Min, 0) || math.IsInf(e.Max, 0) {
		return DefaultExtent
	}
	if e.Max < e.Min {
		e.Min, e.Max = e.Max, e.Min
	}
	if e.Min == e.Max {
		return Extent{Min: e.Min - 0.5, Max: e.Max + 0.5}
	}
	return e
}

// ExtentOf returns the [min, max] of values. An empty slice yields
// DefaultExtent and ok=false. A single value yields a degenerate extent;
// callers decide whether to widen it with Safe.
func ExtentOf(values []float64) (Extent, bool) {
	if len(values) == 0 {
		return DefaultExtent, false
	}
	e := Extent{Min: floats.Min(values), Max: floats.Max(values)}
	if math.IsNaN(e.Min) || math.IsNaN(e.Max) {
		return DefaultExtent, false
	}
	return e, true
}

// UnionOf returns the union of the extents of several value slices, skipping
// empty ones. ok is false when all slices are empty.
func UnionOf(sets ...[]float64) (Extent, bool) {
	var (
		out   Extent
		found bool
	)
	for _, values := range sets {
		e, ok := ExtentOf(values)
		if !ok {
			continue
		}
		if !found {
			out, found = e, true
			continue
		}
		out = out.Union(e)
	}
	if !found {
		return DefaultExtent, false
	}
	return out, true
}

// ToPixel linearly maps value from extent onto [pixelStart, pixelEnd].
// A degenerate extent maps every value onto the centre of the pixel range.
func ToPixel(value float64, extent Extent, pixelStart, pixelEnd float64) float64 {
	if extent.Degenerate() {
		return pixelStart + (pixelEnd-pixelStart)/2
	}
	return pixelStart + (value-extent.Min)/extent.Range()*(pixelEnd-pixelStart)
}

// ToValue is the inverse of ToPixel. A degenerate extent or an empty pixel
// range maps every pixel onto the centre of the extent.
func ToValue(pixel float64, extent Extent, pixelStart, pixelEnd float64) float64 {
	span := pixelEnd - pixelStart
	if extent.Degenerate() || span == 0 {
		return extent.Mid()
	}
	return extent.Min + (pixel-pixelStart)/span*extent.Range()
}

// Mapper binds an extent to a pixel range.
type Mapper struct {
	Extent     Extent
	PixelStart float64
	PixelEnd   float64
}

// ToPixel maps a data value to a pixel position.
func (m Mapper) ToPixel(value float64) float64 {
	return ToPixel(value, m.Extent, m.PixelStart, m.PixelEnd)
}

// ToValue maps a pixel position to a data value.
func (m Mapper) ToValue(pixel float64) float64 {
	return ToValue(pixel, m.Extent, m.PixelStart, m.PixelEnd)
}

// Length returns the signed pixel length of the range.
func (m Mapper) Length() float64 {
	return m.PixelEnd - m.PixelStart
}
