package axis

import (
	"math"
	"testing"
)

func TestToPixelScenario(t *testing.T) {
	mzs := []float64{100, 200, 300}
	extent, ok := ExtentOf(mzs)
	if !ok {
		t.Fatal("expected extent")
	}
	if extent.Min != 100 || extent.Max != 300 {
		t.Fatalf("extent = %+v, want [100,300]", extent)
	}

	if got := ToPixel(200, extent, 0, 100); got != 50 {
		t.Errorf("ToPixel(200) = %v, want 50", got)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		extent     Extent
		start, end float64
	}{
		{"left to right", Extent{Min: 100, Max: 1500}, 36, 880},
		{"bottom to top", Extent{Min: 0, Max: 1.1e6}, 300, 8},
		{"negative domain", Extent{Min: -12.5, Max: 7.25}, 0, 200},
		{"tiny range", Extent{Min: 500.0001, Max: 500.0002}, 10, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i <= 20; i++ {
				v := tt.extent.Min + float64(i)/20*tt.extent.Range()
				p := ToPixel(v, tt.extent, tt.start, tt.end)
				back := ToValue(p, tt.extent, tt.start, tt.end)
				if math.Abs(back-v) > 1e-9*math.Max(1, math.Abs(v)) {
					t.Errorf("round trip of %v gave %v (pixel %v)", v, back, p)
				}
			}
		})
	}
}

func TestDegenerateExtent(t *testing.T) {
	e := Extent{Min: 42, Max: 42}
	if !e.Degenerate() {
		t.Fatal("expected degenerate extent")
	}

	if got := ToPixel(42, e, 0, 100); got != 50 {
		t.Errorf("ToPixel on degenerate extent = %v, want 50", got)
	}
	if got := ToValue(17, e, 0, 100); got != 42 {
		t.Errorf("ToValue on degenerate extent = %v, want 42", got)
	}
	if got := ToValue(17, Extent{Min: 0, Max: 10}, 5, 5); got != 5 {
		t.Errorf("ToValue on empty pixel range = %v, want 5", got)
	}

	safe := e.Safe()
	if safe.Degenerate() || safe.Mid() != 42 {
		t.Errorf("Safe() = %+v, want unit range centred on 42", safe)
	}
	if got := ToPixel(42, safe, 0, 100); got != 50 {
		t.Errorf("single peak not centred: %v", got)
	}
}

func TestSafe(t *testing.T) {
	tests := []struct {
		name string
		in   Extent
		want Extent
	}{
		{"regular", Extent{Min: 1, Max: 2}, Extent{Min: 1, Max: 2}},
		{"swapped", Extent{Min: 2, Max: 1}, Extent{Min: 1, Max: 2}},
		{"nan", Extent{Min: math.NaN(), Max: 1}, DefaultExtent},
		{"inf", Extent{Min: 0, Max: math.Inf(1)}, DefaultExtent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Safe(); got != tt.want {
				t.Errorf("Safe() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtentOfEmpty(t *testing.T) {
	e, ok := ExtentOf(nil)
	if ok {
		t.Error("expected ok=false for empty input")
	}
	if e != DefaultExtent {
		t.Errorf("ExtentOf(nil) = %+v, want %+v", e, DefaultExtent)
	}
}

func TestUnionOf(t *testing.T) {
	e, ok := UnionOf([]float64{200, 150, 400}, nil, []float64{90, 300})
	if !ok {
		t.Fatal("expected ok")
	}
	if e.Min != 90 || e.Max != 400 {
		t.Errorf("UnionOf() = %+v, want [90,400]", e)
	}

	if _, ok := UnionOf(nil, []float64{}); ok {
		t.Error("expected ok=false for empty inputs")
	}
}

func TestMapper(t *testing.T) {
	m := Mapper{Extent: Extent{Min: 0, Max: 10}, PixelStart: 100, PixelEnd: 0}
	if got := m.ToPixel(2.5); got != 75 {
		t.Errorf("ToPixel() = %v, want 75", got)
	}
	if got := m.ToValue(75); got != 2.5 {
		t.Errorf("ToValue() = %v, want 2.5", got)
	}
	if got := m.Length(); got != -100 {
		t.Errorf("Length() = %v, want -100", got)
	}
}
