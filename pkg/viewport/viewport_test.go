package viewport

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ChrisMcGann/SpecView/pkg/axis"
)

const eps = 1e-9

func TestZoomScenario(t *testing.T) {
	domain := axis.Extent{Min: 100, Max: 300}
	a := NewAxis(domain, 100, false)

	before := axis.ToValue(50, a.Visible(), 0, 100)
	visible := a.ApplyZoomDelta(-500, 50, 0.001)

	if math.Abs(a.Zoom()-1.5) > eps {
		t.Fatalf("zoom = %v, want 1.5", a.Zoom())
	}
	if math.Abs(a.Scroll()-(-25)) > eps {
		t.Fatalf("scroll = %v, want -25", a.Scroll())
	}
	after := axis.ToValue(50, visible, 0, 100)
	if math.Abs(after-before) > eps {
		t.Errorf("value under cursor moved from %v to %v", before, after)
	}
	if got := a.ScreenToContent(50); math.Abs(got-50) > eps {
		t.Errorf("ScreenToContent(50) = %v, want 50", got)
	}
}

func TestZoomInvertedAxis(t *testing.T) {
	a := NewAxis(axis.Extent{Min: 0, Max: 1}, 100, true)
	a.ApplyZoomDelta(-500, 50, 0.001)

	if math.Abs(a.Scroll()-25) > eps {
		t.Fatalf("scroll = %v, want 25", a.Scroll())
	}
	if math.Abs(a.Translation()-(-25)) > eps {
		t.Errorf("translation = %v, want -25", a.Translation())
	}
	lo, hi := a.ScrollBounds()
	if lo != 0 || math.Abs(hi-50) > eps {
		t.Errorf("bounds = [%v,%v], want [0,50]", lo, hi)
	}
}

func TestClampInvariant(t *testing.T) {
	for _, inverted := range []bool{false, true} {
		name := "start anchored"
		if inverted {
			name = "end anchored"
		}
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			const width = 640.0
			a := NewAxis(axis.Extent{Min: 0, Max: 2000}, width, inverted)

			for step := 0; step < 5000; step++ {
				switch rng.Intn(3) {
				case 0:
					a.ApplyZoomDelta(rng.Float64()*2000-1000, rng.Float64()*width, 0.001)
				case 1:
					a.ApplyScrollDelta(rng.Float64()*4000-2000, 0.1)
				default:
					a.ApplyZoomDelta(rng.Float64()*200-100, rng.Float64()*1.5*width-0.25*width, 0.01)
				}

				z, s := a.Zoom(), a.Scroll()
				if z < 1 {
					t.Fatalf("step %d: zoom %v < 1", step, z)
				}
				tr := a.Translation()
				if tr > eps || tr < -(z-1)*width-eps {
					t.Fatalf("step %d: translation %v outside [%v, 0] (zoom %v, scroll %v)", step, tr, -(z-1)*width, z, s)
				}
				lo, hi := a.ScrollBounds()
				if s < lo-eps || s > hi+eps {
					t.Fatalf("step %d: scroll %v outside [%v,%v]", step, s, lo, hi)
				}

				v := a.Visible()
				if v.Min < -1e-6 || v.Max > 2000+1e-6 {
					t.Fatalf("step %d: visible window %+v leaves domain", step, v)
				}
			}
		})
	}
}

func TestZoomFloor(t *testing.T) {
	a := NewAxis(axis.Extent{Min: 0, Max: 10}, 200, false)
	a.ApplyZoomDelta(-2000, 120, 0.001)
	a.ApplyScrollDelta(-300, 1)
	if a.Zoom() <= 1 || a.Scroll() >= 0 {
		t.Fatalf("expected zoomed and scrolled state, got %+v", a.State())
	}

	for i := 0; i < 50; i++ {
		a.ApplyZoomDelta(400, 30, 0.001)
		if a.Zoom() < 1 {
			t.Fatalf("zoom dropped below 1: %v", a.Zoom())
		}
	}
	if a.Zoom() != 1 || a.Scroll() != 0 {
		t.Errorf("state = %+v, want zoom 1 scroll 0", a.State())
	}

	// A factor at or below zero resets to fully zoomed out.
	a.ApplyZoomDelta(-2000, 100, 0.001)
	a.ApplyZoomDelta(5000, 100, 0.001)
	if a.Zoom() != 1 || a.Scroll() != 0 {
		t.Errorf("state after large zoom-out = %+v, want zoom 1 scroll 0", a.State())
	}
}

func TestScrollNoopAtZoomOne(t *testing.T) {
	a := NewAxis(axis.Extent{Min: 0, Max: 10}, 200, false)
	v := a.ApplyScrollDelta(-50, 1)
	if a.Scroll() != 0 {
		t.Errorf("scroll = %v, want 0", a.Scroll())
	}
	if v != a.Domain() {
		t.Errorf("visible = %+v, want full domain", v)
	}
}

func TestSetFromExternal(t *testing.T) {
	tests := []struct {
		name     string
		inverted bool
		in       AxisState
		want     AxisState
	}{
		{"in range", false, AxisState{Zoom: 2, Scroll: -40}, AxisState{Zoom: 2, Scroll: -40}},
		{"scroll clamped", false, AxisState{Zoom: 2, Scroll: -400}, AxisState{Zoom: 2, Scroll: -100}},
		{"zoom floored", false, AxisState{Zoom: 0.5, Scroll: -10}, AxisState{Zoom: 1, Scroll: 0}},
		{"nan", false, AxisState{Zoom: math.NaN(), Scroll: math.NaN()}, AxisState{Zoom: 1, Scroll: 0}},
		{"inverted in range", true, AxisState{Zoom: 3, Scroll: 150}, AxisState{Zoom: 3, Scroll: 150}},
		{"inverted wrong sign", true, AxisState{Zoom: 3, Scroll: -150}, AxisState{Zoom: 3, Scroll: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAxis(axis.Extent{Min: 0, Max: 1}, 100, tt.inverted)
			a.SetFromExternal(tt.in)
			if got := a.State(); got != tt.want {
				t.Errorf("State() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVisibleWindow(t *testing.T) {
	a := NewAxis(axis.Extent{Min: 0, Max: 1000}, 100, false)
	a.SetFromExternal(AxisState{Zoom: 4, Scroll: -150})

	v := a.Visible()
	// Window starts 150/(100*4) of the way in and spans a quarter.
	if math.Abs(v.Min-375) > eps || math.Abs(v.Max-625) > eps {
		t.Errorf("Visible() = %+v, want [375,625]", v)
	}

	zero := NewAxis(axis.Extent{Min: 5, Max: 6}, 0, false)
	zero.ApplyZoomDelta(-500, 0, 0.001)
	if got := zero.Visible(); got != (axis.Extent{Min: 5, Max: 6}) {
		t.Errorf("zero-length axis Visible() = %+v, want full domain", got)
	}
}

func TestSetLengthReclamps(t *testing.T) {
	a := NewAxis(axis.Extent{Min: 0, Max: 1}, 400, false)
	a.SetFromExternal(AxisState{Zoom: 2, Scroll: -400})
	a.SetLength(100)
	if a.Scroll() != -100 {
		t.Errorf("scroll after shrink = %v, want -100", a.Scroll())
	}
}

func TestViewportChange(t *testing.T) {
	v := &Viewport{
		X: NewAxis(axis.Extent{Min: 0, Max: 1}, 100, false),
		Y: NewAxis(axis.Extent{Min: 0, Max: 1}, 100, true),
	}
	v.X.ApplyZoomDelta(-1000, 10, 0.001)
	v.Y.ApplyZoomDelta(-1000, 10, 0.001)

	c := v.Change()
	if c.Y == nil {
		t.Fatal("expected vertical state")
	}

	other := &Viewport{X: NewAxis(axis.Extent{Min: 0, Max: 1}, 100, false)}
	other.SetFromExternal(c)
	if other.X.State() != c.X {
		t.Errorf("x state = %+v, want %+v", other.X.State(), c.X)
	}
	if other.Change().Y != nil {
		t.Error("x-only viewport reported vertical state")
	}
}
