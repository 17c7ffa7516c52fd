package implicit

import (
	"errors"
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/volume"
)

const eps = 1e-9

func mustSphere(t *testing.T, c v3.Vec, r float64) Sphere {
	t.Helper()
	s, err := NewSphere(c, r)
	if err != nil {
		t.Fatalf("NewSphere failed: %v", err)
	}
	return s
}

func TestSphereEvaluate(t *testing.T) {
	s := mustSphere(t, v3.Vec{X: 10}, 5)
	tests := []struct {
		name string
		p    v3.Vec
		want float64
	}{
		{"centre", v3.Vec{X: 10}, -5},
		{"surface", v3.Vec{X: 15}, 0},
		{"outside", v3.Vec{X: 10, Y: 8}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Evaluate(tt.p); math.Abs(got-tt.want) > eps {
				t.Errorf("Evaluate(%v) = %f, want %f", tt.p, got, tt.want)
			}
		})
	}
	if g := s.Gradient(v3.Vec{X: 10, Y: 3}); g != (v3.Vec{Y: 1}) {
		t.Errorf("Gradient = %v, want +Y", g)
	}
}

func TestNewSphereRejectsBadRadius(t *testing.T) {
	for _, r := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := NewSphere(v3.Vec{}, r); !errors.Is(err, ErrInvalidFunction) {
			t.Errorf("NewSphere(r=%v) error = %v, want ErrInvalidFunction", r, err)
		}
	}
}

func TestPlane(t *testing.T) {
	pl, err := NewPlane(v3.Vec{Z: 2}, v3.Vec{Z: 10})
	if err != nil {
		t.Fatalf("NewPlane failed: %v", err)
	}
	if pl.Normal != (v3.Vec{Z: 1}) {
		t.Errorf("normal not normalized: %v", pl.Normal)
	}
	if got := pl.Evaluate(v3.Vec{X: 7, Z: 5}); math.Abs(got-3) > eps {
		t.Errorf("Evaluate = %f, want 3", got)
	}
	if got := pl.Evaluate(v3.Vec{Z: -1}); math.Abs(got+3) > eps {
		t.Errorf("Evaluate = %f, want -3", got)
	}
	if _, err := NewPlane(v3.Vec{}, v3.Vec{}); !errors.Is(err, ErrInvalidFunction) {
		t.Errorf("zero normal error = %v", err)
	}
}

func TestTransformed(t *testing.T) {
	unit := mustSphere(t, v3.Vec{}, 1)

	moved, err := Translate(unit, v3.Vec{X: 100})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got := moved.Evaluate(v3.Vec{X: 100}); math.Abs(got+1) > eps {
		t.Errorf("translated centre = %f, want -1", got)
	}

	big, err := Scale(unit, v3.Vec{X: 2, Y: 2, Z: 2})
	if err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	if got := big.Evaluate(v3.Vec{X: 2}); math.Abs(got) > eps {
		t.Errorf("scaled surface = %f, want 0", got)
	}

	half, err := NewPlane(v3.Vec{}, v3.Vec{X: 1})
	if err != nil {
		t.Fatalf("NewPlane failed: %v", err)
	}
	turned, err := Rotate(half, v3.Vec{Z: 90})
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	// +X rotated by 90 degrees about Z points along +Y.
	if got := turned.Evaluate(v3.Vec{Y: 3}); math.Abs(got-3) > 1e-6 {
		t.Errorf("rotated plane at +Y = %f, want 3", got)
	}

	if _, err := Scale(unit, v3.Vec{X: 0, Y: 1, Z: 1}); !errors.Is(err, ErrInvalidFunction) {
		t.Errorf("singular scale error = %v", err)
	}
	if _, err := NewTransformed(nil, sdf.Identity3d()); !errors.Is(err, ErrInvalidFunction) {
		t.Errorf("nil inner error = %v", err)
	}
}

func TestComposition(t *testing.T) {
	a := mustSphere(t, v3.Vec{X: -5}, 10)
	b := mustSphere(t, v3.Vec{X: 5}, 10)
	p := v3.Vec{X: -12} // inside a only

	tests := []struct {
		name   string
		f      Function
		inside bool
	}{
		{"union", Union{a, b}, true},
		{"intersection", Intersection{a, b}, false},
		{"difference a-b", Difference{A: a, B: b}, true},
		{"difference b-a", Difference{A: b, B: a}, false},
		{"complement", Complement{F: a}, false},
		{"empty union", Union{}, false},
		{"empty intersection", Intersection{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Evaluate(p) <= 0; got != tt.inside {
				t.Errorf("inside = %v, want %v (value %f)", got, tt.inside, tt.f.Evaluate(p))
			}
		})
	}
}

func TestIsovalue(t *testing.T) {
	g, err := volume.FromFunc([3]int{3, 3, 3}, v3.Vec{X: 1, Y: 1, Z: 1}, v3.Vec{},
		func(p v3.Vec) float64 { return 10 * p.X })
	if err != nil {
		t.Fatalf("FromFunc failed: %v", err)
	}
	iv := Isovalue{Grid: g, Level: 15}
	if got := iv.Evaluate(v3.Vec{X: 2, Y: 1, Z: 1}); got >= 0 {
		t.Errorf("dense point evaluates %f, want inside", got)
	}
	if got := iv.Evaluate(v3.Vec{X: 1.5, Y: 1, Z: 1}); math.Abs(got) > eps {
		t.Errorf("level crossing evaluates %f, want 0", got)
	}
}

func TestGradientFallsBackToDifferences(t *testing.T) {
	s := mustSphere(t, v3.Vec{}, 3)
	p := v3.Vec{X: 1, Y: 2, Z: 2}
	exact := Gradient(s, p)
	numeric := Gradient(Union{s}, p)
	if numeric.Sub(exact).Length() > 1e-6 {
		t.Errorf("numeric gradient %v, analytic %v", numeric, exact)
	}
}

func TestTessellatePreview(t *testing.T) {
	s := mustSphere(t, v3.Vec{X: 10}, 20)
	bounds := sdf.Box3{Min: v3.Vec{X: -15, Y: -25, Z: -25}, Max: v3.Vec{X: 35, Y: 25, Z: 25}}
	m, err := Tessellate(s, bounds, 32)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("preview is empty")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("invalid preview: %v", err)
	}
	cell := 50.0 / 32
	for i, v := range m.Vertices {
		if d := math.Abs(s.Evaluate(v)); d > cell {
			t.Fatalf("vertex %d is %f from the surface", i, d)
		}
	}
	for e, n := range m.EdgeUse() {
		if n > 2 {
			t.Fatalf("edge %v used %d times after welding", e, n)
		}
	}

	if _, err := Tessellate(s, sdf.Box3{}, 32); !errors.Is(err, ErrInvalidFunction) {
		t.Errorf("empty bounds error = %v", err)
	}
}
