package volume

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func rampGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := FromFunc([3]int{4, 3, 2}, v3.Vec{X: 1, Y: 2, Z: 3}, v3.Vec{X: -1},
		func(p v3.Vec) float64 { return p.X + 10*p.Y + 100*p.Z })
	if err != nil {
		t.Fatalf("FromFunc failed: %v", err)
	}
	return g
}

func TestNewValidates(t *testing.T) {
	unit := v3.Vec{X: 1, Y: 1, Z: 1}
	tests := []struct {
		name    string
		dims    [3]int
		spacing v3.Vec
		data    []float64
		wantErr bool
	}{
		{"empty", [3]int{0, 0, 0}, unit, nil, false},
		{"single cell", [3]int{2, 2, 2}, unit, make([]float64, 8), false},
		{"length mismatch", [3]int{2, 2, 2}, unit, make([]float64, 7), true},
		{"negative dimension", [3]int{-1, 2, 2}, unit, nil, true},
		{"zero spacing", [3]int{2, 2, 2}, v3.Vec{X: 1, Y: 0, Z: 1}, make([]float64, 8), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.dims, tt.spacing, v3.Vec{}, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("error %v does not wrap ErrInvalidGrid", err)
			}
		})
	}
}

func TestFromFuncRejectsNegativeDims(t *testing.T) {
	unit := v3.Vec{X: 1, Y: 1, Z: 1}
	for _, dims := range [][3]int{{-1, 2, 2}, {2, -3, 2}, {-1, -1, 1}} {
		_, err := FromFunc(dims, unit, v3.Vec{}, func(v3.Vec) float64 { return 0 })
		if !errors.Is(err, ErrInvalidGrid) {
			t.Errorf("FromFunc(%v) error = %v, want ErrInvalidGrid", dims, err)
		}
	}
}

func TestIndexingAndPosition(t *testing.T) {
	g := rampGrid(t)
	if g.Index(1, 2, 1) != 1+4*(2+3*1) {
		t.Errorf("Index(1,2,1) = %d", g.Index(1, 2, 1))
	}
	p := g.Position(3, 2, 1)
	want := v3.Vec{X: 2, Y: 4, Z: 3}
	if p != want {
		t.Errorf("Position(3,2,1) = %v, want %v", p, want)
	}
	if got := g.At(3, 2, 1); got != 2+40+300 {
		t.Errorf("At(3,2,1) = %f, want 342", got)
	}
	bb := g.Bounds()
	if bb.Min != (v3.Vec{X: -1}) || bb.Max != want {
		t.Errorf("Bounds() = %v", bb)
	}
}

func TestIsEmpty(t *testing.T) {
	flat, _ := New([3]int{5, 5, 1}, v3.Vec{X: 1, Y: 1, Z: 1}, v3.Vec{}, make([]float64, 25))
	if !flat.IsEmpty() {
		t.Error("a single-slice grid has no cells and should be empty")
	}
	var nilGrid *Grid
	if !nilGrid.IsEmpty() {
		t.Error("nil grid should be empty")
	}
	if rampGrid(t).IsEmpty() {
		t.Error("ramp grid should not be empty")
	}
}

func TestGradientOfLinearField(t *testing.T) {
	g := rampGrid(t)
	for _, idx := range [][3]int{{0, 0, 0}, {1, 1, 0}, {3, 2, 1}} {
		grad := g.Gradient(idx[0], idx[1], idx[2])
		want := v3.Vec{X: 1, Y: 10, Z: 100}
		if grad.Sub(want).Length() > 1e-9 {
			t.Errorf("Gradient%v = %v, want %v", idx, grad, want)
		}
	}
}

func TestSampleTrilinear(t *testing.T) {
	g := rampGrid(t)
	tests := []struct {
		name string
		p    v3.Vec
		want float64
	}{
		{"lattice point", v3.Vec{X: 0, Y: 2, Z: 0}, 0 + 20},
		{"cell interior", v3.Vec{X: 0.5, Y: 1, Z: 1.5}, 0.5 + 10 + 150},
		{"clamped below", v3.Vec{X: -5, Y: 0, Z: 0}, -1},
		{"clamped above", v3.Vec{X: 10, Y: 10, Z: 10}, 2 + 40 + 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Sample(tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Sample(%v) = %f, want %f", tt.p, got, tt.want)
			}
		})
	}
}

func TestFromSDFBlob(t *testing.T) {
	s, err := sdf.Sphere3D(50)
	if err != nil {
		t.Fatalf("Sphere3D failed: %v", err)
	}
	bounds := sdf.Box3{Min: v3.Vec{X: -64, Y: -64, Z: -64}, Max: v3.Vec{X: 64, Y: 64, Z: 64}}
	g, err := FromSDF(s, [3]int{17, 17, 17}, bounds, 100, 0)
	if err != nil {
		t.Fatalf("FromSDF failed: %v", err)
	}
	if g.Spacing != (v3.Vec{X: 8, Y: 8, Z: 8}) {
		t.Errorf("spacing = %v, want 8", g.Spacing)
	}
	if got := g.At(8, 8, 8); got != 100 {
		t.Errorf("center sample = %f, want 100", got)
	}
	if got := g.At(0, 0, 0); got != 0 {
		t.Errorf("corner sample = %f, want 0", got)
	}
	lo, hi, ok := g.Range()
	if !ok || lo != 0 || hi != 100 {
		t.Errorf("Range() = %f, %f, %v", lo, hi, ok)
	}
	st := g.Stats()
	if st.Count != 17*17*17 || st.Mean <= 0 || st.Mean >= 100 {
		t.Errorf("Stats() = %+v", st)
	}

	if _, err := FromSDF(s, [3]int{1, 17, 17}, bounds, 100, 0); err == nil {
		t.Error("expected error for a degenerate lattice")
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	g := rampGrid(t)
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Dims != g.Dims || got.Spacing != g.Spacing || got.Origin != g.Origin {
		t.Fatalf("header mismatch: %+v vs %+v", got, g)
	}
	for i := range g.Data {
		if got.Data[i] != g.Data[i] {
			t.Fatalf("sample %d = %f, want %f", i, got.Data[i], g.Data[i])
		}
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("NOPE"), make([]byte, 64)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(bytes.NewReader(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}

	var buf bytes.Buffer
	if err := Write(&buf, rampGrid(t)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-4]
	if _, err := Read(bytes.NewReader(truncated)); err == nil {
		t.Error("expected error for truncated samples")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.vol")
	g := rampGrid(t)
	if err := Save(path, g); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Len() != g.Len() {
		t.Errorf("Len() = %d, want %d", got.Len(), g.Len())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.vol")); err == nil {
		t.Error("expected error for missing file")
	}
}
