package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// unitSquare returns two triangles covering the unit square in z=0,
// wound counter-clockwise seen from +z.
func unitSquare() *Mesh {
	return &Mesh{
		Name: "square",
		Vertices: []v3.Vec{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		},
		Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []v3.Vec
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []v3.Vec{{X: 1, Y: 2, Z: 3}}, 1},
		{"four vertices", unitSquare().Vertices, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name      string
		triangles [][3]int
		want      int
	}{
		{"empty", nil, 0},
		{"one triangle", [][3]int{{0, 1, 2}}, 1},
		{"two triangles", [][3]int{{0, 1, 2}, {2, 3, 0}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Triangles: tt.triangles}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("vertices without triangles", func(t *testing.T) {
		m := &Mesh{Vertices: []v3.Vec{{X: 1, Y: 2, Z: 3}}}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for mesh without triangles, want true")
		}
	})
	t.Run("nil mesh", func(t *testing.T) {
		var m *Mesh
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for nil mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		if unitSquare().IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshValidate(t *testing.T) {
	tests := []struct {
		name    string
		mesh    *Mesh
		wantErr bool
	}{
		{"empty mesh is valid", &Mesh{}, false},
		{"square", unitSquare(), false},
		{"index out of range", &Mesh{
			Vertices:  unitSquare().Vertices,
			Triangles: [][3]int{{0, 1, 4}},
		}, true},
		{"negative index", &Mesh{
			Vertices:  unitSquare().Vertices,
			Triangles: [][3]int{{-1, 1, 2}},
		}, true},
		{"scalar length mismatch", &Mesh{
			Vertices:  unitSquare().Vertices,
			Triangles: unitSquare().Triangles,
			Scalars:   []float64{1, 2},
		}, true},
		{"matching scalars", &Mesh{
			Vertices:  unitSquare().Vertices,
			Triangles: unitSquare().Triangles,
			Scalars:   []float64{1, 2, 3, 4},
		}, false},
		{"nil mesh", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("Validate() error %v does not wrap ErrInvalidMesh", err)
			}
		})
	}
}

func TestFaceNormal(t *testing.T) {
	m := unitSquare()
	n := m.FaceNormal(0)
	if math.Abs(n.Z-1) > 1e-12 || math.Abs(n.X) > 1e-12 || math.Abs(n.Y) > 1e-12 {
		t.Errorf("FaceNormal(0) = %v, want (0,0,1)", n)
	}

	degenerate := &Mesh{
		Vertices:  []v3.Vec{{X: 0}, {X: 1}, {X: 2}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	if got := degenerate.FaceNormal(0); got != (v3.Vec{}) {
		t.Errorf("degenerate FaceNormal = %v, want zero", got)
	}
}

func TestVertexNormals(t *testing.T) {
	normals := unitSquare().VertexNormals()
	if len(normals) != 4 {
		t.Fatalf("len(normals) = %d, want 4", len(normals))
	}
	for i, n := range normals {
		if math.Abs(n.Length()-1) > 1e-9 {
			t.Errorf("normal %d length = %f, want 1", i, n.Length())
		}
		if n.Z < 0.999 {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
}

func TestBoundingBoxAndArea(t *testing.T) {
	m := unitSquare()
	bb := m.BoundingBox()
	if bb.Min != (v3.Vec{}) || bb.Max != (v3.Vec{X: 1, Y: 1, Z: 0}) {
		t.Errorf("BoundingBox() = %v, want [0,0,0]-[1,1,0]", bb)
	}
	if a := m.Area(); math.Abs(a-1) > 1e-12 {
		t.Errorf("Area() = %f, want 1", a)
	}
	if (&Mesh{}).BoundingBox() != (sdf.Box3{}) {
		t.Error("empty mesh should have a zero bounding box")
	}
}

func TestHashIgnoresNameAndTracksContent(t *testing.T) {
	a := unitSquare()
	b := unitSquare()
	b.Name = "renamed"
	if a.Hash() != b.Hash() {
		t.Error("hash should not depend on the mesh name")
	}

	b.Vertices = append([]v3.Vec(nil), b.Vertices...)
	b.Vertices[2].Z = 1e-9
	if a.Hash() == b.Hash() {
		t.Error("hash should change when a vertex moves")
	}

	c := unitSquare()
	c.Scalars = []float64{0, 0, 0, 0}
	if a.Hash() == c.Hash() {
		t.Error("hash should change when scalars are attached")
	}
	if a.GeometryHash() != c.GeometryHash() {
		t.Error("geometry hash should ignore scalars")
	}
	if a.GeometryHash() == b.GeometryHash() {
		t.Error("geometry hash should change when a vertex moves")
	}
	if a.Hash().IsZero() {
		t.Error("hash of a non-empty mesh should not be zero")
	}
	if len(a.Hash().Short()) != 12 {
		t.Errorf("Short() = %q, want 12 characters", a.Hash().Short())
	}
}

func TestEdgeUse(t *testing.T) {
	use := unitSquare().EdgeUse()
	if got := use[EdgeKey(0, 2)]; got != 2 {
		t.Errorf("diagonal used %d times, want 2", got)
	}
	if got := use[EdgeKey(1, 0)]; got != 1 {
		t.Errorf("border edge used %d times, want 1", got)
	}
	if len(use) != 5 {
		t.Errorf("len(EdgeUse()) = %d, want 5", len(use))
	}
}

func TestMerge(t *testing.T) {
	a := unitSquare()
	b := unitSquare()
	merged := Merge("both", a, nil, &Mesh{}, b)
	if merged.VertexCount() != 8 || merged.TriangleCount() != 4 {
		t.Fatalf("merged counts = %d/%d, want 8/4", merged.VertexCount(), merged.TriangleCount())
	}
	if merged.Triangles[2] != [3]int{4, 5, 6} {
		t.Errorf("second mesh not reindexed: %v", merged.Triangles[2])
	}
	if err := merged.Validate(); err != nil {
		t.Errorf("merged mesh invalid: %v", err)
	}
	if merged.HasScalars() {
		t.Error("merged mesh should drop scalars when inputs lack them")
	}
}

func TestWithScalars(t *testing.T) {
	m := unitSquare()
	if _, err := m.WithScalars("bad", []float64{1}); err == nil {
		t.Fatal("expected error for scalar length mismatch")
	}
	out, err := m.WithScalars("annotated", []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("WithScalars failed: %v", err)
	}
	if m.HasScalars() {
		t.Error("WithScalars must not mutate the source mesh")
	}
	lo, hi, ok := out.ScalarRange()
	if !ok || lo != 1 || hi != 4 {
		t.Errorf("ScalarRange() = %f, %f, %v; want 1, 4, true", lo, hi, ok)
	}
}

func TestFlatten(t *testing.T) {
	pos, nrm, idx := unitSquare().Flatten()
	if len(pos) != 12 || len(nrm) != 12 || len(idx) != 6 {
		t.Fatalf("Flatten lengths = %d/%d/%d, want 12/12/6", len(pos), len(nrm), len(idx))
	}
	if idx[3] != 0 || idx[4] != 2 || idx[5] != 3 {
		t.Errorf("indices = %v", idx)
	}
}

// --- Polyline and field tests ---

func TestPolylineSegmentsAndLength(t *testing.T) {
	pts := []v3.Vec{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	tests := []struct {
		name     string
		pl       Polyline
		segments int
		length   float64
	}{
		{"empty", Polyline{}, 0, 0},
		{"single point", Polyline{Points: pts[:1]}, 0, 0},
		{"open", Polyline{Points: pts}, 3, 3},
		{"closed", Polyline{Points: pts, Closed: true}, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pl.SegmentCount(); got != tt.segments {
				t.Errorf("SegmentCount() = %d, want %d", got, tt.segments)
			}
			if got := tt.pl.Length(); math.Abs(got-tt.length) > 1e-12 {
				t.Errorf("Length() = %f, want %f", got, tt.length)
			}
		})
	}
}

func TestOutline(t *testing.T) {
	lines := Outline(sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 1, Y: 2, Z: 3}})
	if len(lines) != 12 {
		t.Fatalf("Outline() returned %d edges, want 12", len(lines))
	}
	var total float64
	for _, l := range lines {
		total += l.Length()
	}
	if math.Abs(total-4*(1+2+3)) > 1e-12 {
		t.Errorf("total outline length = %f, want 24", total)
	}
}

func TestScalarFieldValidate(t *testing.T) {
	pts := []v3.Vec{{}, {X: 1}}
	tests := []struct {
		name    string
		field   *ScalarField
		wantErr bool
	}{
		{"empty", &ScalarField{}, false},
		{"matching", &ScalarField{Points: pts, Values: []float64{0, 1}}, false},
		{"mismatch", &ScalarField{Points: pts, Values: []float64{0}}, true},
		{"lattice ok", &ScalarField{Points: pts, Values: []float64{0, 1}, Dims: [3]int{2, 1, 1}}, false},
		{"lattice mismatch", &ScalarField{Points: pts, Values: []float64{0, 1}, Dims: [3]int{2, 2, 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidField) {
				t.Errorf("error %v does not wrap ErrInvalidField", err)
			}
		})
	}
}

func TestDigestDistinguishesInputs(t *testing.T) {
	a := NewDigest("test").Float(1).Int(2).Bool(true).Text("x").Sum()
	b := NewDigest("test").Float(1).Int(2).Bool(false).Text("x").Sum()
	c := NewDigest("test").Float(1).Int(2).Bool(true).Text("x").Sum()
	if a == b {
		t.Error("digest should depend on the bool")
	}
	if a != c {
		t.Error("digest should be deterministic")
	}
}
