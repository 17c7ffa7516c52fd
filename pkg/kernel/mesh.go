package kernel

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is an indexed triangle mesh. Triangles index into Vertices.
// Scalars, when present, holds one value per vertex (clip value, distance).
type Mesh struct {
	Name      string
	Vertices  []v3.Vec
	Triangles [][3]int
	Scalars   []float64
}

// NewMesh returns an empty named mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Triangles) == 0
}

// HasScalars reports whether the mesh carries a per-vertex scalar array.
func (m *Mesh) HasScalars() bool {
	return len(m.Scalars) > 0
}

// Validate checks the structural invariants: every triangle index is in
// range and the scalar array, if any, matches the vertex count.
func (m *Mesh) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mesh", ErrInvalidMesh)
	}
	n := len(m.Vertices)
	for t, tri := range m.Triangles {
		for c, idx := range tri {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: %q triangle %d corner %d index %d out of range [0,%d)",
					ErrInvalidMesh, m.Name, t, c, idx, n)
			}
		}
	}
	if len(m.Scalars) != 0 && len(m.Scalars) != n {
		return fmt.Errorf("%w: %q has %d scalars for %d vertices",
			ErrInvalidMesh, m.Name, len(m.Scalars), n)
	}
	return nil
}

// Triangle returns the corner positions of triangle t.
func (m *Mesh) Triangle(t int) (a, b, c v3.Vec) {
	tri := m.Triangles[t]
	return m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
}

// FaceNormal returns the unit normal of triangle t following its winding,
// or the zero vector for a degenerate triangle.
func (m *Mesh) FaceNormal(t int) v3.Vec {
	a, b, c := m.Triangle(t)
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Length()
	if l < 1e-300 {
		return v3.Vec{}
	}
	return n.DivScalar(l)
}

// VertexNormals generates per-vertex normals by summing the area-weighted
// face normals of all triangles incident on each vertex.
func (m *Mesh) VertexNormals() []v3.Vec {
	normals := make([]v3.Vec, len(m.Vertices))
	for _, tri := range m.Triangles {
		a, b, c := m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
		// Unnormalized cross product weights by area.
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range tri {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i, n := range normals {
		if l := n.Length(); l > 1e-12 {
			normals[i] = n.DivScalar(l)
		}
	}
	return normals
}

// BoundingBox returns the axis-aligned bounds of the vertices. An empty
// mesh has a zero box.
func (m *Mesh) BoundingBox() sdf.Box3 {
	if len(m.Vertices) == 0 {
		return sdf.Box3{}
	}
	lo, hi := m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return sdf.Box3{Min: lo, Max: hi}
}

// Area returns the total surface area.
func (m *Mesh) Area() float64 {
	var sum float64
	for _, tri := range m.Triangles {
		a, b, c := m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
		sum += b.Sub(a).Cross(c.Sub(a)).Length() / 2
	}
	return sum
}

// Hash returns a content hash of the vertices, triangles and scalars.
// The name is not part of the content.
func (m *Mesh) Hash() ContentHash {
	h := newHasher("mesh/v1")
	h.u64(uint64(len(m.Vertices)))
	for _, v := range m.Vertices {
		h.vec(v)
	}
	h.u64(uint64(len(m.Triangles)))
	for _, tri := range m.Triangles {
		h.u64(uint64(tri[0]))
		h.u64(uint64(tri[1]))
		h.u64(uint64(tri[2]))
	}
	h.u64(uint64(len(m.Scalars)))
	for _, s := range m.Scalars {
		h.f64(s)
	}
	return h.done()
}

// GeometryHash hashes only the vertices and triangles, so meshes that
// differ in their scalar annotation share it.
func (m *Mesh) GeometryHash() ContentHash {
	h := newHasher("mesh-geometry/v1")
	h.u64(uint64(len(m.Vertices)))
	for _, v := range m.Vertices {
		h.vec(v)
	}
	h.u64(uint64(len(m.Triangles)))
	for _, tri := range m.Triangles {
		h.u64(uint64(tri[0]))
		h.u64(uint64(tri[1]))
		h.u64(uint64(tri[2]))
	}
	return h.done()
}

// WithScalars returns a copy of m sharing its geometry but carrying the
// given scalar array.
func (m *Mesh) WithScalars(name string, scalars []float64) (*Mesh, error) {
	out := &Mesh{
		Name:      name,
		Vertices:  m.Vertices,
		Triangles: m.Triangles,
		Scalars:   scalars,
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// EdgeUse counts how many triangles use each undirected edge.
func (m *Mesh) EdgeUse() map[[2]int]int {
	use := make(map[[2]int]int, len(m.Triangles)*3/2)
	for _, tri := range m.Triangles {
		for k := 0; k < 3; k++ {
			use[EdgeKey(tri[k], tri[(k+1)%3])]++
		}
	}
	return use
}

// EdgeKey returns the canonical (low, high) key of an undirected edge.
func EdgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// ScalarRange returns the minimum and maximum scalar value, ignoring NaN.
// ok is false when the mesh has no finite scalars.
func (m *Mesh) ScalarRange() (lo, hi float64, ok bool) {
	return valueRange(m.Scalars)
}

func valueRange(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range values {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// Merge concatenates meshes into one, reindexing triangles. Scalars are
// kept only if every non-empty input carries them.
func Merge(name string, meshes ...*Mesh) *Mesh {
	out := NewMesh(name)
	keepScalars := true
	for _, m := range meshes {
		if m == nil || len(m.Vertices) == 0 {
			continue
		}
		if !m.HasScalars() {
			keepScalars = false
		}
	}
	for _, m := range meshes {
		if m == nil || len(m.Vertices) == 0 {
			continue
		}
		base := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, tri := range m.Triangles {
			out.Triangles = append(out.Triangles, [3]int{tri[0] + base, tri[1] + base, tri[2] + base})
		}
		if keepScalars {
			out.Scalars = append(out.Scalars, m.Scalars...)
		}
	}
	return out
}

// Flatten converts the mesh into the flat float32/uint32 buffers expected by
// the rendering collaborator: 3 floats per vertex position and normal, 3
// indices per triangle.
func (m *Mesh) Flatten() (positions, normals []float32, indices []uint32) {
	vn := m.VertexNormals()
	positions = make([]float32, 0, len(m.Vertices)*3)
	normals = make([]float32, 0, len(m.Vertices)*3)
	indices = make([]uint32, 0, len(m.Triangles)*3)
	for i, v := range m.Vertices {
		positions = append(positions, float32(v.X), float32(v.Y), float32(v.Z))
		normals = append(normals, float32(vn[i].X), float32(vn[i].Y), float32(vn[i].Z))
	}
	for _, tri := range m.Triangles {
		indices = append(indices, uint32(tri[0]), uint32(tri[1]), uint32(tri[2]))
	}
	return positions, normals, indices
}
