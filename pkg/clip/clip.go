// Package clip splits a mesh against an implicit function.
package clip

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/implicit"
	"github.com/chazu/osteo/pkg/kernel"
)

type options struct {
	value     float64
	insideOut bool
}

// Option configures Clip.
type Option func(*options)

// WithValue offsets the classification boundary: a vertex is inside when
// f(p) - v <= 0.
func WithValue(v float64) Option {
	return func(o *options) { o.value = v }
}

// InsideOut retains the outside of the function instead of the inside.
func InsideOut() Option {
	return func(o *options) { o.insideOut = true }
}

// Clip evaluates f at every vertex and splits m into the part inside f
// (retained) and the rest (clipped). Triangles straddling the boundary are
// cut at linearly interpolated edge crossings; each crossing is computed
// once per mesh edge and shared by both sides, so the two halves meet along
// an identical seam.
//
// Both results carry per-vertex scalars: f(p) at original vertices and the
// clip value at crossings.
func Clip(m *kernel.Mesh, f implicit.Function, opts ...Option) (retained, clipped *kernel.Mesh, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := m.Validate(); err != nil {
		return nil, nil, fmt.Errorf("clip: %w", err)
	}
	if f == nil {
		return nil, nil, fmt.Errorf("clip: nil function")
	}

	c := &clipper{
		mesh:      m,
		value:     o.value,
		raw:       make([]float64, len(m.Vertices)),
		s:         make([]float64, len(m.Vertices)),
		crossings: make(map[[2]int]int),
	}
	for i, v := range m.Vertices {
		c.raw[i] = f.Evaluate(v)
		c.s[i] = c.raw[i] - o.value
	}
	in := newBuilder(m.Name+"-inside", c)
	out := newBuilder(m.Name+"-outside", c)

	var inPoly, outPoly []int
	for _, tri := range m.Triangles {
		nIn := 0
		for _, v := range tri {
			if c.inside(v) {
				nIn++
			}
		}
		switch nIn {
		case 3:
			in.polygon(tri[:])
			continue
		case 0:
			out.polygon(tri[:])
			continue
		}
		inPoly, outPoly = inPoly[:0], outPoly[:0]
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if c.inside(a) {
				inPoly = append(inPoly, a)
			} else {
				outPoly = append(outPoly, a)
			}
			if c.inside(a) != c.inside(b) {
				x := c.crossing(a, b)
				inPoly = append(inPoly, x)
				outPoly = append(outPoly, x)
			}
		}
		in.polygon(inPoly)
		out.polygon(outPoly)
	}

	retained, clipped = in.mesh, out.mesh
	if o.insideOut {
		retained, clipped = clipped, retained
	}
	retained.Name = m.Name + "-retained"
	clipped.Name = m.Name + "-clipped"
	return retained, clipped, nil
}

// clipper holds the per-vertex classification and the shared crossings.
// Vertex ids below len(mesh.Vertices) are original vertices; higher ids
// index crossings.
type clipper struct {
	mesh      *kernel.Mesh
	value     float64
	raw, s    []float64
	points    []v3.Vec
	crossings map[[2]int]int
}

func (c *clipper) inside(v int) bool {
	return c.s[v] <= 0
}

// crossing returns the vertex id where edge (a, b) meets the boundary.
// Crossings that land on an endpoint reuse it.
func (c *clipper) crossing(a, b int) int {
	key := kernel.EdgeKey(a, b)
	if id, ok := c.crossings[key]; ok {
		return id
	}
	lo, hi := key[0], key[1]
	t := c.s[lo] / (c.s[lo] - c.s[hi])
	var id int
	switch {
	case t <= 0:
		id = lo
	case t >= 1:
		id = hi
	default:
		pa, pb := c.mesh.Vertices[lo], c.mesh.Vertices[hi]
		id = len(c.mesh.Vertices) + len(c.points)
		c.points = append(c.points, pa.Add(pb.Sub(pa).MulScalar(t)))
	}
	c.crossings[key] = id
	return id
}

// builder assembles one side, adding only the vertices it uses.
type builder struct {
	c     *clipper
	mesh  *kernel.Mesh
	remap map[int]int
	poly  []int
}

func newBuilder(name string, c *clipper) *builder {
	return &builder{c: c, mesh: kernel.NewMesh(name), remap: make(map[int]int)}
}

func (b *builder) vertex(id int) int {
	if v, ok := b.remap[id]; ok {
		return v
	}
	n := len(b.c.mesh.Vertices)
	v := len(b.mesh.Vertices)
	if id < n {
		b.mesh.Vertices = append(b.mesh.Vertices, b.c.mesh.Vertices[id])
		b.mesh.Scalars = append(b.mesh.Scalars, b.c.raw[id])
	} else {
		b.mesh.Vertices = append(b.mesh.Vertices, b.c.points[id-n])
		b.mesh.Scalars = append(b.mesh.Scalars, b.c.value)
	}
	b.remap[id] = v
	return v
}

// polygon fan-triangulates a convex polygon of vertex ids after dropping
// repeated neighbours.
func (b *builder) polygon(ids []int) {
	b.poly = b.poly[:0]
	for _, id := range ids {
		if len(b.poly) > 0 && b.poly[len(b.poly)-1] == id {
			continue
		}
		b.poly = append(b.poly, id)
	}
	for len(b.poly) > 1 && b.poly[0] == b.poly[len(b.poly)-1] {
		b.poly = b.poly[:len(b.poly)-1]
	}
	if len(b.poly) < 3 {
		return
	}
	first := b.vertex(b.poly[0])
	for k := 1; k+1 < len(b.poly); k++ {
		b.mesh.Triangles = append(b.mesh.Triangles,
			[3]int{first, b.vertex(b.poly[k]), b.vertex(b.poly[k+1])})
	}
}
