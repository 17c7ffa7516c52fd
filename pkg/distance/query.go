package distance

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/kernel"
)

// Query selects the points a distance field is sampled at.
type Query interface {
	points() ([]v3.Vec, [3]int, error)
	describe(d *kernel.Digest)
}

// VertexQuery samples at every vertex of a mesh.
type VertexQuery struct {
	Mesh *kernel.Mesh
}

func (q VertexQuery) points() ([]v3.Vec, [3]int, error) {
	if err := q.Mesh.Validate(); err != nil {
		return nil, [3]int{}, fmt.Errorf("query mesh: %w", err)
	}
	return q.Mesh.Vertices, [3]int{}, nil
}

func (q VertexQuery) describe(d *kernel.Digest) {
	d.Text("vertices").Hash(q.Mesh.GeometryHash())
}

// LatticeQuery samples a regular Dims lattice spanning Bounds, corners
// included, x varying fastest. A dimension of 1 samples Bounds.Min only.
type LatticeQuery struct {
	Bounds sdf.Box3
	Dims   [3]int
}

func (q LatticeQuery) points() ([]v3.Vec, [3]int, error) {
	for a, n := range q.Dims {
		if n < 1 {
			return nil, [3]int{}, fmt.Errorf("%w: lattice dimension %d is %d", ErrInvalidQuery, a, n)
		}
	}
	size := q.Bounds.Max.Sub(q.Bounds.Min)
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return nil, [3]int{}, fmt.Errorf("%w: inverted bounds %v", ErrInvalidQuery, q.Bounds)
	}
	step := func(extent float64, n int) float64 {
		if n == 1 {
			return 0
		}
		return extent / float64(n-1)
	}
	sx, sy, sz := step(size.X, q.Dims[0]), step(size.Y, q.Dims[1]), step(size.Z, q.Dims[2])
	pts := make([]v3.Vec, 0, q.Dims[0]*q.Dims[1]*q.Dims[2])
	for k := 0; k < q.Dims[2]; k++ {
		for j := 0; j < q.Dims[1]; j++ {
			for i := 0; i < q.Dims[0]; i++ {
				pts = append(pts, q.Bounds.Min.Add(v3.Vec{
					X: float64(i) * sx,
					Y: float64(j) * sy,
					Z: float64(k) * sz,
				}))
			}
		}
	}
	return pts, q.Dims, nil
}

func (q LatticeQuery) describe(d *kernel.Digest) {
	d.Text("lattice").Vec(q.Bounds.Min).Vec(q.Bounds.Max).
		Int(q.Dims[0]).Int(q.Dims[1]).Int(q.Dims[2])
}
