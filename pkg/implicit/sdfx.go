package implicit

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/kernel"
)

// DefaultPreviewCells is the marching cubes resolution along the longest
// axis of a preview.
const DefaultPreviewCells = 64

// Compile-time interface check.
var _ sdf.SDF3 = (*boundedSDF)(nil)

// boundedSDF gives a Function the bounding box sdfx needs.
type boundedSDF struct {
	f  Function
	bb sdf.Box3
}

func (b *boundedSDF) Evaluate(p v3.Vec) float64 { return b.f.Evaluate(p) }

func (b *boundedSDF) BoundingBox() sdf.Box3 { return b.bb }

// ToSDF adapts f into an sdf.SDF3 limited to bounds.
func ToSDF(f Function, bounds sdf.Box3) sdf.SDF3 {
	return &boundedSDF{f: f, bb: bounds}
}

// Tessellate renders the zero level of f inside bounds with sdfx's uniform
// marching cubes. sdfx emits a triangle soup; coincident corners are welded
// so the result is an indexed mesh.
func Tessellate(f Function, bounds sdf.Box3, cells int) (*kernel.Mesh, error) {
	if cells <= 0 {
		cells = DefaultPreviewCells
	}
	size := bounds.Max.Sub(bounds.Min)
	if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
		return nil, fmt.Errorf("%w: preview bounds %v are empty", ErrInvalidFunction, bounds)
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(ToSDF(f, bounds), renderer)

	mesh := kernel.NewMesh("preview")
	index := make(map[v3.Vec]int, len(triangles))
	weld := func(v v3.Vec) int {
		if i, ok := index[v]; ok {
			return i
		}
		i := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, v)
		index[v] = i
		return i
	}
	for _, tri := range triangles {
		var t [3]int
		for j := 0; j < 3; j++ {
			t[j] = weld(tri[j])
		}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		mesh.Triangles = append(mesh.Triangles, t)
	}
	return mesh, nil
}
