// Package export writes pipeline results to interchange formats: meshes as
// binary STL and section polylines as DXF line drawings.
package export

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/fauxgl"

	"github.com/chazu/osteo/pkg/kernel"
)

// ErrNothingToExport is returned when the input holds no geometry.
var ErrNothingToExport = errors.New("nothing to export")

// SaveSTL writes the triangles of m to path as binary STL. Coordinates are
// stored in single precision; scalars are not representable and are dropped.
func SaveSTL(path string, m *kernel.Mesh) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if m.IsEmpty() {
		return fmt.Errorf("export: %w: mesh %q has no triangles", ErrNothingToExport, m.Name)
	}
	tris := make([]*fauxgl.Triangle, 0, m.TriangleCount())
	for t := range m.Triangles {
		a, b, c := m.Triangle(t)
		tris = append(tris, fauxgl.NewTriangleForPoints(toFaux(a), toFaux(b), toFaux(c)))
	}
	if err := fauxgl.NewTriangleMesh(tris).SaveSTL(path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// LoadSTL reads an ASCII or binary STL file. Corners at identical positions
// are welded into shared vertices.
func LoadSTL(path string) (*kernel.Mesh, error) {
	fm, err := fauxgl.LoadSTL(path)
	if err != nil {
		return nil, fmt.Errorf("export: read %s: %w", path, err)
	}
	m := kernel.NewMesh(path)
	index := make(map[v3.Vec]int, len(fm.Triangles))
	weld := func(p fauxgl.Vector) int {
		v := v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
		if i, ok := index[v]; ok {
			return i
		}
		i := len(m.Vertices)
		index[v] = i
		m.Vertices = append(m.Vertices, v)
		return i
	}
	for _, t := range fm.Triangles {
		m.Triangles = append(m.Triangles, [3]int{
			weld(t.V1.Position),
			weld(t.V2.Position),
			weld(t.V3.Position),
		})
	}
	return m, nil
}

func toFaux(v v3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}
