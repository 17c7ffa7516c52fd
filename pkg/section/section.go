// Package section slices a mesh with a family of parallel planes and
// stitches each plane's intersection segments into polylines.
package section

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/kernel"
)

// DefaultTolerance is the distance within which segment endpoints are
// considered the same point.
const DefaultTolerance = 1e-6

// ErrInvalidParameters is returned for unusable plane families.
var ErrInvalidParameters = errors.New("invalid section parameters")

// Slice is the cut made by one plane.
type Slice struct {
	Index     int     // plane number within the family
	Offset    float64 // distance along the normal from the family origin
	Origin    v3.Vec  // a point on the plane
	Normal    v3.Vec  // unit plane normal
	Polylines []kernel.Polyline
}

type options struct {
	tolerance float64
}

// Option configures Section.
type Option func(*options)

// WithTolerance sets the endpoint matching tolerance.
func WithTolerance(tol float64) Option {
	return func(o *options) { o.tolerance = tol }
}

// Section cuts m with floor((high-low)/spacing) planes perpendicular to
// normal. Plane i passes through origin + (low + i*spacing)*n. Planes that
// miss the mesh are left out of the result.
func Section(m *kernel.Mesh, origin, normal v3.Vec, spacing, low, high float64, opts ...Option) ([]Slice, error) {
	o := options{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("section: %w", err)
	}
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, fmt.Errorf("section: %w: spacing %g", ErrInvalidParameters, spacing)
	}
	if math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 0) || math.IsInf(high, 0) {
		return nil, fmt.Errorf("section: %w: range [%g, %g]", ErrInvalidParameters, low, high)
	}
	if !(o.tolerance > 0) {
		return nil, fmt.Errorf("section: %w: tolerance %g", ErrInvalidParameters, o.tolerance)
	}
	l := normal.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return nil, fmt.Errorf("section: %w: normal %v", ErrInvalidParameters, normal)
	}
	n := normal.DivScalar(l)

	count := int(math.Floor((high - low) / spacing))
	if count <= 0 || m.IsEmpty() {
		return nil, nil
	}

	proj := make([]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		proj[i] = v.Dot(n)
	}
	spans := make([][2]float64, len(m.Triangles))
	for t, tri := range m.Triangles {
		a, b, c := proj[tri[0]], proj[tri[1]], proj[tri[2]]
		spans[t] = [2]float64{math.Min(a, math.Min(b, c)), math.Max(a, math.Max(b, c))}
	}

	base := origin.Dot(n)
	var slices []Slice
	for i := 0; i < count; i++ {
		offset := low + float64(i)*spacing
		level := base + offset
		segs := cutPlane(m, proj, spans, level)
		if len(segs) == 0 {
			continue
		}
		pls := stitch(segs, o.tolerance)
		if len(pls) == 0 {
			continue
		}
		slices = append(slices, Slice{
			Index:     i,
			Offset:    offset,
			Origin:    origin.Add(n.MulScalar(offset)),
			Normal:    n,
			Polylines: pls,
		})
	}
	return slices, nil
}

// cutPlane returns the segments where the plane proj == level crosses the
// mesh. Vertices with proj <= level are below; a triangle with corners on
// both sides crosses exactly two of its edges.
func cutPlane(m *kernel.Mesh, proj []float64, spans [][2]float64, level float64) [][2]v3.Vec {
	below := func(v int) bool { return proj[v] <= level }
	points := make(map[[2]int]v3.Vec)
	crossing := func(a, b int) v3.Vec {
		key := kernel.EdgeKey(a, b)
		if p, ok := points[key]; ok {
			return p
		}
		lo, hi := key[0], key[1]
		dl, dh := proj[lo]-level, proj[hi]-level
		t := math.Max(0, math.Min(1, dl/(dl-dh)))
		pa, pb := m.Vertices[lo], m.Vertices[hi]
		p := pa.Add(pb.Sub(pa).MulScalar(t))
		points[key] = p
		return p
	}

	var segs [][2]v3.Vec
	for t, tri := range m.Triangles {
		if spans[t][0] > level || spans[t][1] <= level {
			continue
		}
		var seg [2]v3.Vec
		k := 0
		for e := 0; e < 3 && k < 2; e++ {
			a, b := tri[e], tri[(e+1)%3]
			if below(a) != below(b) {
				seg[k] = crossing(a, b)
				k++
			}
		}
		if k == 2 {
			segs = append(segs, seg)
		}
	}
	return segs
}
