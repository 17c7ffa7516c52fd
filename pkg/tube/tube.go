// Package tube sweeps a circular cross-section along polylines so that
// section curves can be displayed as solid rings.
package tube

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/kernel"
)

// ErrInvalidParameters is returned for unusable radius or side counts.
var ErrInvalidParameters = errors.New("invalid tube parameters")

const epsilon = 1e-12

// Build sweeps a regular sides-gon of the given radius along pl.
//
// Each ring lies in the plane perpendicular to the local tangent. The ring
// orientation is parallel-transported from point to point so the tube does
// not twist; on a closed polyline the twist left over after a full loop is
// spread evenly over the rings so the last ring joins the first cleanly.
//
// Vertices are laid out ring by ring, sides per ring. Closed polylines
// never receive caps and give exactly len(Points)*sides vertices; with only
// two points there is no closing segment to sweep. Open polylines get two
// fan caps when capped is set. Fewer than two points give an empty mesh.
func Build(pl kernel.Polyline, radius float64, sides int, capped bool) (*kernel.Mesh, error) {
	if sides < 3 {
		return nil, fmt.Errorf("tube: %w: %d sides", ErrInvalidParameters, sides)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("tube: %w: radius %g", ErrInvalidParameters, radius)
	}
	mesh := kernel.NewMesh("tube")
	pts := pl.Points
	n := len(pts)
	if n < 2 {
		return mesh, nil
	}
	closed := pl.Closed && n >= 3

	tangents := tangents(pts, closed)
	normals := transport(tangents, closed)

	for i, p := range pts {
		t, nrm := tangents[i], normals[i]
		b := t.Cross(nrm)
		for k := 0; k < sides; k++ {
			theta := 2 * math.Pi * float64(k) / float64(sides)
			off := nrm.MulScalar(math.Cos(theta)).Add(b.MulScalar(math.Sin(theta)))
			mesh.Vertices = append(mesh.Vertices, p.Add(off.MulScalar(radius)))
		}
	}

	segments := n - 1
	if closed {
		segments = n
	}
	for i := 0; i < segments; i++ {
		a, b := i*sides, ((i+1)%n)*sides
		for k := 0; k < sides; k++ {
			k1 := (k + 1) % sides
			mesh.Triangles = append(mesh.Triangles,
				[3]int{a + k, a + k1, b + k1},
				[3]int{a + k, b + k1, b + k},
			)
		}
	}

	if capped && !pl.Closed {
		c0 := len(mesh.Vertices)
		c1 := c0 + 1
		mesh.Vertices = append(mesh.Vertices, pts[0], pts[n-1])
		last := (n - 1) * sides
		for k := 0; k < sides; k++ {
			k1 := (k + 1) % sides
			mesh.Triangles = append(mesh.Triangles,
				[3]int{c0, k1, k},
				[3]int{c1, last + k, last + k1},
			)
		}
	}
	return mesh, nil
}

// BuildAll tubes every polyline and merges the results into one mesh.
func BuildAll(pls []kernel.Polyline, radius float64, sides int, capped bool) (*kernel.Mesh, error) {
	parts := make([]*kernel.Mesh, 0, len(pls))
	for i, pl := range pls {
		m, err := Build(pl, radius, sides, capped)
		if err != nil {
			return nil, fmt.Errorf("polyline %d: %w", i, err)
		}
		parts = append(parts, m)
	}
	return kernel.Merge("tubes", parts...), nil
}

// tangents estimates unit tangents by finite differences: one-sided at
// open ends, the bisector of the adjacent segment directions elsewhere.
// Zero-length steps inherit the neighbouring tangent.
func tangents(pts []v3.Vec, closed bool) []v3.Vec {
	n := len(pts)
	dir := func(a, b v3.Vec) v3.Vec { return unit(b.Sub(a)) }
	out := make([]v3.Vec, n)
	for i := range pts {
		var prev, next v3.Vec
		switch {
		case closed:
			prev = dir(pts[(i+n-1)%n], pts[i])
			next = dir(pts[i], pts[(i+1)%n])
		case i == 0:
			next = dir(pts[0], pts[1])
		case i == n-1:
			prev = dir(pts[n-2], pts[n-1])
		default:
			prev = dir(pts[i-1], pts[i])
			next = dir(pts[i], pts[i+1])
		}
		out[i] = unit(prev.Add(next))
	}
	// Fill gaps from neighbours, forward then backward.
	for i := 1; i < n; i++ {
		if out[i] == (v3.Vec{}) {
			out[i] = out[i-1]
		}
	}
	for i := n - 2; i >= 0; i-- {
		if out[i] == (v3.Vec{}) {
			out[i] = out[i+1]
		}
	}
	if out[0] == (v3.Vec{}) {
		// All points coincide.
		for i := range out {
			out[i] = v3.Vec{Z: 1}
		}
	}
	return out
}

// transport carries a reference normal along the tangents with minimal
// rotation. For closed loops the residual angle is distributed.
func transport(tangents []v3.Vec, closed bool) []v3.Vec {
	n := len(tangents)
	normals := make([]v3.Vec, n)
	normals[0] = perpendicular(tangents[0])
	for i := 1; i < n; i++ {
		normals[i] = carry(normals[i-1], tangents[i-1], tangents[i])
	}
	if !closed {
		return normals
	}
	back := carry(normals[n-1], tangents[n-1], tangents[0])
	t0 := tangents[0]
	phi := math.Atan2(t0.Dot(back.Cross(normals[0])), back.Dot(normals[0]))
	for i := 1; i < n; i++ {
		normals[i] = rotate(normals[i], tangents[i], phi*float64(i)/float64(n))
	}
	return normals
}

// carry rotates v by the rotation taking tangent a onto tangent b, then
// re-orthogonalizes it against b.
func carry(v, a, b v3.Vec) v3.Vec {
	axis := a.Cross(b)
	s := axis.Length()
	out := v
	if s > epsilon {
		out = rotate(v, axis.DivScalar(s), math.Atan2(s, a.Dot(b)))
	}
	out = out.Sub(b.MulScalar(out.Dot(b)))
	if l := out.Length(); l > epsilon {
		return out.DivScalar(l)
	}
	return perpendicular(b)
}

// rotate turns v about the unit axis k by angle (Rodrigues).
func rotate(v, k v3.Vec, angle float64) v3.Vec {
	c, s := math.Cos(angle), math.Sin(angle)
	return v.MulScalar(c).Add(k.Cross(v).MulScalar(s)).Add(k.MulScalar(k.Dot(v) * (1 - c)))
}

// perpendicular returns a unit vector perpendicular to the unit vector t,
// built from the coordinate axis least aligned with it.
func perpendicular(t v3.Vec) v3.Vec {
	axis := v3.Vec{X: 1}
	if math.Abs(t.Y) < math.Abs(t.X) && math.Abs(t.Y) <= math.Abs(t.Z) {
		axis = v3.Vec{Y: 1}
	} else if math.Abs(t.Z) < math.Abs(t.X) {
		axis = v3.Vec{Z: 1}
	}
	return unit(axis.Sub(t.MulScalar(axis.Dot(t))))
}

func unit(v v3.Vec) v3.Vec {
	l := v.Length()
	if l < epsilon {
		return v3.Vec{}
	}
	return v.DivScalar(l)
}
