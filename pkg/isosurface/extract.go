// Package isosurface contours a volume grid into a triangle mesh with
// marching cubes, either at a single density threshold or around a
// density band.
package isosurface

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/kernel"
	"github.com/chazu/osteo/pkg/volume"
)

// ErrInvalidThreshold is returned for NaN thresholds and empty bands.
var ErrInvalidThreshold = errors.New("invalid threshold")

// Extract returns the surface where the interpolated density equals
// threshold. Samples equal to the threshold count as inside. An empty grid
// or a threshold outside the density range gives a mesh with no triangles.
func Extract(g *volume.Grid, threshold float64) (*kernel.Mesh, error) {
	if math.IsNaN(threshold) {
		return nil, fmt.Errorf("isosurface: %w: NaN", ErrInvalidThreshold)
	}
	return extract(g, threshold, math.Inf(1), fmt.Sprintf("iso-%g", threshold))
}

// ExtractBand returns the boundary of the region whose density lies in
// [low, high). Crossings against low face down the density gradient,
// crossings against high face up it, so both shells point away from the
// band material.
func ExtractBand(g *volume.Grid, low, high float64) (*kernel.Mesh, error) {
	if math.IsNaN(low) || math.IsNaN(high) {
		return nil, fmt.Errorf("isosurface: %w: NaN", ErrInvalidThreshold)
	}
	if high <= low {
		return nil, fmt.Errorf("isosurface: %w: band [%g, %g) is empty", ErrInvalidThreshold, low, high)
	}
	return extract(g, low, high, fmt.Sprintf("band-%g-%g", low, high))
}

type extractor struct {
	g         *volume.Grid
	low, high float64
	mesh      *kernel.Mesh
	verts     map[int]int
	outward   []v3.Vec
}

func extract(g *volume.Grid, low, high float64, name string) (*kernel.Mesh, error) {
	mesh := kernel.NewMesh(name)
	if g.IsEmpty() {
		return mesh, nil
	}
	if lo, hi, ok := g.Range(); !ok || low > hi || high <= lo {
		return mesh, nil
	}
	x := &extractor{
		g:     g,
		low:   low,
		high:  high,
		mesh:  mesh,
		verts: make(map[int]int),
	}
	nx, ny, nz := g.Dims[0], g.Dims[1], g.Dims[2]
	for k := 0; k < nz-1; k++ {
		for j := 0; j < ny-1; j++ {
			for i := 0; i < nx-1; i++ {
				x.cell(i, j, k)
			}
		}
	}
	return mesh, nil
}

func (x *extractor) inside(v float64) bool {
	return v >= x.low && v < x.high
}

func (x *extractor) cell(i, j, k int) {
	var mask uint8
	for c, off := range cornerOffsets {
		if x.inside(x.g.At(i+off[0], j+off[1], k+off[2])) {
			mask |= 1 << c
		}
	}
	for _, l := range cases[mask] {
		idx := make([]int, len(l.edges))
		var outward v3.Vec
		for n, e := range l.edges {
			idx[n] = x.crossing(i, j, k, e)
			outward = outward.Add(x.outward[idx[n]])
		}
		x.emit(idx, l.apex, outward)
	}
}

// crossing returns the vertex on cell edge e, creating it on first use.
// Vertices are keyed by grid edge so neighbouring cells share them.
func (x *extractor) crossing(i, j, k, e int) int {
	oa, ob := cornerOffsets[cellEdges[e][0]], cornerOffsets[cellEdges[e][1]]
	if oa[0]+oa[1]+oa[2] > ob[0]+ob[1]+ob[2] {
		oa, ob = ob, oa
	}
	axis := 0
	for oa[axis] == ob[axis] {
		axis++
	}
	a := [3]int{i + oa[0], j + oa[1], k + oa[2]}
	b := [3]int{i + ob[0], j + ob[1], k + ob[2]}
	key := x.g.Index(a[0], a[1], a[2])*3 + axis
	if v, ok := x.verts[key]; ok {
		return v
	}

	va, vb := x.g.At(a[0], a[1], a[2]), x.g.At(b[0], b[1], b[2])
	outside := vb
	if !x.inside(va) {
		outside = va
	}
	level := x.low
	if outside >= x.high {
		level = x.high
	}
	t := (level - va) / (vb - va)
	t = math.Max(0, math.Min(1, t))

	pa, pb := x.g.Position(a[0], a[1], a[2]), x.g.Position(b[0], b[1], b[2])
	ga, gb := x.g.Gradient(a[0], a[1], a[2]), x.g.Gradient(b[0], b[1], b[2])
	p := pa.Add(pb.Sub(pa).MulScalar(t))
	grad := ga.Add(gb.Sub(ga).MulScalar(t))
	if level == x.low {
		grad = grad.MulScalar(-1)
	}

	v := len(x.mesh.Vertices)
	x.mesh.Vertices = append(x.mesh.Vertices, p)
	x.outward = append(x.outward, grad)
	x.verts[key] = v
	return v
}

// emit triangulates one loop, reversing it first if its winding disagrees
// with the summed outward gradient of its crossings.
func (x *extractor) emit(idx []int, apex int, outward v3.Vec) {
	n := len(idx)
	verts := x.mesh.Vertices
	var normal v3.Vec
	for a := 0; a < n; a++ {
		p, q := verts[idx[a]], verts[idx[(a+1)%n]]
		normal.X += (p.Y - q.Y) * (p.Z + q.Z)
		normal.Y += (p.Z - q.Z) * (p.X + q.X)
		normal.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	if normal.Dot(outward) < 0 {
		for a, b := 0, n-1; a < b; a, b = a+1, b-1 {
			idx[a], idx[b] = idx[b], idx[a]
		}
		if apex >= 0 {
			apex = n - 1 - apex
		}
	}

	if apex < 0 {
		var c v3.Vec
		for _, v := range idx {
			c = c.Add(verts[v])
		}
		center := len(verts)
		x.mesh.Vertices = append(x.mesh.Vertices, c.DivScalar(float64(n)))
		x.outward = append(x.outward, outward)
		for a := 0; a < n; a++ {
			x.mesh.Triangles = append(x.mesh.Triangles, [3]int{center, idx[a], idx[(a+1)%n]})
		}
		return
	}
	for s := 1; s < n-1; s++ {
		x.mesh.Triangles = append(x.mesh.Triangles,
			[3]int{idx[apex], idx[(apex+s)%n], idx[(apex+s+1)%n]})
	}
}
