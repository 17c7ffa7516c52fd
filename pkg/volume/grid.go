// Package volume holds the regular 3-D scalar grid the pipeline contours,
// together with a small binary file format and helpers to synthesize
// phantom volumes from sdfx solids.
package volume

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidGrid is wrapped by structural grid violations.
var ErrInvalidGrid = errors.New("invalid volume grid")

// Grid is a regular scalar field. Sample (i, j, k) lives at
// Origin + (i*Spacing.X, j*Spacing.Y, k*Spacing.Z) and is stored at
// Data[i + nx*(j + ny*k)].
type Grid struct {
	Dims    [3]int
	Spacing v3.Vec
	Origin  v3.Vec
	Data    []float64
}

// New validates and returns a grid. The data slice is retained, not copied.
func New(dims [3]int, spacing, origin v3.Vec, data []float64) (*Grid, error) {
	if err := checkDims(dims); err != nil {
		return nil, err
	}
	if spacing.X <= 0 || spacing.Y <= 0 || spacing.Z <= 0 {
		return nil, fmt.Errorf("%w: spacing %v must be positive", ErrInvalidGrid, spacing)
	}
	if n := dims[0] * dims[1] * dims[2]; n != len(data) {
		return nil, fmt.Errorf("%w: dims %v need %d samples, got %d", ErrInvalidGrid, dims, n, len(data))
	}
	return &Grid{Dims: dims, Spacing: spacing, Origin: origin, Data: data}, nil
}

func checkDims(dims [3]int) error {
	for a, d := range dims {
		if d < 0 {
			return fmt.Errorf("%w: dimension %d is %d", ErrInvalidGrid, a, d)
		}
	}
	return nil
}

// Len returns the number of samples.
func (g *Grid) Len() int {
	return len(g.Data)
}

// IsEmpty reports whether the grid holds no complete cell.
func (g *Grid) IsEmpty() bool {
	return g == nil || g.Dims[0] < 2 || g.Dims[1] < 2 || g.Dims[2] < 2
}

// Index returns the flat offset of sample (i, j, k).
func (g *Grid) Index(i, j, k int) int {
	return i + g.Dims[0]*(j+g.Dims[1]*k)
}

// At returns sample (i, j, k).
func (g *Grid) At(i, j, k int) float64 {
	return g.Data[g.Index(i, j, k)]
}

// Position returns the world position of sample (i, j, k).
func (g *Grid) Position(i, j, k int) v3.Vec {
	return v3.Vec{
		X: g.Origin.X + float64(i)*g.Spacing.X,
		Y: g.Origin.Y + float64(j)*g.Spacing.Y,
		Z: g.Origin.Z + float64(k)*g.Spacing.Z,
	}
}

// Bounds returns the world-space box spanned by the samples.
func (g *Grid) Bounds() sdf.Box3 {
	if g.Len() == 0 {
		return sdf.Box3{Min: g.Origin, Max: g.Origin}
	}
	return sdf.Box3{Min: g.Origin, Max: g.Position(g.Dims[0]-1, g.Dims[1]-1, g.Dims[2]-1)}
}

// Range returns the minimum and maximum sample. ok is false for an empty grid.
func (g *Grid) Range() (lo, hi float64, ok bool) {
	if g.Len() == 0 {
		return 0, 0, false
	}
	return floats.Min(g.Data), floats.Max(g.Data), true
}

// Gradient returns the density gradient at sample (i, j, k) by central
// differences, one-sided on the grid boundary.
func (g *Grid) Gradient(i, j, k int) v3.Vec {
	return v3.Vec{
		X: g.diff(i, j, k, 0),
		Y: g.diff(i, j, k, 1),
		Z: g.diff(i, j, k, 2),
	}
}

func (g *Grid) diff(i, j, k, axis int) float64 {
	idx := [3]int{i, j, k}
	n := g.Dims[axis]
	if n < 2 {
		return 0
	}
	lo, hi := idx, idx
	if idx[axis] > 0 {
		lo[axis]--
	}
	if idx[axis] < n-1 {
		hi[axis]++
	}
	h := [3]float64{g.Spacing.X, g.Spacing.Y, g.Spacing.Z}[axis]
	steps := float64(hi[axis] - lo[axis])
	return (g.At(hi[0], hi[1], hi[2]) - g.At(lo[0], lo[1], lo[2])) / (steps * h)
}

// Sample trilinearly interpolates the grid at world position p. Points
// outside the grid clamp to the nearest boundary sample.
func (g *Grid) Sample(p v3.Vec) float64 {
	if g.Len() == 0 {
		return 0
	}
	u := [3]float64{
		(p.X - g.Origin.X) / g.Spacing.X,
		(p.Y - g.Origin.Y) / g.Spacing.Y,
		(p.Z - g.Origin.Z) / g.Spacing.Z,
	}
	var i0, i1 [3]int
	var f [3]float64
	for a := 0; a < 3; a++ {
		maxIdx := float64(g.Dims[a] - 1)
		c := math.Max(0, math.Min(u[a], maxIdx))
		fl := math.Floor(c)
		i0[a] = int(fl)
		i1[a] = i0[a]
		if i0[a] < g.Dims[a]-1 {
			i1[a] = i0[a] + 1
		}
		f[a] = c - fl
	}
	lerp := func(a, b, t float64) float64 { return a + t*(b-a) }
	c00 := lerp(g.At(i0[0], i0[1], i0[2]), g.At(i1[0], i0[1], i0[2]), f[0])
	c10 := lerp(g.At(i0[0], i1[1], i0[2]), g.At(i1[0], i1[1], i0[2]), f[0])
	c01 := lerp(g.At(i0[0], i0[1], i1[2]), g.At(i1[0], i0[1], i1[2]), f[0])
	c11 := lerp(g.At(i0[0], i1[1], i1[2]), g.At(i1[0], i1[1], i1[2]), f[0])
	return lerp(lerp(c00, c10, f[1]), lerp(c01, c11, f[1]), f[2])
}

// Stats summarizes the sample distribution.
type Stats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Stats computes summary statistics over all samples.
func (g *Grid) Stats() Stats {
	if g.Len() == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(g.Data, nil)
	return Stats{
		Count:  g.Len(),
		Min:    floats.Min(g.Data),
		Max:    floats.Max(g.Data),
		Mean:   mean,
		StdDev: std,
	}
}

// FromSDF samples a solid onto a dims-sized lattice covering bounds: points
// inside the solid (Evaluate <= 0) get inside, the rest outside. This is how
// synthetic scans such as a spherical density blob are produced.
func FromSDF(s sdf.SDF3, dims [3]int, bounds sdf.Box3, inside, outside float64) (*Grid, error) {
	for a, d := range dims {
		if d < 2 {
			return nil, fmt.Errorf("%w: dimension %d is %d, need at least 2", ErrInvalidGrid, a, d)
		}
	}
	size := bounds.Max.Sub(bounds.Min)
	spacing := v3.Vec{
		X: size.X / float64(dims[0]-1),
		Y: size.Y / float64(dims[1]-1),
		Z: size.Z / float64(dims[2]-1),
	}
	data := make([]float64, dims[0]*dims[1]*dims[2])
	g, err := New(dims, spacing, bounds.Min, data)
	if err != nil {
		return nil, err
	}
	for k := 0; k < dims[2]; k++ {
		for j := 0; j < dims[1]; j++ {
			for i := 0; i < dims[0]; i++ {
				v := outside
				if s.Evaluate(g.Position(i, j, k)) <= 0 {
					v = inside
				}
				data[g.Index(i, j, k)] = v
			}
		}
	}
	return g, nil
}

// FromFunc fills a lattice with an arbitrary density function.
func FromFunc(dims [3]int, spacing, origin v3.Vec, density func(p v3.Vec) float64) (*Grid, error) {
	if err := checkDims(dims); err != nil {
		return nil, err
	}
	data := make([]float64, dims[0]*dims[1]*dims[2])
	g, err := New(dims, spacing, origin, data)
	if err != nil {
		return nil, err
	}
	for k := 0; k < dims[2]; k++ {
		for j := 0; j < dims[1]; j++ {
			for i := 0; i < dims[0]; i++ {
				data[g.Index(i, j, k)] = density(g.Position(i, j, k))
			}
		}
	}
	return g, nil
}
