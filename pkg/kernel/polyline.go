package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Polyline is an ordered curve. Closed is explicit rather than inferred
// from coincident endpoints; a closed polyline does not repeat its first
// point at the end.
type Polyline struct {
	Points []v3.Vec
	Closed bool
}

// Len returns the number of points.
func (p Polyline) Len() int {
	return len(p.Points)
}

// SegmentCount returns the number of segments, including the closing
// segment of a closed polyline.
func (p Polyline) SegmentCount() int {
	n := len(p.Points)
	if n < 2 {
		return 0
	}
	if p.Closed {
		return n
	}
	return n - 1
}

// Length returns the arc length.
func (p Polyline) Length() float64 {
	var sum float64
	n := len(p.Points)
	for i := 0; i < p.SegmentCount(); i++ {
		sum += p.Points[(i+1)%n].Sub(p.Points[i]).Length()
	}
	return sum
}

// Outline returns the 12 edges of a box as open two-point polylines, the
// wireframe the rendering collaborator draws around a volume.
func Outline(b sdf.Box3) []Polyline {
	lo, hi := b.Min, b.Max
	corner := func(i int) v3.Vec {
		c := lo
		if i&1 != 0 {
			c.X = hi.X
		}
		if i&2 != 0 {
			c.Y = hi.Y
		}
		if i&4 != 0 {
			c.Z = hi.Z
		}
		return c
	}
	var lines []Polyline
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				lines = append(lines, Polyline{Points: []v3.Vec{corner(i), corner(i | bit)}})
			}
		}
	}
	return lines
}
