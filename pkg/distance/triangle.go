package distance

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// closestOnTriangle returns the point of triangle abc nearest to p, by
// Voronoi region classification (Ericson, Real-Time Collision Detection
// 5.1.5). Degenerate triangles fall back to their edges.
func closestOnTriangle(p, a, b, c v3.Vec) v3.Vec {
	ab := b.Sub(a)
	ac := c.Sub(a)
	if ab.Cross(ac).Length() <= 1e-300 {
		return closestOnEdges(p, a, b, c)
	}

	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.MulScalar(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.MulScalar(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).MulScalar(w))
	}

	denom := 1 / (va + vb + vc)
	return a.Add(ab.MulScalar(vb * denom)).Add(ac.MulScalar(vc * denom))
}

func closestOnSegment(p, a, b v3.Vec) v3.Vec {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / l2
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return a.Add(ab.MulScalar(t))
}

func closestOnEdges(p, a, b, c v3.Vec) v3.Vec {
	best := closestOnSegment(p, a, b)
	bestD := best.Sub(p).Length()
	for _, q := range []v3.Vec{closestOnSegment(p, b, c), closestOnSegment(p, c, a)} {
		if d := q.Sub(p).Length(); d < bestD {
			best, bestD = q, d
		}
	}
	return best
}
