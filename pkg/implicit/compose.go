package implicit

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/volume"
)

// Union is inside wherever any member is inside. An empty union is
// outside everywhere.
type Union []Function

func (u Union) Evaluate(p v3.Vec) float64 {
	d := math.Inf(1)
	for _, f := range u {
		d = math.Min(d, f.Evaluate(p))
	}
	return d
}

// Intersection is inside wherever every member is inside. An empty
// intersection is inside everywhere.
type Intersection []Function

func (in Intersection) Evaluate(p v3.Vec) float64 {
	d := math.Inf(-1)
	for _, f := range in {
		d = math.Max(d, f.Evaluate(p))
	}
	return d
}

// Difference is A with B carved out.
type Difference struct {
	A, B Function
}

func (d Difference) Evaluate(p v3.Vec) float64 {
	return math.Max(d.A.Evaluate(p), -d.B.Evaluate(p))
}

// Complement swaps inside and outside.
type Complement struct {
	F Function
}

func (c Complement) Evaluate(p v3.Vec) float64 {
	return -c.F.Evaluate(p)
}

// Isovalue classifies space by a volume's density: points whose
// trilinearly sampled density is at or above Level are inside.
type Isovalue struct {
	Grid  *volume.Grid
	Level float64
}

func (iv Isovalue) Evaluate(p v3.Vec) float64 {
	return iv.Level - iv.Grid.Sample(p)
}
