package distance

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chazu/osteo/pkg/kernel"
)

// Summary describes the finite values of a distance field.
type Summary struct {
	Count    int     `json:"count"`
	Infinite int     `json:"infinite"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Inside   float64 `json:"inside_fraction"` // share of negative values, signed fields only
}

// Summarize computes a Summary of f.
func Summarize(f *kernel.ScalarField) Summary {
	finite := make([]float64, 0, f.Len())
	var s Summary
	negative := 0
	for _, v := range f.Values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			s.Infinite++
			continue
		}
		if v < 0 {
			negative++
		}
		finite = append(finite, v)
	}
	s.Count = len(finite)
	if s.Count == 0 {
		return s
	}
	s.Min = floats.Min(finite)
	s.Max = floats.Max(finite)
	s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	if s.Count == 1 {
		s.StdDev = 0
	}
	if f.Signed {
		s.Inside = float64(negative) / float64(s.Count)
	}
	return s
}
