package kernel

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ScalarField is a set of sample points with one value each. Key is the
// provenance key the field was computed (or cached) under. Dims is the
// lattice shape when the points form a regular lattice, zero otherwise.
type ScalarField struct {
	Points []v3.Vec
	Values []float64
	Signed bool
	Key    string
	Dims   [3]int
}

// Len returns the number of samples.
func (f *ScalarField) Len() int {
	return len(f.Values)
}

// Validate checks that points and values line up and that a lattice shape,
// if present, matches the point count.
func (f *ScalarField) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil field", ErrInvalidField)
	}
	if len(f.Points) != len(f.Values) {
		return fmt.Errorf("%w: %d points but %d values", ErrInvalidField, len(f.Points), len(f.Values))
	}
	if f.IsLattice() {
		if n := f.Dims[0] * f.Dims[1] * f.Dims[2]; n != len(f.Points) {
			return fmt.Errorf("%w: lattice %v holds %d points, field has %d",
				ErrInvalidField, f.Dims, n, len(f.Points))
		}
	}
	return nil
}

// IsLattice reports whether the field was sampled on a regular lattice.
func (f *ScalarField) IsLattice() bool {
	return f.Dims != [3]int{}
}

// Range returns the minimum and maximum finite value.
func (f *ScalarField) Range() (lo, hi float64, ok bool) {
	return valueRange(f.Values)
}

// At returns the lattice value at (i, j, k), x fastest.
func (f *ScalarField) At(i, j, k int) float64 {
	return f.Values[i+f.Dims[0]*(j+f.Dims[1]*k)]
}
