// Package implicit provides scalar functions of position that classify
// space as inside (negative) or outside (positive) a shape. They drive the
// clipper and can be previewed as meshes through sdfx.
package implicit

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInvalidFunction is returned when a function cannot be constructed
// from its parameters.
var ErrInvalidFunction = errors.New("invalid implicit function")

// Function evaluates a continuous scalar field, negative inside.
// Every sdf.SDF3 satisfies it.
type Function interface {
	Evaluate(p v3.Vec) float64
}

// Differentiable is implemented by functions with an analytic gradient.
type Differentiable interface {
	Function
	Gradient(p v3.Vec) v3.Vec
}

// Gradient returns the gradient of f at p, analytically when f supports it
// and by central differences otherwise.
func Gradient(f Function, p v3.Vec) v3.Vec {
	if d, ok := f.(Differentiable); ok {
		return d.Gradient(p)
	}
	h := 1e-5 * math.Max(1, p.Length())
	dx := v3.Vec{X: h}
	dy := v3.Vec{Y: h}
	dz := v3.Vec{Z: h}
	return v3.Vec{
		X: f.Evaluate(p.Add(dx)) - f.Evaluate(p.Sub(dx)),
		Y: f.Evaluate(p.Add(dy)) - f.Evaluate(p.Sub(dy)),
		Z: f.Evaluate(p.Add(dz)) - f.Evaluate(p.Sub(dz)),
	}.DivScalar(2 * h)
}

// Sphere is the signed distance to a sphere surface.
type Sphere struct {
	Center v3.Vec
	Radius float64
}

// NewSphere returns a sphere, rejecting negative or non-finite radii.
func NewSphere(center v3.Vec, radius float64) (Sphere, error) {
	if !(radius >= 0) || math.IsInf(radius, 0) {
		return Sphere{}, fmt.Errorf("%w: sphere radius %g", ErrInvalidFunction, radius)
	}
	return Sphere{Center: center, Radius: radius}, nil
}

// Evaluate returns |p - center| - radius.
func (s Sphere) Evaluate(p v3.Vec) float64 {
	return p.Sub(s.Center).Length() - s.Radius
}

// Gradient returns the unit radial direction, zero at the centre.
func (s Sphere) Gradient(p v3.Vec) v3.Vec {
	d := p.Sub(s.Center)
	l := d.Length()
	if l == 0 {
		return v3.Vec{}
	}
	return d.DivScalar(l)
}

// Plane is the signed distance to a plane; the normal side is outside.
type Plane struct {
	Origin v3.Vec
	Normal v3.Vec // unit length
}

// NewPlane returns a plane through origin with the given normal, which is
// normalized. A zero normal is an error.
func NewPlane(origin, normal v3.Vec) (Plane, error) {
	l := normal.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Plane{}, fmt.Errorf("%w: plane normal %v", ErrInvalidFunction, normal)
	}
	return Plane{Origin: origin, Normal: normal.DivScalar(l)}, nil
}

// Evaluate returns the signed distance of p along the normal.
func (pl Plane) Evaluate(p v3.Vec) float64 {
	return p.Sub(pl.Origin).Dot(pl.Normal)
}

// Gradient returns the normal.
func (pl Plane) Gradient(v3.Vec) v3.Vec {
	return pl.Normal
}

// Transformed places an inner function in the world with an affine
// transform: the world point is mapped back through the inverse before
// evaluating the inner function. Non-rigid transforms scale the values, so
// the result is a classifier rather than a true distance.
type Transformed struct {
	Inner Function
	m     sdf.M44
	inv   sdf.M44
}

// NewTransformed returns inner moved by m. Singular matrices are rejected.
func NewTransformed(inner Function, m sdf.M44) (*Transformed, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: nil inner function", ErrInvalidFunction)
	}
	inv := m.Inverse()
	probe := inv.MulPosition(v3.Vec{X: 1, Y: 1, Z: 1})
	for _, c := range []float64{probe.X, probe.Y, probe.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: singular transform", ErrInvalidFunction)
		}
	}
	return &Transformed{Inner: inner, m: m, inv: inv}, nil
}

// Matrix returns the forward transform.
func (t *Transformed) Matrix() sdf.M44 {
	return t.m
}

// Evaluate evaluates the inner function at the inverse-mapped point.
func (t *Transformed) Evaluate(p v3.Vec) float64 {
	return t.Inner.Evaluate(t.inv.MulPosition(p))
}

// Translate moves f by d.
func Translate(f Function, d v3.Vec) (*Transformed, error) {
	return NewTransformed(f, sdf.Translate3d(d))
}

// Scale scales f about the origin.
func Scale(f Function, s v3.Vec) (*Transformed, error) {
	return NewTransformed(f, sdf.Scale3d(s))
}

// Rotate rotates f by Euler angles in degrees, applied X then Y then Z.
func Rotate(f Function, degrees v3.Vec) (*Transformed, error) {
	toRad := math.Pi / 180
	m := sdf.RotateZ(degrees.Z * toRad).Mul(sdf.RotateY(degrees.Y * toRad)).Mul(sdf.RotateX(degrees.X * toRad))
	return NewTransformed(f, m)
}
