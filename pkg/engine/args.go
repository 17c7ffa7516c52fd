package engine

import (
	"fmt"
	"math"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/osteo/pkg/implicit"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a point or direction.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpFunction wraps an implicit function built by sphere, plane and the
// combinators.
type sexpFunction struct {
	fn   implicit.Function
	desc string
}

func (f *sexpFunction) SexpString(ps *zygo.PrintState) string {
	return "(" + f.desc + ")"
}
func (f *sexpFunction) Type() *zygo.RegisteredType { return nil }

// sexpItemRef names a scene item so later builtins can consume it.
type sexpItemRef struct {
	name string
}

func (r *sexpItemRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(item %q)", r.name)
}
func (r *sexpItemRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	op         string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword and positional arguments. A keyword followed
// by another keyword or by nothing is a flag set to true.
func parseArgs(op string, args []zygo.Sexp) kwArgs {
	pa := kwArgs{op: op, kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		if i+1 < len(args) && !isFlagFollower(args[i+1]) {
			pa.kw[name] = args[i+1]
			i++
		} else {
			pa.kw[name] = &zygo.SexpBool{Val: true}
		}
	}
	return pa
}

// isFlagFollower reports whether s begins the next keyword, which makes the
// keyword before it a bare flag.
func isFlagFollower(s zygo.Sexp) bool {
	_, ok := isKW(s)
	return ok
}

func (pa kwArgs) errorf(format string, args ...any) error {
	return fmt.Errorf(pa.op+": "+format, args...)
}

// need returns positional argument i or an error naming what was expected.
func (pa kwArgs) need(i int, what string) (zygo.Sexp, error) {
	if i >= len(pa.positional) {
		return nil, pa.errorf("missing %s", what)
	}
	return pa.positional[i], nil
}

func (pa kwArgs) float(key string, def float64) (float64, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, pa.errorf("%s: %w", key, err)
	}
	return f, nil
}

func (pa kwArgs) integer(key string, def int) (int, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, pa.errorf("%s: %w", key, err)
	}
	return n, nil
}

func (pa kwArgs) str(key, def string) (string, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	s, err := toString(v)
	if err != nil {
		return "", pa.errorf("%s: %w", key, err)
	}
	return s, nil
}

func (pa kwArgs) boolean(key string, def bool) (bool, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, pa.errorf("%s: %w", key, err)
	}
	return b, nil
}

func (pa kwArgs) vec(key string, def v3.Vec) (v3.Vec, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return v3.Vec{}, pa.errorf("%s: %w", key, err)
	}
	return vec, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	return intOf(f)
}

func intOf(f float64) (int, error) {
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("expected integer, got %g", f)
	}
	return int(f), nil
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok && !strings.HasPrefix(str.S, kwPrefix) {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toFunction(s zygo.Sexp) (*sexpFunction, error) {
	if f, ok := s.(*sexpFunction); ok {
		return f, nil
	}
	return nil, fmt.Errorf("expected implicit function, got %T (%s)", s, s.SexpString(nil))
}

// toItemName accepts an item reference or a plain item name.
func toItemName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpItemRef:
		return v.name, nil
	case *zygo.SexpStr:
		if !strings.HasPrefix(v.S, kwPrefix) {
			return v.S, nil
		}
	}
	return "", fmt.Errorf("expected scene item, got %T (%s)", s, s.SexpString(nil))
}
