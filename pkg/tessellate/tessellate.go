// Package tessellate walks a scene and packs each visible item into flat
// render buffers: float32 positions and normals, uint32 indices, optional
// per-vertex scalars and the resolved material colours. One buffer is
// produced per item.
package tessellate

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/osteo/pkg/config"
	"github.com/chazu/osteo/pkg/kernel"
	"github.com/chazu/osteo/pkg/scene"
	"github.com/chazu/osteo/pkg/section"
)

// Primitive is how the indices of a buffer are to be read.
type Primitive int

const (
	Triangles Primitive = iota // index triples
	Lines                      // index pairs
	Points                     // one position per sample, no indices
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case Lines:
		return "lines"
	case Points:
		return "points"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}

// RGBA is a linear colour with alpha.
type RGBA [4]float32

// Buffer is one item ready for upload.
type Buffer struct {
	Name      string
	Kind      scene.ItemKind
	Primitive Primitive

	Positions []float32 // xyz per vertex
	Normals   []float32 // xyz per vertex, triangles only
	Indices   []uint32
	Scalars   []float32 // one per vertex when the item shows scalars

	ScalarMin float32
	ScalarMax float32

	Color         RGBA
	BackfaceColor RGBA
	HasBackface   bool
	CullBackfaces bool
	Diffuse       float32
	Specular      float32
	SpecularPower float32
}

// VertexCount returns the number of vertices in the buffer.
func (b *Buffer) VertexCount() int {
	return len(b.Positions) / 3
}

// Frame is everything the rendering collaborator needs for one scene.
type Frame struct {
	RunID      string
	Background RGBA
	Buffers    []*Buffer
}

// Tessellate produces one buffer per visible item. Colours are resolved
// against palette; an unknown name is an error. The tessellator is
// read-only and never mutates the scene.
func Tessellate(s *scene.Scene, palette config.Palette) (*Frame, error) {
	if s == nil {
		return nil, nil
	}
	bg, err := resolve(palette, s.Background, 1)
	if err != nil {
		return nil, fmt.Errorf("tessellate: background: %w", err)
	}
	f := &Frame{RunID: s.RunID, Background: bg}

	visible := lo.Filter(s.Items, func(it *scene.Item, _ int) bool { return !it.Style.Hidden })
	for _, it := range visible {
		b, err := buildItem(it, palette)
		if err != nil {
			return nil, fmt.Errorf("tessellate: item %q: %w", it.Name, err)
		}
		if b != nil {
			f.Buffers = append(f.Buffers, b)
		}
	}
	return f, nil
}

func buildItem(it *scene.Item, palette config.Palette) (*Buffer, error) {
	b := &Buffer{
		Name:          it.Name,
		Kind:          it.Kind,
		CullBackfaces: it.Style.CullBackfaces,
		Diffuse:       float32(it.Style.Diffuse),
		Specular:      float32(it.Style.Specular),
		SpecularPower: float32(it.Style.SpecularPower),
	}
	var err error
	if b.Color, err = resolve(palette, it.Style.Color, it.Style.Opacity); err != nil {
		return nil, err
	}
	if it.Style.BackfaceColor != "" {
		// Backfaces stay opaque whatever the front opacity.
		if b.BackfaceColor, err = resolve(palette, it.Style.BackfaceColor, 1); err != nil {
			return nil, err
		}
		b.HasBackface = true
	}

	switch {
	case it.Kind.HasMesh():
		if it.Mesh.IsEmpty() {
			return nil, nil
		}
		packMesh(b, it.Mesh, it.Style.ShowScalars)
	case it.Kind == scene.KindSection:
		packLines(b, lo.FlatMap(it.Slices, func(sl section.Slice, _ int) []kernel.Polyline { return sl.Polylines }))
	case it.Kind == scene.KindOutline:
		packLines(b, it.Polylines)
	case it.Kind == scene.KindField:
		if it.Field == nil {
			return nil, fmt.Errorf("field item without samples")
		}
		packPoints(b, it.Field)
	default:
		return nil, fmt.Errorf("unsupported item kind %s", it.Kind)
	}
	if b.VertexCount() == 0 {
		return nil, nil
	}
	return b, nil
}

// packMesh copies the mesh buffers with area-weighted vertex normals.
func packMesh(b *Buffer, m *kernel.Mesh, showScalars bool) {
	b.Primitive = Triangles
	b.Positions, b.Normals, b.Indices = m.Flatten()
	if showScalars && m.HasScalars() {
		b.Scalars, b.ScalarMin, b.ScalarMax = scalars(m.Scalars)
	}
}

// packLines emits each polyline as consecutive segments; closed polylines
// get a segment back to their first point.
func packLines(b *Buffer, pls []kernel.Polyline) {
	b.Primitive = Lines
	for _, pl := range pls {
		if len(pl.Points) < 2 {
			continue
		}
		base := uint32(b.VertexCount())
		b.Positions = append(b.Positions, flatten(pl.Points)...)
		n := uint32(len(pl.Points))
		for i := uint32(0); i+1 < n; i++ {
			b.Indices = append(b.Indices, base+i, base+i+1)
		}
		if pl.Closed && n > 2 {
			b.Indices = append(b.Indices, base+n-1, base)
		}
	}
}

// packPoints emits field samples as points coloured by value.
func packPoints(b *Buffer, f *kernel.ScalarField) {
	b.Primitive = Points
	b.Positions = flatten(f.Points)
	b.Scalars, b.ScalarMin, b.ScalarMax = scalars(f.Values)
}

func flatten(vs []v3.Vec) []float32 {
	out := make([]float32, 0, 3*len(vs))
	for _, v := range vs {
		out = append(out, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return out
}

// scalars converts values to float32 and returns their finite range.
// Infinite values (distance to an empty mesh) are clamped to that range.
func scalars(vals []float64) ([]float32, float32, float32) {
	finite := lo.Filter(vals, func(v float64, _ int) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) })
	lo64, hi64 := 0.0, 0.0
	if len(finite) > 0 {
		lo64, hi64 = lo.Min(finite), lo.Max(finite)
	}
	out := lo.Map(vals, func(v float64, _ int) float32 {
		switch {
		case math.IsInf(v, 1), math.IsNaN(v):
			return float32(hi64)
		case math.IsInf(v, -1):
			return float32(lo64)
		}
		return float32(v)
	})
	return out, float32(lo64), float32(hi64)
}

func resolve(p config.Palette, name string, alpha float64) (RGBA, error) {
	c, ok := p.Lookup(name)
	if !ok {
		return RGBA{}, fmt.Errorf("colour %q is not in the palette", name)
	}
	return RGBA{float32(c[0]), float32(c[1]), float32(c[2]), float32(alpha)}, nil
}
