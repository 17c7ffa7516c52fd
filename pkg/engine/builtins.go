package engine

import (
	"fmt"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/osteo/pkg/clip"
	"github.com/chazu/osteo/pkg/config"
	"github.com/chazu/osteo/pkg/distance"
	"github.com/chazu/osteo/pkg/implicit"
	"github.com/chazu/osteo/pkg/isosurface"
	"github.com/chazu/osteo/pkg/kernel"
	"github.com/chazu/osteo/pkg/scene"
	"github.com/chazu/osteo/pkg/section"
	"github.com/chazu/osteo/pkg/tube"
	"github.com/chazu/osteo/pkg/volume"
)

// evaluation is the state one script run builds on.
type evaluation struct {
	scene     *scene.Scene
	vol       *volume.Grid
	cfg       *config.Config
	distances *distance.Engine
	logger    *zap.Logger
}

func (ev *evaluation) volume(op string) (*volume.Grid, error) {
	if ev.vol == nil {
		return nil, fmt.Errorf("%s: no volume is loaded", op)
	}
	return ev.vol, nil
}

// add appends item to the scene and returns a reference to it.
func (ev *evaluation) add(item *scene.Item) (zygo.Sexp, error) {
	if item.Mesh != nil {
		item.Mesh.Name = item.Name
	}
	if err := ev.scene.Add(item); err != nil {
		return zygo.SexpNull, err
	}
	ev.logger.Debug("scene item added",
		zap.String("item", item.Name),
		zap.Stringer("kind", item.Kind))
	return &sexpItemRef{name: item.Name}, nil
}

func (ev *evaluation) item(op string, s zygo.Sexp) (*scene.Item, error) {
	name, err := toItemName(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	it := ev.scene.Lookup(name)
	if it == nil {
		return nil, fmt.Errorf("%s: no item named %q", op, name)
	}
	return it, nil
}

func (ev *evaluation) meshItem(op string, s zygo.Sexp) (*scene.Item, error) {
	it, err := ev.item(op, s)
	if err != nil {
		return nil, err
	}
	if !it.Kind.HasMesh() {
		return nil, fmt.Errorf("%s: item %q is a %s, not a mesh", op, it.Name, it.Kind)
	}
	return it, nil
}

// polylines returns the curves an item carries: section polylines across
// all slices, or an outline's edges.
func polylines(it *scene.Item) []kernel.Polyline {
	if it.Kind == scene.KindSection {
		return lo.FlatMap(it.Slices, func(s section.Slice, _ int) []kernel.Polyline { return s.Polylines })
	}
	return it.Polylines
}

// name picks the :name keyword or a unique name derived from base.
func (ev *evaluation) name(pa kwArgs, base string) (string, error) {
	n, err := pa.str("name", "")
	if err != nil || n != "" {
		return n, err
	}
	return ev.scene.UniqueName(base), nil
}

// bounds resolves the region a lattice or preview covers: explicit :min and
// :max, or the bounding box of the :around item, or the volume bounds, in
// each of the last two cases grown by :padding.
func (ev *evaluation) bounds(pa kwArgs) (sdf.Box3, error) {
	if _, ok := pa.kw["min"]; ok {
		bmin, err := pa.vec("min", v3.Vec{})
		if err != nil {
			return sdf.Box3{}, err
		}
		bmax, err := pa.vec("max", bmin)
		if err != nil {
			return sdf.Box3{}, err
		}
		return sdf.Box3{Min: bmin, Max: bmax}, nil
	}
	pad, err := pa.float("padding", 0)
	if err != nil {
		return sdf.Box3{}, err
	}
	var bb sdf.Box3
	if v, ok := pa.kw["around"]; ok {
		it, err := ev.item(pa.op, v)
		if err != nil {
			return sdf.Box3{}, err
		}
		switch {
		case it.Mesh != nil && !it.Mesh.IsEmpty():
			bb = it.Mesh.BoundingBox()
		case len(polylines(it)) > 0:
			pts := lo.FlatMap(polylines(it), func(pl kernel.Polyline, _ int) []v3.Vec { return pl.Points })
			bb = sdf.Box3{Min: pts[0], Max: pts[0]}
			for _, p := range pts[1:] {
				bb = bb.Include(p)
			}
		default:
			return sdf.Box3{}, pa.errorf("item %q has no extent", it.Name)
		}
	} else {
		g, err := ev.volume(pa.op)
		if err != nil {
			return sdf.Box3{}, err
		}
		bb = g.Bounds()
	}
	return bb.Enlarge(v3.Vec{X: 2 * pad, Y: 2 * pad, Z: 2 * pad}), nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builtinFunc is the signature of every scene builtin.
type builtinFunc func(pa kwArgs) (zygo.Sexp, error)

// builtins returns the scene builtins bound to ev, keyed by name.
func (ev *evaluation) builtins() map[string]builtinFunc {
	return map[string]builtinFunc{
		"vec3":       ev.vec3,
		"surface":    ev.surface,
		"outline":    ev.outline,
		"sphere":     ev.sphere,
		"plane":      ev.plane,
		"isovalue":   ev.isovalue,
		"translate":  ev.transform(implicit.Translate),
		"scale":      ev.transform(implicit.Scale),
		"rotate":     ev.transform(implicit.Rotate),
		"union":      ev.combine("union", func(fs []implicit.Function) implicit.Function { return implicit.Union(fs) }),
		"intersect":  ev.combine("intersect", func(fs []implicit.Function) implicit.Function { return implicit.Intersection(fs) }),
		"difference": ev.difference,
		"complement": ev.complement,
		"clip":       ev.clip,
		"section":    ev.section,
		"tubes":      ev.tubes,
		"distance":   ev.distance,
		"lattice":    ev.lattice,
		"preview":    ev.preview,
		"style":      ev.style,
		"background": ev.background,
	}
}

// registerBuiltins installs the scene builtins into a zygomys environment.
// Source must go through preprocessSource first so that :keyword tokens
// arrive as recognizable strings.
func registerBuiltins(env *zygo.Zlisp, ev *evaluation) {
	for name, fn := range ev.builtins() {
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			return fn(parseArgs(name, args))
		})
	}
}

// -----------------------------------------------------------------------
// (vec3 1 2 3)
// -----------------------------------------------------------------------
func (ev *evaluation) vec3(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 3 {
		return zygo.SexpNull, pa.errorf("requires exactly 3 arguments, got %d", len(pa.positional))
	}
	var c [3]float64
	for i, s := range pa.positional {
		f, err := toFloat64(s)
		if err != nil {
			return zygo.SexpNull, pa.errorf("%c: %w", "xyz"[i], err)
		}
		c[i] = f
	}
	return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// -----------------------------------------------------------------------
// (surface "skin")
// (surface "iso" :threshold 50)
// (surface "band" :low 50 :high 72)
// -----------------------------------------------------------------------
func (ev *evaluation) surface(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "surface name")
	if err != nil {
		return zygo.SexpNull, err
	}
	name, err := toString(arg)
	if err != nil {
		return zygo.SexpNull, pa.errorf("name: %w", err)
	}
	g, err := ev.volume(pa.op)
	if err != nil {
		return zygo.SexpNull, err
	}

	band, configured := ev.cfg.Band(name)
	style := scene.DefaultStyle(ev.cfg.Render)
	if configured {
		style = scene.BandStyle(band, ev.cfg.Render)
	}

	var m *kernel.Mesh
	switch {
	case pa.kw["threshold"] != nil:
		t, err := pa.float("threshold", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		m, err = isosurface.Extract(g, t)
		if err != nil {
			return zygo.SexpNull, pa.errorf("%w", err)
		}
	case pa.kw["low"] != nil:
		low, err := pa.float("low", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		high, err := pa.float("high", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		if _, ok := pa.kw["high"]; !ok {
			m, err = isosurface.Extract(g, low)
		} else {
			m, err = isosurface.ExtractBand(g, low, high)
		}
		if err != nil {
			return zygo.SexpNull, pa.errorf("%w", err)
		}
	case configured && band.IsOpen():
		m, err = isosurface.Extract(g, band.Low)
		if err != nil {
			return zygo.SexpNull, pa.errorf("%w", err)
		}
	case configured:
		m, err = isosurface.ExtractBand(g, band.Low, *band.High)
		if err != nil {
			return zygo.SexpNull, pa.errorf("%w", err)
		}
	default:
		return zygo.SexpNull, pa.errorf("%q is not a configured surface; give :threshold or :low/:high", name)
	}

	itemName, err := ev.name(pa, name)
	if err != nil {
		return zygo.SexpNull, err
	}
	return ev.add(&scene.Item{Name: itemName, Kind: scene.KindSurface, Mesh: m, Style: style, Source: pa.op})
}

// -----------------------------------------------------------------------
// (outline)
// -----------------------------------------------------------------------
func (ev *evaluation) outline(pa kwArgs) (zygo.Sexp, error) {
	g, err := ev.volume(pa.op)
	if err != nil {
		return zygo.SexpNull, err
	}
	name, err := ev.name(pa, "outline")
	if err != nil {
		return zygo.SexpNull, err
	}
	return ev.add(&scene.Item{
		Name:      name,
		Kind:      scene.KindOutline,
		Polylines: kernel.Outline(g.Bounds()),
		Style:     scene.DefaultStyle(ev.cfg.Render),
		Source:    pa.op,
	})
}

// -----------------------------------------------------------------------
// (sphere (vec3 0 0 0) 40)
// -----------------------------------------------------------------------
func (ev *evaluation) sphere(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 2 {
		return zygo.SexpNull, pa.errorf("requires a centre and a radius")
	}
	c, err := toVec3(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, pa.errorf("centre: %w", err)
	}
	r, err := toFloat64(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, pa.errorf("radius: %w", err)
	}
	s, err := implicit.NewSphere(c, r)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	return &sexpFunction{fn: s, desc: fmt.Sprintf("sphere %g", r)}, nil
}

// -----------------------------------------------------------------------
// (plane (vec3 0 0 0) (vec3 1 0 0))
// -----------------------------------------------------------------------
func (ev *evaluation) plane(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 2 {
		return zygo.SexpNull, pa.errorf("requires an origin and a normal")
	}
	o, err := toVec3(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, pa.errorf("origin: %w", err)
	}
	n, err := toVec3(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, pa.errorf("normal: %w", err)
	}
	p, err := implicit.NewPlane(o, n)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	return &sexpFunction{fn: p, desc: "plane"}, nil
}

// -----------------------------------------------------------------------
// (isovalue 50)
// -----------------------------------------------------------------------
func (ev *evaluation) isovalue(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "density level")
	if err != nil {
		return zygo.SexpNull, err
	}
	level, err := toFloat64(arg)
	if err != nil {
		return zygo.SexpNull, pa.errorf("level: %w", err)
	}
	g, err := ev.volume(pa.op)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpFunction{fn: implicit.Isovalue{Grid: g, Level: level}, desc: fmt.Sprintf("isovalue %g", level)}, nil
}

// -----------------------------------------------------------------------
// (translate f (vec3 10 0 0)), (scale f (vec3 2 2 2)), (rotate f (vec3 0 0 90))
// -----------------------------------------------------------------------
func (ev *evaluation) transform(apply func(implicit.Function, v3.Vec) (*implicit.Transformed, error)) builtinFunc {
	return func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 2 {
			return zygo.SexpNull, pa.errorf("requires a function and a vec3")
		}
		f, err := toFunction(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, pa.errorf("%w", err)
		}
		v, err := toVec3(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, pa.errorf("%w", err)
		}
		t, err := apply(f.fn, v)
		if err != nil {
			return zygo.SexpNull, pa.errorf("%w", err)
		}
		return &sexpFunction{fn: t, desc: pa.op + " " + f.desc}, nil
	}
}

// -----------------------------------------------------------------------
// (union f g ...), (intersect f g ...)
// -----------------------------------------------------------------------
func (ev *evaluation) combine(desc string, build func([]implicit.Function) implicit.Function) builtinFunc {
	return func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) == 0 {
			return zygo.SexpNull, pa.errorf("requires at least one function")
		}
		fs := make([]implicit.Function, 0, len(pa.positional))
		descs := make([]string, 0, len(pa.positional))
		for i, s := range pa.positional {
			f, err := toFunction(s)
			if err != nil {
				return zygo.SexpNull, pa.errorf("argument %d: %w", i, err)
			}
			fs = append(fs, f.fn)
			descs = append(descs, f.desc)
		}
		return &sexpFunction{fn: build(fs), desc: desc + " " + strings.Join(descs, " ")}, nil
	}
}

// -----------------------------------------------------------------------
// (difference a b)
// -----------------------------------------------------------------------
func (ev *evaluation) difference(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 2 {
		return zygo.SexpNull, pa.errorf("requires two functions")
	}
	a, err := toFunction(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	b, err := toFunction(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	return &sexpFunction{fn: implicit.Difference{A: a.fn, B: b.fn}, desc: "difference"}, nil
}

// -----------------------------------------------------------------------
// (complement f)
// -----------------------------------------------------------------------
func (ev *evaluation) complement(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "function")
	if err != nil {
		return zygo.SexpNull, err
	}
	f, err := toFunction(arg)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	return &sexpFunction{fn: implicit.Complement{F: f.fn}, desc: "complement " + f.desc}, nil
}

// -----------------------------------------------------------------------
// (clip skin (plane ...) :value 0 :inside-out true :name "skin-cut" :show-clipped false)
// -----------------------------------------------------------------------
func (ev *evaluation) clip(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 2 {
		return zygo.SexpNull, pa.errorf("requires a mesh item and a function")
	}
	src, err := ev.meshItem(pa.op, pa.positional[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	f, err := toFunction(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	value, err := pa.float("value", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	insideOut, err := pa.boolean("inside-out", false)
	if err != nil {
		return zygo.SexpNull, err
	}
	showClipped, err := pa.boolean("show-clipped", false)
	if err != nil {
		return zygo.SexpNull, err
	}

	opts := []clip.Option{clip.WithValue(value)}
	if insideOut {
		opts = append(opts, clip.InsideOut())
	}
	retained, clipped, err := clip.Clip(src.Mesh, f.fn, opts...)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}

	name, err := ev.name(pa, src.Name+"-retained")
	if err != nil {
		return zygo.SexpNull, err
	}
	ref, err := ev.add(&scene.Item{Name: name, Kind: scene.KindClipped, Mesh: retained, Style: src.Style, Source: pa.op})
	if err != nil {
		return zygo.SexpNull, err
	}
	rest := src.Style
	rest.Hidden = !showClipped
	if _, err := ev.add(&scene.Item{
		Name:   ev.scene.UniqueName(name + "-clipped"),
		Kind:   scene.KindClipped,
		Mesh:   clipped,
		Style:  rest,
		Source: pa.op,
	}); err != nil {
		return zygo.SexpNull, err
	}
	return ref, nil
}

// -----------------------------------------------------------------------
// (section bone :normal (vec3 0 0 1) :origin (vec3 0 0 0) :spacing 10 :low -40 :high 40)
// -----------------------------------------------------------------------
func (ev *evaluation) section(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "mesh item")
	if err != nil {
		return zygo.SexpNull, err
	}
	src, err := ev.meshItem(pa.op, arg)
	if err != nil {
		return zygo.SexpNull, err
	}
	normal, err := pa.vec("normal", v3.Vec{Z: 1})
	if err != nil {
		return zygo.SexpNull, err
	}
	origin, err := pa.vec("origin", v3.Vec{})
	if err != nil {
		return zygo.SexpNull, err
	}
	spacing, err := pa.float("spacing", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	low, err := pa.float("low", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	high, err := pa.float("high", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	slices, err := section.Section(src.Mesh, origin, normal, spacing, low, high,
		section.WithTolerance(ev.cfg.Section.Tolerance))
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	name, err := ev.name(pa, src.Name+"-sections")
	if err != nil {
		return zygo.SexpNull, err
	}
	style := scene.DefaultStyle(ev.cfg.Render)
	style.Color = src.Style.Color
	return ev.add(&scene.Item{Name: name, Kind: scene.KindSection, Slices: slices, Style: style, Source: pa.op})
}

// -----------------------------------------------------------------------
// (tubes rings :radius 0.5 :sides 8 :capped false)
// -----------------------------------------------------------------------
func (ev *evaluation) tubes(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "section or outline item")
	if err != nil {
		return zygo.SexpNull, err
	}
	src, err := ev.item(pa.op, arg)
	if err != nil {
		return zygo.SexpNull, err
	}
	if src.Kind != scene.KindSection && src.Kind != scene.KindOutline {
		return zygo.SexpNull, pa.errorf("item %q is a %s, not a section or outline", src.Name, src.Kind)
	}
	radius, err := pa.float("radius", ev.cfg.Tube.Radius)
	if err != nil {
		return zygo.SexpNull, err
	}
	sides, err := pa.integer("sides", ev.cfg.Tube.Sides)
	if err != nil {
		return zygo.SexpNull, err
	}
	capped, err := pa.boolean("capped", ev.cfg.Tube.Capped)
	if err != nil {
		return zygo.SexpNull, err
	}
	m, err := tube.BuildAll(polylines(src), radius, sides, capped)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	name, err := ev.name(pa, src.Name+"-tubes")
	if err != nil {
		return zygo.SexpNull, err
	}
	return ev.add(&scene.Item{Name: name, Kind: scene.KindTubes, Mesh: m, Style: src.Style, Source: pa.op})
}

// -----------------------------------------------------------------------
// (distance skin bone :signed true)
// -----------------------------------------------------------------------
func (ev *evaluation) distance(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 2 {
		return zygo.SexpNull, pa.errorf("requires a target and a reference mesh item")
	}
	target, err := ev.meshItem(pa.op, pa.positional[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	ref, err := ev.meshItem(pa.op, pa.positional[1])
	if err != nil {
		return zygo.SexpNull, err
	}
	signed, err := pa.boolean("signed", false)
	if err != nil {
		return zygo.SexpNull, err
	}
	m, err := ev.distances.Annotate(target.Mesh, ref.Mesh, signed)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	name, err := ev.name(pa, target.Name+"-distance")
	if err != nil {
		return zygo.SexpNull, err
	}
	style := target.Style
	style.ShowScalars = true
	return ev.add(&scene.Item{Name: name, Kind: scene.KindDistance, Mesh: m, Style: style, Source: pa.op})
}

// -----------------------------------------------------------------------
// (lattice bone :dims 16 :signed true :around bone :padding 5)
// (lattice bone :dims (vec3 32 32 8) :min (vec3 0 0 0) :max (vec3 10 10 2))
// -----------------------------------------------------------------------
func (ev *evaluation) lattice(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "reference mesh item")
	if err != nil {
		return zygo.SexpNull, err
	}
	ref, err := ev.meshItem(pa.op, arg)
	if err != nil {
		return zygo.SexpNull, err
	}
	dims := [3]int{16, 16, 16}
	if v, ok := pa.kw["dims"]; ok {
		if vec, err := toVec3(v); err == nil {
			for i, c := range []float64{vec.X, vec.Y, vec.Z} {
				n, err := intOf(c)
				if err != nil {
					return zygo.SexpNull, pa.errorf("dims: %w", err)
				}
				dims[i] = n
			}
		} else {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, pa.errorf("dims: %w", err)
			}
			dims = [3]int{n, n, n}
		}
	}
	bb, err := ev.bounds(pa)
	if err != nil {
		return zygo.SexpNull, err
	}
	signed, err := pa.boolean("signed", false)
	if err != nil {
		return zygo.SexpNull, err
	}
	field, err := ev.distances.Field(distance.LatticeQuery{Bounds: bb, Dims: dims}, ref.Mesh, signed)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	name, err := ev.name(pa, ref.Name+"-field")
	if err != nil {
		return zygo.SexpNull, err
	}
	style := scene.DefaultStyle(ev.cfg.Render)
	style.ShowScalars = true
	return ev.add(&scene.Item{Name: name, Kind: scene.KindField, Field: field, Style: style, Source: pa.op})
}

// -----------------------------------------------------------------------
// (preview (difference (sphere ...) (plane ...)) :cells 48 :name "cutaway")
// -----------------------------------------------------------------------
func (ev *evaluation) preview(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "function")
	if err != nil {
		return zygo.SexpNull, err
	}
	f, err := toFunction(arg)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	cells, err := pa.integer("cells", implicit.DefaultPreviewCells)
	if err != nil {
		return zygo.SexpNull, err
	}
	bb, err := ev.bounds(pa)
	if err != nil {
		return zygo.SexpNull, err
	}
	m, err := implicit.Tessellate(f.fn, bb, cells)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	name, err := ev.name(pa, "preview")
	if err != nil {
		return zygo.SexpNull, err
	}
	return ev.add(&scene.Item{Name: name, Kind: scene.KindPreview, Mesh: m, Style: scene.DefaultStyle(ev.cfg.Render), Source: pa.op + " " + f.desc})
}

// -----------------------------------------------------------------------
// (style skin :color "Pink" :backface "Tomato" :opacity 0.5 :specular 0.8
// :specular-power 120 :diffuse 0.8 :cull true :hidden false :scalars true)
// -----------------------------------------------------------------------
func (ev *evaluation) style(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "item")
	if err != nil {
		return zygo.SexpNull, err
	}
	it, err := ev.item(pa.op, arg)
	if err != nil {
		return zygo.SexpNull, err
	}
	st := it.Style
	if st.Color, err = pa.str("color", st.Color); err != nil {
		return zygo.SexpNull, err
	}
	if st.BackfaceColor, err = pa.str("backface", st.BackfaceColor); err != nil {
		return zygo.SexpNull, err
	}
	if st.Opacity, err = pa.float("opacity", st.Opacity); err != nil {
		return zygo.SexpNull, err
	}
	if st.Diffuse, err = pa.float("diffuse", st.Diffuse); err != nil {
		return zygo.SexpNull, err
	}
	if st.Specular, err = pa.float("specular", st.Specular); err != nil {
		return zygo.SexpNull, err
	}
	if st.SpecularPower, err = pa.float("specular-power", st.SpecularPower); err != nil {
		return zygo.SexpNull, err
	}
	if st.CullBackfaces, err = pa.boolean("cull", st.CullBackfaces); err != nil {
		return zygo.SexpNull, err
	}
	if st.Hidden, err = pa.boolean("hidden", st.Hidden); err != nil {
		return zygo.SexpNull, err
	}
	if st.ShowScalars, err = pa.boolean("scalars", st.ShowScalars); err != nil {
		return zygo.SexpNull, err
	}
	if _, ok := ev.cfg.Palette.Lookup(st.Color); !ok {
		return zygo.SexpNull, pa.errorf("colour %q is not in the palette", st.Color)
	}
	if st.BackfaceColor != "" {
		if _, ok := ev.cfg.Palette.Lookup(st.BackfaceColor); !ok {
			return zygo.SexpNull, pa.errorf("colour %q is not in the palette", st.BackfaceColor)
		}
	}
	it.Style = st
	return &sexpItemRef{name: it.Name}, nil
}

// -----------------------------------------------------------------------
// (background "SlateGray")
// -----------------------------------------------------------------------
func (ev *evaluation) background(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.need(0, "colour name")
	if err != nil {
		return zygo.SexpNull, err
	}
	c, err := toString(arg)
	if err != nil {
		return zygo.SexpNull, pa.errorf("%w", err)
	}
	if _, ok := ev.cfg.Palette.Lookup(c); !ok {
		return zygo.SexpNull, pa.errorf("colour %q is not in the palette", c)
	}
	ev.scene.Background = c
	return zygo.SexpNull, nil
}
