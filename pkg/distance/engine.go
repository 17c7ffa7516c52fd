// Package distance computes distance fields from sample points to a
// reference mesh, with results persisted in an advisory cache.
package distance

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
	"go.uber.org/zap"

	"github.com/chazu/osteo/pkg/cache"
	"github.com/chazu/osteo/pkg/kernel"
)

// ErrInvalidQuery is returned for malformed sample lattices.
var ErrInvalidQuery = errors.New("invalid distance query")

// Engine evaluates distance fields. It holds no per-call state and is safe
// for concurrent use when its store is.
type Engine struct {
	store  cache.Store
	logger *zap.Logger
}

// New returns an engine backed by store. A nil store disables caching and a
// nil logger discards logs.
func New(store cache.Store, logger *zap.Logger) *Engine {
	if store == nil {
		store = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		logger: logger.With(zap.String("component", "distance")),
	}
}

// Key returns the provenance key of a field: a digest of the reference
// geometry, the query and the signed flag.
func Key(q Query, ref *kernel.Mesh, signed bool) string {
	d := kernel.NewDigest("distance/v1").Hash(ref.GeometryHash()).Bool(signed)
	q.describe(d)
	return d.Sum().String()
}

// Field returns, for every query point, the distance to the nearest point
// on any triangle of ref. When signed, points on the inner side of the
// nearest triangle are negative. An empty reference gives +Inf everywhere.
//
// A cached field under the same provenance key is returned instead of
// recomputing; cache failures are logged and otherwise ignored.
func (e *Engine) Field(q Query, ref *kernel.Mesh, signed bool) (*kernel.ScalarField, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("distance: reference: %w", err)
	}
	pts, dims, err := q.points()
	if err != nil {
		return nil, fmt.Errorf("distance: %w", err)
	}
	key := Key(q, ref, signed)
	log := e.logger.With(zap.String("key", key[:12]), zap.Int("points", len(pts)))

	cached, err := e.store.Load(key)
	switch {
	case err == nil && cached.Len() == len(pts) && cached.Signed == signed && cached.Key == key:
		log.Debug("distance field cache hit")
		return cached, nil
	case err == nil:
		log.Warn("cached distance field does not match query, recomputing")
	case !errors.Is(err, cache.ErrMiss):
		log.Warn("distance field cache unreadable, recomputing", zap.Error(err))
	}

	field := &kernel.ScalarField{
		Points: append([]v3.Vec(nil), pts...),
		Values: compute(pts, ref, signed),
		Signed: signed,
		Key:    key,
		Dims:   dims,
	}
	if err := e.store.Save(key, field); err != nil {
		log.Warn("failed to cache distance field", zap.Error(err))
	} else {
		log.Debug("distance field computed and cached")
	}
	return field, nil
}

// Annotate returns a copy of target carrying its per-vertex distance to ref
// as scalars.
func (e *Engine) Annotate(target, ref *kernel.Mesh, signed bool) (*kernel.Mesh, error) {
	field, err := e.Field(VertexQuery{Mesh: target}, ref, signed)
	if err != nil {
		return nil, err
	}
	return target.WithScalars(target.Name+"-distance", field.Values)
}

func compute(pts []v3.Vec, ref *kernel.Mesh, signed bool) []float64 {
	values := make([]float64, len(pts))
	if ref.IsEmpty() {
		for i := range values {
			values[i] = math.Inf(1)
		}
		return values
	}
	idx := newIndex(ref)
	for i, p := range pts {
		values[i] = idx.distance(p, signed)
	}
	return values
}

// triItem is a triangle in the R-tree.
type triItem struct {
	tri  int
	rect rtreego.Rect
}

func (t *triItem) Bounds() rtreego.Rect {
	return t.rect
}

type index struct {
	mesh    *kernel.Mesh
	normals []v3.Vec
	tree    *rtreego.Rtree
}

// minExtent keeps boxes of axis-aligned triangles non-degenerate.
const minExtent = 1e-9

func newIndex(m *kernel.Mesh) *index {
	items := make([]rtreego.Spatial, 0, len(m.Triangles))
	normals := make([]v3.Vec, len(m.Triangles))
	for t := range m.Triangles {
		a, b, c := m.Triangle(t)
		lo := a.Min(b).Min(c)
		hi := a.Max(b).Max(c)
		items = append(items, &triItem{tri: t, rect: box(lo, hi)})
		normals[t] = m.FaceNormal(t)
	}
	return &index{
		mesh:    m,
		normals: normals,
		tree:    rtreego.NewTree(3, 25, 50, items...),
	}
}

func box(lo, hi v3.Vec) rtreego.Rect {
	size := hi.Sub(lo)
	r, err := rtreego.NewRect(
		rtreego.Point{lo.X, lo.Y, lo.Z},
		[]float64{math.Max(size.X, minExtent), math.Max(size.Y, minExtent), math.Max(size.Z, minExtent)},
	)
	if err != nil {
		// Lengths are positive by construction.
		panic(err)
	}
	return r
}

// distance finds the nearest triangle to p. The R-tree's nearest box gives
// an upper bound d0; every triangle whose box meets the cube of half-width
// d0 around p is then checked exactly. Among triangles at the same
// distance, such as those sharing the nearest edge or vertex, the one whose
// normal is most aligned with the offset decides the sign.
func (ix *index) distance(p v3.Vec, signed bool) float64 {
	first := ix.tree.NearestNeighbor(rtreego.Point{p.X, p.Y, p.Z}).(*triItem)
	d0 := ix.exact(p, first.tri).Sub(p).Length()

	h := d0 + minExtent
	lo := p.Sub(v3.Vec{X: h, Y: h, Z: h})
	candidates := ix.tree.SearchIntersect(box(lo, lo.Add(v3.Vec{X: 2 * h, Y: 2 * h, Z: 2 * h})))

	best := math.Inf(1)
	bestCos := -1.0
	sign := 1.0
	tieTol := 1e-9 * math.Max(1, d0)
	for _, s := range candidates {
		t := s.(*triItem).tri
		q := ix.exact(p, t)
		off := p.Sub(q)
		d := off.Length()
		if d > best+tieTol {
			continue
		}
		cos := 0.0
		dot := ix.normals[t].Dot(off)
		if d > 0 {
			cos = math.Abs(dot) / d
		}
		if d < best-tieTol || cos > bestCos {
			if d < best {
				best = d
			}
			bestCos = cos
			sign = 1
			if dot < 0 {
				sign = -1
			}
		}
	}
	if !signed {
		return best
	}
	return sign * best
}

func (ix *index) exact(p v3.Vec, t int) v3.Vec {
	a, b, c := ix.mesh.Triangle(t)
	return closestOnTriangle(p, a, b, c)
}
