// Package scene defines the scene model produced by script evaluation: an
// ordered set of named items (surfaces, clipped pieces, cross-sections,
// tubes, distance-coloured meshes, sampled fields and implicit previews),
// each carrying its display style.
package scene

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/osteo/pkg/config"
	"github.com/chazu/osteo/pkg/kernel"
	"github.com/chazu/osteo/pkg/section"
)

// ItemKind says what produced an item and which payload it carries.
type ItemKind int

const (
	KindSurface  ItemKind = iota // isosurface or band surface (Mesh)
	KindClipped                  // one side of a clip (Mesh)
	KindSection                  // cross-section polylines (Slices)
	KindTubes                    // tubes around polylines (Mesh)
	KindDistance                 // mesh with distance scalars (Mesh)
	KindField                    // sampled distance field (Field)
	KindPreview                  // tessellated implicit function (Mesh)
	KindOutline                  // volume bounding box wireframe (Polylines)
)

func (k ItemKind) String() string {
	switch k {
	case KindSurface:
		return "surface"
	case KindClipped:
		return "clipped"
	case KindSection:
		return "section"
	case KindTubes:
		return "tubes"
	case KindDistance:
		return "distance"
	case KindField:
		return "field"
	case KindPreview:
		return "preview"
	case KindOutline:
		return "outline"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// HasMesh reports whether items of this kind carry a triangle mesh.
func (k ItemKind) HasMesh() bool {
	switch k {
	case KindSurface, KindClipped, KindTubes, KindDistance, KindPreview:
		return true
	}
	return false
}

// Style is how the rendering collaborator should draw an item. Colours are
// palette names.
type Style struct {
	Color         string  `json:"color"`
	BackfaceColor string  `json:"backface_color,omitempty"`
	Opacity       float64 `json:"opacity"`
	CullBackfaces bool    `json:"cull_backfaces,omitempty"`
	Diffuse       float64 `json:"diffuse"`
	Specular      float64 `json:"specular"`
	SpecularPower float64 `json:"specular_power"`
	ShowScalars   bool    `json:"show_scalars,omitempty"`
	Hidden        bool    `json:"hidden,omitempty"`
}

// DefaultStyle is an opaque white material with the configured lighting.
func DefaultStyle(r config.RenderDefaults) Style {
	return Style{
		Color:         "White",
		Opacity:       1,
		Diffuse:       r.Diffuse,
		Specular:      r.Specular,
		SpecularPower: r.SpecularPower,
	}
}

// BandStyle is the style of a configured surface band.
func BandStyle(b config.SurfaceBand, r config.RenderDefaults) Style {
	s := DefaultStyle(r)
	s.Color = b.Color
	s.BackfaceColor = b.BackfaceColor
	s.Opacity = b.Opacity
	s.CullBackfaces = b.CullBackfaces
	return s
}

// Item is one named element of a scene. Exactly one payload is set,
// according to Kind.
type Item struct {
	Name      string
	Kind      ItemKind
	Mesh      *kernel.Mesh
	Slices    []section.Slice
	Polylines []kernel.Polyline
	Field     *kernel.ScalarField
	Style     Style
	Source    string // expression that produced the item, for diagnostics
}

// Scene is the ordered result of one evaluation. Item names are unique.
type Scene struct {
	RunID      string
	Background string
	Items      []*Item
	NameIndex  map[string]int
}

// New returns an empty scene.
func New(runID, background string) *Scene {
	return &Scene{
		RunID:      runID,
		Background: background,
		NameIndex:  make(map[string]int),
	}
}

// Add appends item. Names must be non-empty and unique.
func (s *Scene) Add(item *Item) error {
	if item.Name == "" {
		return fmt.Errorf("scene: %s item has no name", item.Kind)
	}
	if _, dup := s.NameIndex[item.Name]; dup {
		return fmt.Errorf("scene: duplicate item name %q", item.Name)
	}
	s.NameIndex[item.Name] = len(s.Items)
	s.Items = append(s.Items, item)
	return nil
}

// Lookup returns the item with the given name, or nil.
func (s *Scene) Lookup(name string) *Item {
	i, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Items[i]
}

// MustLookup returns the named item, or panics.
func (s *Scene) MustLookup(name string) *Item {
	it := s.Lookup(name)
	if it == nil {
		panic(fmt.Sprintf("scene: no item named %q", name))
	}
	return it
}

// Len returns the number of items.
func (s *Scene) Len() int {
	return len(s.Items)
}

// OfKind returns the items of kind k in scene order.
func (s *Scene) OfKind(k ItemKind) []*Item {
	return lo.Filter(s.Items, func(it *Item, _ int) bool { return it.Kind == k })
}

// Names returns the item names in scene order.
func (s *Scene) Names() []string {
	return lo.Map(s.Items, func(it *Item, _ int) string { return it.Name })
}

// UniqueName returns base if unused, otherwise base-2, base-3 and so on.
func (s *Scene) UniqueName(base string) string {
	if s.Lookup(base) == nil {
		return base
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s-%d", base, n)
		if s.Lookup(name) == nil {
			return name
		}
	}
}

// Meshes returns every item mesh in scene order, skipping hidden items.
func (s *Scene) Meshes() []*kernel.Mesh {
	visible := lo.Filter(s.Items, func(it *Item, _ int) bool {
		return it.Kind.HasMesh() && it.Mesh != nil && !it.Style.Hidden
	})
	return lo.Map(visible, func(it *Item, _ int) *kernel.Mesh { return it.Mesh })
}
