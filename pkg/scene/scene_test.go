package scene

import (
	"strings"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/osteo/pkg/config"
	"github.com/chazu/osteo/pkg/kernel"
	"github.com/chazu/osteo/pkg/section"
)

func triangle(name string) *kernel.Mesh {
	return &kernel.Mesh{
		Name:      name,
		Vertices:  []v3.Vec{{}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{0, 1, 2}},
	}
}

func validScene(t *testing.T) *Scene {
	t.Helper()
	cfg := config.DefaultConfig()
	s := New("run-1", "SlateGray")
	skin, _ := cfg.Band("skin")
	require.NoError(t, s.Add(&Item{Name: "skin", Kind: KindSurface, Mesh: triangle("skin"), Style: BandStyle(skin, cfg.Render)}))
	require.NoError(t, s.Add(&Item{
		Name:   "rings",
		Kind:   KindSection,
		Slices: []section.Slice{{Polylines: []kernel.Polyline{{Points: []v3.Vec{{}, {X: 1}}}}}},
		Style:  DefaultStyle(cfg.Render),
	}))
	require.NoError(t, s.Add(&Item{
		Name:      "outline",
		Kind:      KindOutline,
		Polylines: kernel.Outline(sdf.Box3{Max: v3.Vec{X: 1, Y: 1, Z: 1}}),
		Style:     DefaultStyle(cfg.Render),
	}))
	return s
}

// --- Scene ---

func TestAddAndLookup(t *testing.T) {
	s := validScene(t)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"skin", "rings", "outline"}, s.Names())
	assert.Equal(t, KindSection, s.Lookup("rings").Kind)
	assert.Nil(t, s.Lookup("bone"))
	assert.Len(t, s.OfKind(KindSurface), 1)
	assert.Len(t, s.Meshes(), 1)

	assert.Panics(t, func() { s.MustLookup("bone") })
	assert.Error(t, s.Add(&Item{Name: "skin", Kind: KindSurface}), "duplicate name")
	assert.Error(t, s.Add(&Item{Kind: KindSurface}), "empty name")
}

func TestUniqueName(t *testing.T) {
	s := validScene(t)
	assert.Equal(t, "bone", s.UniqueName("bone"))
	assert.Equal(t, "skin-2", s.UniqueName("skin"))
	require.NoError(t, s.Add(&Item{Name: "skin-2", Kind: KindSurface, Mesh: triangle("x")}))
	assert.Equal(t, "skin-3", s.UniqueName("skin"))
}

func TestHiddenMeshesAreSkipped(t *testing.T) {
	s := validScene(t)
	s.Lookup("skin").Style.Hidden = true
	assert.Empty(t, s.Meshes())
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind ItemKind
		want string
		mesh bool
	}{
		{KindSurface, "surface", true},
		{KindClipped, "clipped", true},
		{KindSection, "section", false},
		{KindTubes, "tubes", true},
		{KindDistance, "distance", true},
		{KindField, "field", false},
		{KindPreview, "preview", true},
		{KindOutline, "outline", false},
		{ItemKind(42), "ItemKind(42)", false},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
			assert.Equal(t, tt.mesh, tt.kind.HasMesh())
		})
	}
}

func TestBandStyle(t *testing.T) {
	cfg := config.DefaultConfig()
	skin, _ := cfg.Band("skin")
	st := BandStyle(skin, cfg.Render)
	assert.Equal(t, "Pink", st.Color)
	assert.Equal(t, "Tomato", st.BackfaceColor)
	assert.Equal(t, 0.5, st.Opacity)
	assert.True(t, st.CullBackfaces)
	assert.Equal(t, 120.0, st.SpecularPower)
}

// --- Validation ---

func TestValidateClean(t *testing.T) {
	assert.Empty(t, Validate(validScene(t), config.DefaultPalette()))
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Scene)
		severity Severity
		contains string
	}{
		{"background", func(s *Scene) { s.Background = "Mauve" }, SeverityError, "background"},
		{"colour", func(s *Scene) { s.Items[0].Style.Color = "Mauve" }, SeverityError, "colour"},
		{"backface colour", func(s *Scene) { s.Items[0].Style.BackfaceColor = "Mauve" }, SeverityError, "backface"},
		{"opacity", func(s *Scene) { s.Items[0].Style.Opacity = 2 }, SeverityError, "opacity"},
		{"lighting", func(s *Scene) { s.Items[0].Style.Specular = -1 }, SeverityError, "lighting"},
		{"missing mesh", func(s *Scene) { s.Items[0].Mesh = nil }, SeverityError, "no mesh"},
		{"invalid mesh", func(s *Scene) { s.Items[0].Mesh.Triangles[0][2] = 9 }, SeverityError, "out of range"},
		{"empty mesh", func(s *Scene) { s.Items[0].Mesh = kernel.NewMesh("empty") }, SeverityWarning, "empty"},
		{"distance without scalars", func(s *Scene) { s.Items[0].Kind = KindDistance }, SeverityError, "scalars"},
		{"no slices", func(s *Scene) { s.Items[1].Slices = nil }, SeverityWarning, "no plane"},
		{"no outline", func(s *Scene) { s.Items[2].Polylines = nil }, SeverityError, "outline"},
		{"field missing", func(s *Scene) { s.Items[1].Kind = KindField }, SeverityError, "no field"},
		{"bad field", func(s *Scene) {
			s.Items[1].Kind = KindField
			s.Items[1].Field = &kernel.ScalarField{Values: []float64{1}}
		}, SeverityError, "points"},
		{"duplicate", func(s *Scene) { s.Items[1].Name = "skin" }, SeverityError, "more than one"},
		{"unnamed", func(s *Scene) { s.Items[2].Name = "" }, SeverityError, "no name"},
		{"unknown kind", func(s *Scene) { s.Items[2].Kind = ItemKind(99) }, SeverityError, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScene(t)
			tt.mutate(s)
			findings := Validate(s, config.DefaultPalette())
			require.NotEmpty(t, findings)
			found := false
			for _, f := range findings {
				if f.Severity == tt.severity && strings.Contains(f.Error(), tt.contains) {
					found = true
				}
			}
			assert.True(t, found, "no %s finding containing %q in %v", tt.severity, tt.contains, findings)
			assert.Equal(t, tt.severity == SeverityError, HasErrors(findings))
		})
	}
}

func TestValidationErrorFormat(t *testing.T) {
	assert.Equal(t, "[error] scene broken", ValidationError{Message: "scene broken"}.Error())
	assert.Equal(t, `[warning] item "skin": empty`,
		ValidationError{Item: "skin", Message: "empty", Severity: SeverityWarning}.Error())
	assert.Equal(t, "Severity(7)", Severity(7).String())
}
