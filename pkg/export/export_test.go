package export

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/osteo/pkg/kernel"
	"github.com/chazu/osteo/pkg/section"
	"github.com/chazu/osteo/pkg/tube"
)

func ring(r float64, n int) kernel.Polyline {
	pl := kernel.Polyline{Closed: true}
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		pl.Points = append(pl.Points, v3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)})
	}
	return pl
}

func TestSTLRoundTrip(t *testing.T) {
	m, err := tube.Build(ring(10, 8), 1, 6, false)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ring.stl")
	require.NoError(t, SaveSTL(path, m))

	got, err := LoadSTL(path)
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Equal(t, m.TriangleCount(), got.TriangleCount())
	assert.Equal(t, m.VertexCount(), got.VertexCount(), "shared corners are welded")

	want := m.BoundingBox()
	bb := got.BoundingBox()
	assert.InDelta(t, 0, bb.Min.Sub(want.Min).Length(), 1e-4)
	assert.InDelta(t, 0, bb.Max.Sub(want.Max).Length(), 1e-4)
	assert.InEpsilon(t, m.Area(), got.Area(), 1e-5)
}

func TestSaveSTLRejects(t *testing.T) {
	dir := t.TempDir()
	err := SaveSTL(filepath.Join(dir, "empty.stl"), kernel.NewMesh("empty"))
	assert.True(t, errors.Is(err, ErrNothingToExport))

	bad := &kernel.Mesh{Vertices: []v3.Vec{{}}, Triangles: [][3]int{{0, 0, 4}}}
	err = SaveSTL(filepath.Join(dir, "bad.stl"), bad)
	assert.True(t, errors.Is(err, kernel.ErrInvalidMesh))
}

func TestLoadSTLMissingFile(t *testing.T) {
	_, err := LoadSTL(filepath.Join(t.TempDir(), "absent.stl"))
	assert.Error(t, err)
}

func TestSaveDXF(t *testing.T) {
	slices := []section.Slice{
		{
			Index: 0,
			Polylines: []kernel.Polyline{{
				Points: []v3.Vec{{}, {X: 1}, {Y: 1}},
				Closed: true,
			}},
		},
		{
			Index: 3,
			Polylines: []kernel.Polyline{{
				Points: []v3.Vec{{Z: 2}, {X: 1, Z: 2}},
			}},
		},
	}
	path := filepath.Join(t.TempDir(), "sections.dxf")
	require.NoError(t, SaveDXF(path, slices))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, LayerName(0))
	assert.Contains(t, body, LayerName(3))

	lines := 0
	for _, l := range strings.Split(body, "\n") {
		if strings.TrimSpace(l) == "LINE" {
			lines++
		}
	}
	assert.GreaterOrEqual(t, lines, 4, "three closing-aware segments plus one open segment")
}

func TestSaveDXFNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.dxf")
	err := SaveDXF(path, []section.Slice{{Polylines: []kernel.Polyline{{Points: []v3.Vec{{}}}}}})
	assert.True(t, errors.Is(err, ErrNothingToExport))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLayerName(t *testing.T) {
	assert.Equal(t, "slice-007", LayerName(7))
}
