package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/osteo/pkg/config"
	"github.com/chazu/osteo/pkg/distance"
	"github.com/chazu/osteo/pkg/engine"
	"github.com/chazu/osteo/pkg/export"
	"github.com/chazu/osteo/pkg/kernel"
	"github.com/chazu/osteo/pkg/scene"
	"github.com/chazu/osteo/pkg/tessellate"
	"github.com/chazu/osteo/pkg/volume"
)

// SummaryFile is written next to the exported geometry.
const SummaryFile = "summary.json"

// Summary describes one evaluated scene and the files exported from it.
type Summary struct {
	RunID      string        `json:"run_id"`
	Background string        `json:"background"`
	Volume     *VolumeInfo   `json:"volume,omitempty"`
	Items      []ItemSummary `json:"items"`
}

// VolumeInfo is the shape and statistics of the input volume.
type VolumeInfo struct {
	Path    string     `json:"path"`
	Dims    [3]int     `json:"dims"`
	Spacing [3]float64 `json:"spacing"`
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Mean    float64    `json:"mean"`
}

// ItemSummary is one scene item.
type ItemSummary struct {
	Name      string            `json:"name"`
	Kind      string            `json:"kind"`
	Style     scene.Style       `json:"style"`
	Vertices  int               `json:"vertices,omitempty"`
	Triangles int               `json:"triangles,omitempty"`
	Slices    int               `json:"slices,omitempty"`
	Polylines int               `json:"polylines,omitempty"`
	Samples   int               `json:"samples,omitempty"`
	ScalarMin *float64          `json:"scalar_min,omitempty"`
	ScalarMax *float64          `json:"scalar_max,omitempty"`
	Distance  *distance.Summary `json:"distance,omitempty"`
	Buffer    string            `json:"buffer,omitempty"`
	File      string            `json:"file,omitempty"`
}

// cmdRun evaluates a scene script and exports every visible mesh as STL,
// every section set as DXF and a JSON summary into the output directory.
func cmdRun(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	volumePath := fs.String("volume", "", "volume file (.vol or .slc)")
	scriptPath := fs.String("script", "", "scene script")
	outDir := fs.String("out", "out", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *scriptPath == "" {
		return errors.New("-script is required")
	}

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	store, closer, err := config.OpenStore(cfg.Cache)
	if err != nil {
		return err
	}
	defer closer.Close()

	source, err := os.ReadFile(*scriptPath)
	if err != nil {
		return err
	}

	var vol *volume.Grid
	if *volumePath != "" {
		if vol, err = loadVolume(*volumePath); err != nil {
			return err
		}
		logger.Info("volume loaded",
			zap.String("path", *volumePath),
			zap.Ints("dims", vol.Dims[:]))
	}

	eng := engine.NewEngine(cfg, store, logger)
	s, evalErrs, err := eng.Evaluate(vol, string(source))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", *scriptPath, e.Error())
		}
		return fmt.Errorf("%d error(s) in %s", len(evalErrs), *scriptPath)
	}

	frame, err := tessellate.Tessellate(s, cfg.Palette)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	files, err := exportScene(s, *outDir)
	if err != nil {
		return err
	}
	sum := buildSummary(s, frame, files)
	if vol != nil {
		sum.Volume = volumeInfo(*volumePath, vol)
	}
	if err := writeSummary(filepath.Join(*outDir, SummaryFile), sum); err != nil {
		return err
	}

	logger.Info("scene exported",
		zap.String("run", s.RunID),
		zap.String("dir", *outDir),
		zap.Int("files", len(files)))
	fmt.Fprintf(stdout, "%d items, %d files written to %s\n", s.Len(), len(files), *outDir)
	return nil
}

// exportScene writes one STL per visible non-empty mesh and one DXF per
// section item, returning the file name used for each item.
func exportScene(s *scene.Scene, dir string) (map[string]string, error) {
	files := make(map[string]string)
	for _, it := range s.Items {
		if it.Style.Hidden {
			continue
		}
		var name string
		var err error
		switch {
		case it.Kind.HasMesh() && !it.Mesh.IsEmpty():
			name = fileName(it.Name, ".stl")
			err = export.SaveSTL(filepath.Join(dir, name), it.Mesh)
		case it.Kind == scene.KindSection && len(it.Slices) > 0:
			name = fileName(it.Name, ".dxf")
			err = export.SaveDXF(filepath.Join(dir, name), it.Slices)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", it.Name, err)
		}
		files[it.Name] = name
	}
	return files, nil
}

// fileName maps an item name to a safe file name.
func fileName(item, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, item)
	return safe + ext
}

func buildSummary(s *scene.Scene, frame *tessellate.Frame, files map[string]string) Summary {
	buffers := make(map[string]*tessellate.Buffer)
	if frame != nil {
		for _, b := range frame.Buffers {
			buffers[b.Name] = b
		}
	}
	sum := Summary{RunID: s.RunID, Background: s.Background, Items: []ItemSummary{}}
	for _, it := range s.Items {
		is := ItemSummary{
			Name:  it.Name,
			Kind:  it.Kind.String(),
			Style: it.Style,
			File:  files[it.Name],
		}
		if it.Mesh != nil {
			is.Vertices = it.Mesh.VertexCount()
			is.Triangles = it.Mesh.TriangleCount()
			if lo, hi, ok := it.Mesh.ScalarRange(); ok {
				is.ScalarMin, is.ScalarMax = &lo, &hi
			}
			if it.Kind == scene.KindDistance {
				ds := distance.Summarize(&kernel.ScalarField{Values: it.Mesh.Scalars})
				is.Distance = &ds
			}
		}
		is.Slices = len(it.Slices)
		for _, sl := range it.Slices {
			is.Polylines += len(sl.Polylines)
		}
		is.Polylines += len(it.Polylines)
		if it.Field != nil {
			is.Samples = it.Field.Len()
			if lo, hi, ok := it.Field.Range(); ok {
				is.ScalarMin, is.ScalarMax = &lo, &hi
			}
			ds := distance.Summarize(it.Field)
			is.Distance = &ds
		}
		if b, ok := buffers[it.Name]; ok {
			is.Buffer = b.Primitive.String()
		}
		sum.Items = append(sum.Items, is)
	}
	return sum
}

func volumeInfo(path string, g *volume.Grid) *VolumeInfo {
	st := g.Stats()
	return &VolumeInfo{
		Path:    path,
		Dims:    g.Dims,
		Spacing: [3]float64{g.Spacing.X, g.Spacing.Y, g.Spacing.Z},
		Min:     st.Min,
		Max:     st.Max,
		Mean:    st.Mean,
	}
}

func writeSummary(path string, sum Summary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
