// Package config holds the settings of the osteo pipeline: logging, the
// derived-result cache, script evaluation limits, geometry defaults, the
// named colour palette and the density bands that define surfaces.
//
// Settings are loaded with precedence defaults → YAML file → environment:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("osteo.yaml").
//	    Load()
package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" env:"LOG"`
	Cache    CacheConfig    `yaml:"cache" env:"CACHE"`
	Engine   EngineConfig   `yaml:"engine" env:"ENGINE"`
	Tube     TubeConfig     `yaml:"tube" env:"TUBE"`
	Section  SectionConfig  `yaml:"section" env:"SECTION"`
	Palette  Palette        `yaml:"palette" env:"-"`
	Surfaces []SurfaceBand  `yaml:"surfaces" env:"-"`
	Render   RenderDefaults `yaml:"render" env:"RENDER"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // json, console
	// OutputPaths are zap sink URLs; stderr when empty.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// Cache backends.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheNone   = "none"
)

// CacheConfig selects where distance fields are persisted.
type CacheConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	Dir     string `yaml:"dir" env:"DIR"`   // file backend
	Path    string `yaml:"path" env:"PATH"` // sqlite backend
}

// EngineConfig bounds scene script evaluation.
type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// TubeConfig holds the defaults for tubes built around polylines.
type TubeConfig struct {
	Radius float64 `yaml:"radius" env:"RADIUS"`
	Sides  int     `yaml:"sides" env:"SIDES"`
	Capped bool    `yaml:"capped" env:"CAPPED"`
}

// SectionConfig holds the segment stitching tolerance.
type SectionConfig struct {
	Tolerance float64 `yaml:"tolerance" env:"TOLERANCE"`
}

// RenderDefaults are the material values applied to surfaces that do not
// set their own.
type RenderDefaults struct {
	Background    string  `yaml:"background" env:"BACKGROUND"`
	Diffuse       float64 `yaml:"diffuse" env:"DIFFUSE"`
	Specular      float64 `yaml:"specular" env:"SPECULAR"`
	SpecularPower float64 `yaml:"specular_power" env:"SPECULAR_POWER"`
}

// Color is a linear RGB triple in [0, 1].
type Color [3]float64

// Palette maps colour names to values.
type Palette map[string]Color

// Lookup returns the named colour.
func (p Palette) Lookup(name string) (Color, bool) {
	c, ok := p[name]
	return c, ok
}

// Names returns the palette's colour names in sorted order.
func (p Palette) Names() []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SurfaceBand names a density range extracted as a surface. A nil High is
// an open band: every density at or above Low.
type SurfaceBand struct {
	Name          string   `yaml:"name"`
	Low           float64  `yaml:"low"`
	High          *float64 `yaml:"high,omitempty"`
	Color         string   `yaml:"color"`
	BackfaceColor string   `yaml:"backface_color,omitempty"`
	Opacity       float64  `yaml:"opacity"`
	CullBackfaces bool     `yaml:"cull_backfaces,omitempty"`
}

// IsOpen reports whether the band has no upper bound.
func (b SurfaceBand) IsOpen() bool {
	return b.High == nil || math.IsInf(*b.High, 1)
}

// Band returns the named surface band.
func (c *Config) Band(name string) (SurfaceBand, bool) {
	for _, b := range c.Surfaces {
		if b.Name == name {
			return b, true
		}
	}
	return SurfaceBand{}, false
}

func bound(v float64) *float64 { return &v }

// DefaultPalette is the colour table of the knee scene.
func DefaultPalette() Palette {
	return Palette{
		"Pink":      {1.0, 0.7529, 0.7961},
		"Tomato":    {1.0, 0.3882, 0.2784},
		"Ivory":     {1.0, 1.0, 0.9412},
		"SlateGray": {0.4392, 0.5020, 0.5647},
		"White":     {1, 1, 1},
		"Black":     {0, 0, 0},
		"Gold":      {1.0, 0.8431, 0.0},
		"SteelBlue": {0.2745, 0.5098, 0.7059},
	}
}

// DefaultConfig returns the built-in settings: a translucent skin surface
// at density 50 and above, an opaque bone surface between 50 and 72.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     ".osteo-cache",
			Path:    "osteo-cache.db",
		},
		Engine: EngineConfig{
			Timeout: 30 * time.Second,
		},
		Tube: TubeConfig{
			Radius: 0.5,
			Sides:  8,
			Capped: false,
		},
		Section: SectionConfig{
			Tolerance: 1e-6,
		},
		Palette: DefaultPalette(),
		Surfaces: []SurfaceBand{
			{Name: "skin", Low: 50, Color: "Pink", BackfaceColor: "Tomato", Opacity: 0.5, CullBackfaces: true},
			{Name: "bone", Low: 50, High: bound(72), Color: "Ivory", Opacity: 1},
		},
		Render: RenderDefaults{
			Background:    "SlateGray",
			Diffuse:       0.8,
			Specular:      0.8,
			SpecularPower: 120,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		fail("log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		fail("log.format %q", c.Log.Format)
	}

	switch c.Cache.Backend {
	case CacheFile:
		if c.Cache.Dir == "" {
			fail("cache.dir is required for the file backend")
		}
	case CacheSQLite:
		if c.Cache.Path == "" {
			fail("cache.path is required for the sqlite backend")
		}
	case CacheNone:
	default:
		fail("cache.backend %q", c.Cache.Backend)
	}

	if c.Engine.Timeout <= 0 {
		fail("engine.timeout %v", c.Engine.Timeout)
	}
	if !(c.Tube.Radius > 0) {
		fail("tube.radius %g", c.Tube.Radius)
	}
	if c.Tube.Sides < 3 {
		fail("tube.sides %d", c.Tube.Sides)
	}
	if !(c.Section.Tolerance > 0) {
		fail("section.tolerance %g", c.Section.Tolerance)
	}

	if _, ok := c.Palette.Lookup(c.Render.Background); !ok {
		fail("render.background %q is not in the palette", c.Render.Background)
	}
	seen := make(map[string]bool, len(c.Surfaces))
	for i, b := range c.Surfaces {
		if b.Name == "" {
			fail("surfaces[%d] has no name", i)
		} else if seen[b.Name] {
			fail("surface %q defined twice", b.Name)
		}
		seen[b.Name] = true
		if math.IsNaN(b.Low) || (b.High != nil && !(*b.High > b.Low)) {
			fail("surface %q band is empty", b.Name)
		}
		if _, ok := c.Palette.Lookup(b.Color); !ok {
			fail("surface %q colour %q is not in the palette", b.Name, b.Color)
		}
		if b.BackfaceColor != "" {
			if _, ok := c.Palette.Lookup(b.BackfaceColor); !ok {
				fail("surface %q backface colour %q is not in the palette", b.Name, b.BackfaceColor)
			}
		}
		if b.Opacity < 0 || b.Opacity > 1 {
			fail("surface %q opacity %g", b.Name, b.Opacity)
		}
	}
	return errors.Join(errs...)
}
