package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/osteo/pkg/cache"
	"github.com/chazu/osteo/pkg/kernel"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osteo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	skin, ok := cfg.Band("skin")
	require.True(t, ok)
	assert.Equal(t, 50.0, skin.Low)
	assert.True(t, skin.IsOpen())
	assert.Equal(t, "Tomato", skin.BackfaceColor)
	assert.Equal(t, 0.5, skin.Opacity)

	bone, ok := cfg.Band("bone")
	require.True(t, ok)
	assert.False(t, bone.IsOpen())
	assert.Equal(t, 72.0, *bone.High)

	_, ok = cfg.Band("cartilage")
	assert.False(t, ok)
	assert.Contains(t, cfg.Palette.Names(), "SlateGray")
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
cache:
  backend: sqlite
  path: /tmp/fields.db
tube:
  radius: 2
  sides: 12
palette:
  Bone: [0.9, 0.9, 0.8]
surfaces:
  - name: bone
    low: 60
    high: 90
    color: Bone
    opacity: 1
`)
	cfg, err := NewLoader().
		WithConfigPath(path).
		WithEnv(env(map[string]string{
			"OSTEO_TUBE_SIDES":     "16",
			"OSTEO_ENGINE_TIMEOUT": "2s",
			"OSTEO_LOG_FORMAT":     "json",
		})).
		Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "file overrides default")
	assert.Equal(t, "json", cfg.Log.Format, "env overrides default")
	assert.Equal(t, CacheSQLite, cfg.Cache.Backend)
	assert.Equal(t, 2.0, cfg.Tube.Radius)
	assert.Equal(t, 16, cfg.Tube.Sides, "env overrides file")
	assert.Equal(t, 2*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 1e-6, cfg.Section.Tolerance, "untouched default survives")

	require.Len(t, cfg.Surfaces, 1, "file surfaces replace the defaults")
	assert.Equal(t, Color{0.9, 0.9, 0.8}, cfg.Palette["Bone"])
	_, ok := cfg.Palette.Lookup("Pink")
	assert.True(t, ok, "file palette extends the defaults")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).
		WithEnv(env(nil)).
		Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Tube, cfg.Tube)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{"malformed yaml", "log: [", nil},
		{"bad duration", "", map[string]string{"OSTEO_ENGINE_TIMEOUT": "soon"}},
		{"bad int", "", map[string]string{"OSTEO_TUBE_SIDES": "many"}},
		{"unknown backend", "cache:\n  backend: redis\n", nil},
		{"unknown colour", "surfaces:\n  - name: skin\n    low: 1\n    color: Mauve\n    opacity: 1\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader().WithEnv(env(tt.env))
			if tt.file != "" {
				l = l.WithConfigPath(writeFile(t, tt.file))
			}
			_, err := l.Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"file dir", func(c *Config) { c.Cache.Dir = "" }},
		{"sqlite path", func(c *Config) { c.Cache.Backend = CacheSQLite; c.Cache.Path = "" }},
		{"timeout", func(c *Config) { c.Engine.Timeout = 0 }},
		{"radius", func(c *Config) { c.Tube.Radius = -1 }},
		{"sides", func(c *Config) { c.Tube.Sides = 2 }},
		{"tolerance", func(c *Config) { c.Section.Tolerance = 0 }},
		{"background", func(c *Config) { c.Render.Background = "Chartreuse" }},
		{"duplicate surface", func(c *Config) { c.Surfaces = append(c.Surfaces, c.Surfaces[0]) }},
		{"empty band", func(c *Config) { c.Surfaces[1].High = bound(10) }},
		{"opacity", func(c *Config) { c.Surfaces[0].Opacity = 1.5 }},
		{"backface colour", func(c *Config) { c.Surfaces[0].BackfaceColor = "Mauve" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(LogConfig{Level: "warn", Format: format})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1), "debug is below warn")
		assert.True(t, logger.Core().Enabled(2), "error is enabled")
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	field := &kernel.ScalarField{Points: []v3.Vec{{X: 1}}, Values: []float64{1}, Key: "k"}

	tests := []struct {
		name string
		cfg  CacheConfig
	}{
		{"file", CacheConfig{Backend: CacheFile, Dir: filepath.Join(dir, "fields")}},
		{"sqlite", CacheConfig{Backend: CacheSQLite, Path: filepath.Join(dir, "fields.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closer, err := OpenStore(tt.cfg)
			require.NoError(t, err)
			defer closer.Close()
			require.NoError(t, store.Save("k", field))
			got, err := store.Load("k")
			require.NoError(t, err)
			assert.Equal(t, field.Values, got.Values)
		})
	}

	store, closer, err := OpenStore(CacheConfig{Backend: CacheNone})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	_, err = store.Load("k")
	assert.True(t, errors.Is(err, cache.ErrMiss))

	_, _, err = OpenStore(CacheConfig{Backend: "redis"})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
