package config

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/osteo/pkg/cache"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore opens the cache backend cfg selects. The returned closer
// releases the backend and is never nil.
func OpenStore(cfg CacheConfig) (cache.Store, io.Closer, error) {
	switch cfg.Backend {
	case CacheFile:
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("config: cache dir: %w", err)
		}
		return cache.NewFileStore(cfg.Dir), nopCloser{}, nil
	case CacheSQLite:
		s, err := cache.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		return s, s, nil
	case CacheNone, "":
		return cache.Nop{}, nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("config: %w: cache.backend %q", ErrInvalidConfig, cfg.Backend)
}
