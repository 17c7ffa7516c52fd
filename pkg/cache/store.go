// Package cache persists computed scalar fields under their provenance
// keys. Every store is advisory: callers treat any error as a reason to
// recompute, never as a failure.
package cache

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/chazu/osteo/pkg/kernel"
)

var (
	// ErrMiss is returned when no entry exists for a key.
	ErrMiss = errors.New("cache miss")
	// ErrCorrupt is returned when an entry exists but cannot be decoded.
	ErrCorrupt = errors.New("corrupt cache entry")
	// ErrInvalidKey is returned for keys unsafe to use as file names.
	ErrInvalidKey = errors.New("invalid cache key")
)

// Store loads and saves scalar fields by provenance key.
type Store interface {
	Load(key string) (*kernel.ScalarField, error)
	Save(key string, f *kernel.ScalarField) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Load(string) (*kernel.ScalarField, error) { return nil, ErrMiss }

func (Nop) Save(string, *kernel.ScalarField) error { return nil }
