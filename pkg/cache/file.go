package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chazu/osteo/pkg/kernel"
)

// FileExt is the extension of file store entries.
const FileExt = ".dfield"

// FileStore keeps one file per key in a directory. Writes go to a temporary
// file that is renamed over the entry, so readers never see a partial entry
// and concurrent writers of the same key simply race to the last rename.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the entry path for key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+FileExt)
}

// Load reads the entry for key.
func (s *FileStore) Load(key string) (*kernel.ScalarField, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", key, err)
	}
	defer f.Close()
	field, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cache: %s: %w", key, err)
	}
	return field, nil
}

// Save replaces the entry for key.
func (s *FileStore) Save(key string, field *kernel.ScalarField) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, field); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}
