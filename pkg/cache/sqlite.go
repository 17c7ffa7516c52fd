package cache

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/chazu/osteo/pkg/kernel"
)

// SQLiteStore keeps entries as MessagePack blobs in a single table. Each
// save is one upsert statement, so entries are replaced atomically.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a store database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fields (
		key TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		points INTEGER NOT NULL,
		signed INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the entry for key.
func (s *SQLiteStore) Load(key string) (*kernel.ScalarField, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM fields WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: query %s: %w", key, err)
	}
	field, err := Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cache: %s: %w", key, err)
	}
	return field, nil
}

// Save replaces the entry for key.
func (s *SQLiteStore) Save(key string, field *kernel.ScalarField) error {
	if err := checkKey(key); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, field); err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO fields (key, body, points, signed, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, key, buf.Bytes(), field.Len(), field.Signed)
	if err != nil {
		return fmt.Errorf("cache: save %s: %w", key, err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM fields`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
