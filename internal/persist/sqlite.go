package persist

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
	"pkt.systems/pslog"
)

// SQLiteStore persists slots in a single-table key-value database, the
// layout desktop shells use for their state.vscdb files.
type SQLiteStore struct {
	db  *sql.DB
	log pslog.Logger
}

// NewSQLiteStore opens (or creates) the slot database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithLogger(path, nil)
}

// NewSQLiteStoreWithLogger opens the slot database with logging.
func NewSQLiteStoreWithLogger(path string, logger pslog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS item_table (key TEXT PRIMARY KEY, value BLOB)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_db", path)
	}
	return &SQLiteStore{db: db, log: logger}, nil
}

// Load reads a slot row.
func (s *SQLiteStore) Load(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM item_table WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		if s.log != nil {
			s.log.Debug("state load miss", "key", key)
		}
		return nil, false, nil
	}
	if err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "key", key, "err", err)
		}
		return nil, false, err
	}
	if s.log != nil {
		s.log.Debug("state load ok", "key", key, "bytes", len(value))
	}
	return value, true, nil
}

// Save upserts a slot row.
func (s *SQLiteStore) Save(key string, data []byte) error {
	_, err := s.db.Exec(`INSERT INTO item_table (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, data)
	if err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "key", key, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "key", key, "bytes", len(data))
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
