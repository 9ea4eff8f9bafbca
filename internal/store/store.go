package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the keyword spec cache.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS libraries (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT,
  name            TEXT,
  doc             TEXT,
  doc_format      TEXT,
  version         TEXT,
  spec_version    INTEGER DEFAULT 0,
  type            TEXT,
  scope           TEXT,
  named_args      BOOLEAN DEFAULT FALSE,
  source          TEXT,
  lineno          INTEGER DEFAULT -1,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS keywords (
  id              INTEGER PRIMARY KEY,
  library_id      INTEGER NOT NULL REFERENCES libraries(id),
  name            TEXT NOT NULL,
  doc             TEXT,
  source          TEXT,
  lineno          INTEGER DEFAULT -1,
  is_init         BOOLEAN DEFAULT FALSE,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS keyword_args (
  id              INTEGER PRIMARY KEY,
  keyword_id      INTEGER NOT NULL REFERENCES keywords(id),
  ordinal         INTEGER NOT NULL,
  original        TEXT,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  type_expr       TEXT,
  default_expr    TEXT
);

CREATE TABLE IF NOT EXISTS keyword_tags (
  id              INTEGER PRIMARY KEY,
  keyword_id      INTEGER NOT NULL REFERENCES keywords(id),
  ordinal         INTEGER NOT NULL,
  tag             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_keywords_library ON keywords(library_id);
CREATE INDEX IF NOT EXISTS idx_keywords_name ON keywords(name);
CREATE INDEX IF NOT EXISTS idx_keyword_args_keyword ON keyword_args(keyword_id);
CREATE INDEX IF NOT EXISTS idx_keyword_tags_keyword ON keyword_tags(keyword_id);
CREATE INDEX IF NOT EXISTS idx_keyword_tags_tag ON keyword_tags(tag);
`

// DeleteLibraryData transactionally removes a library and everything that
// hangs off it. Deletes in reverse-dependency order to respect FK
// constraints.
func (s *Store) DeleteLibraryData(libraryID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT id FROM keywords WHERE library_id = ?", libraryID)
	if err != nil {
		return fmt.Errorf("query keywords: %w", err)
	}
	var keywordIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan keyword id: %w", err)
		}
		keywordIDs = append(keywordIDs, id)
	}
	rows.Close()

	if len(keywordIDs) > 0 {
		placeholders := placeholderList(len(keywordIDs))
		args := int64sToArgs(keywordIDs)
		for _, q := range []string{
			"DELETE FROM keyword_tags WHERE keyword_id IN (" + placeholders + ")",
			"DELETE FROM keyword_args WHERE keyword_id IN (" + placeholders + ")",
		} {
			if _, err := tx.Exec(q, args...); err != nil {
				return fmt.Errorf("delete keyword child data: %w", err)
			}
		}
	}

	for _, q := range []string{
		"DELETE FROM keywords WHERE library_id = ?",
		"DELETE FROM libraries WHERE id = ?",
	} {
		if _, err := tx.Exec(q, libraryID); err != nil {
			return fmt.Errorf("delete library data: %w", err)
		}
	}

	return tx.Commit()
}

// Reset removes every indexed library, keeping the metadata table.
func (s *Store) Reset() error {
	for _, q := range []string{
		"DELETE FROM keyword_tags",
		"DELETE FROM keyword_args",
		"DELETE FROM keywords",
		"DELETE FROM libraries",
	} {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value.String, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}
