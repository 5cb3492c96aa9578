package search

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// schema drops and recreates all tables. The crate index is rebuilt
// from scratch from each dump, so there are no migrations.
const schema = `
DROP TRIGGER IF EXISTS crates_au;
DROP TRIGGER IF EXISTS crates_ad;
DROP TRIGGER IF EXISTS crates_ai;
DROP TABLE IF EXISTS crates_fts;
DROP TABLE IF EXISTS crates;

CREATE TABLE crates (
	name TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	version TEXT NOT NULL,
	downloads INTEGER NOT NULL
);

CREATE VIRTUAL TABLE crates_fts USING fts5(
	name, description,
	content='crates',
	content_rowid='rowid'
);

CREATE TRIGGER crates_ai AFTER INSERT ON crates BEGIN
	INSERT INTO crates_fts(rowid, name, description)
	VALUES (new.rowid, new.name, new.description);
END;

CREATE TRIGGER crates_ad AFTER DELETE ON crates BEGIN
	INSERT INTO crates_fts(crates_fts, rowid, name, description)
	VALUES ('delete', old.rowid, old.name, old.description);
END;

CREATE TRIGGER crates_au AFTER UPDATE ON crates BEGIN
	INSERT INTO crates_fts(crates_fts, rowid, name, description)
	VALUES ('delete', old.rowid, old.name, old.description);
	INSERT INTO crates_fts(rowid, name, description)
	VALUES (new.rowid, new.name, new.description);
END;
`

func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open crate db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}
