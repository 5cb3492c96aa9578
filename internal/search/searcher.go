package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Result struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
	Downloads   uint64 `json:"downloads"`
}

type SearchResponse struct {
	Total   uint64   `json:"total"`
	Results []Result `json:"results"`
}

type SQLiteSearcher struct {
	db *sql.DB
}

// NewSQLiteSearcher opens an existing crate index read side. It fails
// when the index file is absent or was never populated, without
// leaving an empty database behind, so callers can distinguish "index
// not built yet" from a query error.
func NewSQLiteSearcher(path string) (*SQLiteSearcher, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("crate index: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='crates_fts'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		_ = db.Close()
		return nil, fmt.Errorf("crate index %s: not built", path)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("inspect crate index: %w", err)
	}
	return &SQLiteSearcher{db: db}, nil
}

func (s *SQLiteSearcher) Close() error {
	return s.db.Close()
}

// Search runs a prefix FTS query over crate names and descriptions.
// Ties on relevance go to the more-downloaded crate.
func (s *SQLiteSearcher) Search(ctx context.Context, queryString string, limit int, offset int) (SearchResponse, error) {
	queryString = sanitizeQuery(queryString)
	if queryString == "" {
		return SearchResponse{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT c.name, c.description, c.version, c.downloads, COUNT(*) OVER() AS total
		 FROM crates_fts f
		 JOIN crates c ON c.rowid = f.rowid
		 WHERE crates_fts MATCH ?
		 ORDER BY f.rank, c.downloads DESC
		 LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, queryString, limit, offset)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var resp SearchResponse
	resp.Results = make([]Result, 0)

	for rows.Next() {
		var r Result
		var total uint64
		if err := rows.Scan(&r.Name, &r.Description, &r.Version, &r.Downloads, &total); err != nil {
			return SearchResponse{}, fmt.Errorf("scan result: %w", err)
		}
		resp.Total = total
		resp.Results = append(resp.Results, r)
	}
	if err := rows.Err(); err != nil {
		return SearchResponse{}, fmt.Errorf("iterate results: %w", err)
	}

	return resp, nil
}

// sanitizeQuery strips FTS5 operators from user input and turns each
// remaining term into a quoted prefix match.
func sanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range q {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	q = strings.TrimSpace(b.String())
	if q == "" {
		return ""
	}

	terms := strings.Fields(q)
	var filtered []string
	for _, t := range terms {
		upper := strings.ToUpper(t)
		if upper == "AND" || upper == "OR" || upper == "NOT" {
			continue
		}
		filtered = append(filtered, `"`+t+`"`+"*")
	}
	if len(filtered) == 0 {
		return ""
	}
	return strings.Join(filtered, " ")
}
