package crates

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ReadCrates parses a crates.io dump crates.csv. The dump carries many
// more columns than needed; they are located by header name so column
// order changes in the dump don't break the build.
func ReadCrates(r io.Reader) ([]Crate, error) {
	reader := newDumpReader(r)
	cols, err := headerIndex(reader, "id", "name", "downloads", "description")
	if err != nil {
		return nil, fmt.Errorf("crates.csv: %w", err)
	}

	var out []Crate
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("crates.csv line %d: %w", line, err)
		}
		if short(record, cols) {
			continue
		}

		id, err := strconv.ParseUint(record[cols["id"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("crates.csv line %d: bad id: %w", line, err)
		}
		downloads, err := strconv.ParseUint(record[cols["downloads"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("crates.csv line %d: bad downloads: %w", line, err)
		}

		out = append(out, Crate{
			ID:          id,
			Name:        record[cols["name"]],
			Downloads:   downloads,
			Description: record[cols["description"]],
		})
	}
	return out, nil
}

// ReadVersions parses a crates.io dump versions.csv.
func ReadVersions(r io.Reader) ([]CrateVersion, error) {
	reader := newDumpReader(r)
	cols, err := headerIndex(reader, "crate_id", "num")
	if err != nil {
		return nil, fmt.Errorf("versions.csv: %w", err)
	}

	var out []CrateVersion
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("versions.csv line %d: %w", line, err)
		}
		if short(record, cols) {
			continue
		}

		crateID, err := strconv.ParseUint(record[cols["crate_id"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("versions.csv line %d: bad crate_id: %w", line, err)
		}

		out = append(out, CrateVersion{
			CrateID: crateID,
			Num:     record[cols["num"]],
		})
	}
	return out, nil
}

// short reports a record too narrow to hold every needed column.
func short(record []string, cols map[string]int) bool {
	for _, idx := range cols {
		if idx >= len(record) {
			return true
		}
	}
	return false
}

func newDumpReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	// Dump descriptions contain embedded newlines and stray quotes.
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

func headerIndex(reader *csv.Reader, names ...string) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	byName := make(map[string]int, len(header))
	for i, field := range header {
		byName[field] = i
	}

	cols := make(map[string]int, len(names))
	for _, name := range names {
		idx, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[name] = idx
	}
	return cols, nil
}
