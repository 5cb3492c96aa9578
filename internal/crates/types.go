// Package crates builds the extension's crates index from crates.io
// database dump CSVs: the top crates by downloads, each with its latest
// version and a minified description.
package crates

// Crate is one row of crates.csv, plus the latest version resolved from
// versions.csv during the build.
type Crate struct {
	ID          uint64
	Name        string
	Downloads   uint64
	Description string
	Version     string
}

// CrateVersion is one row of versions.csv.
type CrateVersion struct {
	CrateID uint64
	Num     string
}
