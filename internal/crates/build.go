package crates

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DefaultMaxCrates caps the index at the crates the extension can
// realistically hold in memory.
const DefaultMaxCrates = 20000

// ErrNoCrates reports a build with an empty crates dump.
var ErrNoCrates = errors.New("crates: no crates to index")

// BuildOptions controls the index build.
type BuildOptions struct {
	MaxCrates int
}

// Index is a built crates index: the retained crates with resolved
// versions, and the minifier that compressed their names and
// descriptions.
type Index struct {
	Crates   []Crate
	minifier *Minifier
}

// Build ranks crates by downloads, keeps the top MaxCrates, resolves
// each crate's latest version from the versions dump and prepares the
// word-frequency minifier.
func Build(all []Crate, versions []CrateVersion, opts BuildOptions) (*Index, error) {
	if len(all) == 0 {
		return nil, ErrNoCrates
	}
	max := opts.MaxCrates
	if max <= 0 {
		max = DefaultMaxCrates
	}

	kept := make([]Crate, len(all))
	copy(kept, all)
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Downloads != kept[j].Downloads {
			return kept[i].Downloads > kept[j].Downloads
		}
		return kept[i].Name < kept[j].Name
	})
	if len(kept) > max {
		kept = kept[:max]
	}

	latest := latestVersions(versions)

	var collector wordCollector
	for i := range kept {
		if num, ok := latest[kept[i].ID]; ok {
			kept[i].Version = num
		} else {
			kept[i].Version = "0.0.0"
		}
		if kept[i].Description != "" {
			collector.collectDescription(kept[i].Description)
		}
		collector.collectCrateID(kept[i].Name)
	}

	return &Index{
		Crates:   kept,
		minifier: NewMinifier(collector.words),
	}, nil
}

// latestVersions picks the highest semver per crate id. Versions that
// don't parse as semver (the dump has a few) are ignored.
func latestVersions(versions []CrateVersion) map[uint64]string {
	best := make(map[uint64]*semver.Version, len(versions))
	nums := make(map[uint64]string, len(versions))
	for _, v := range versions {
		parsed, err := semver.NewVersion(v.Num)
		if err != nil {
			continue
		}
		if current, ok := best[v.CrateID]; ok && !parsed.GreaterThan(current) {
			continue
		}
		best[v.CrateID] = parsed
		nums[v.CrateID] = v.Num
	}
	return nums
}

// Minifier exposes the build's word mapping, mainly for tests and the
// artifact writer.
func (ix *Index) Minifier() *Minifier {
	return ix.minifier
}

// JavaScript renders the artifact the extension loads at startup:
//
//	var mapping={...};var N=null;var crateIndex={...};
//
// crateIndex maps the minified crate name to [description, version],
// with N standing in for a missing description.
func (ix *Index) JavaScript() (string, error) {
	mappingJSON, err := json.Marshal(ix.minifier.Mapping())
	if err != nil {
		return "", fmt.Errorf("encode mapping: %w", err)
	}

	entries := make([]Crate, len(ix.Crates))
	copy(entries, ix.Crates)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var b strings.Builder
	b.WriteString("var mapping=")
	b.Write(mappingJSON)
	b.WriteString(";var N=null;var crateIndex={")
	for i, c := range entries {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(ix.minifier.MinifyCrateID(c.Name))
		if err != nil {
			return "", fmt.Errorf("encode crate %s: %w", c.Name, err)
		}
		b.Write(name)
		b.WriteString(":[")
		if c.Description == "" {
			b.WriteByte('N')
		} else {
			desc, err := json.Marshal(ix.minifier.Minify(capRunes(strings.TrimSpace(c.Description), 100)))
			if err != nil {
				return "", fmt.Errorf("encode crate %s: %w", c.Name, err)
			}
			b.Write(desc)
		}
		b.WriteByte(',')
		version, err := json.Marshal(c.Version)
		if err != nil {
			return "", fmt.Errorf("encode crate %s: %w", c.Name, err)
		}
		b.Write(version)
		b.WriteByte(']')
	}
	b.WriteString("};")
	return b.String(), nil
}
