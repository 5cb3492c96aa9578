package crates

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeArtifacts struct {
	locked int
	writes [][]byte
	cache  map[string]string
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{cache: map[string]string{}}
}

func (f *fakeArtifacts) Lock(context.Context) (func(), error) {
	f.locked++
	return func() {}, nil
}

func (f *fakeArtifacts) WriteCratesIndex(_ context.Context, content []byte) error {
	f.writes = append(f.writes, content)
	return nil
}

func (f *fakeArtifacts) CheckCache(name string, digest string) bool {
	return f.cache[name] == digest
}

func (f *fakeArtifacts) WriteCache(_ context.Context, name string, digest string) error {
	f.cache[name] = digest
	return nil
}

type collectingIndexer struct {
	crates []Crate
}

func (c *collectingIndexer) IndexCrate(_ context.Context, crate Crate) error {
	c.crates = append(c.crates, crate)
	return nil
}

func writeDump(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cratesCSV := `id,name,downloads,description
1,serde,150000,Serialization framework
2,rand,90000,Random number generators
`
	versionsCSV := `crate_id,num
1,1.0.203
2,0.8.5
`
	if err := os.WriteFile(filepath.Join(dir, "crates.csv"), []byte(cratesCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "versions.csv"), []byte(versionsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestBuilderRun(t *testing.T) {
	artifacts := newFakeArtifacts()
	indexer := &collectingIndexer{}
	b := &Builder{
		DumpDir:   writeDump(t),
		Artifacts: artifacts,
		Indexer:   indexer,
	}

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(artifacts.writes) != 1 {
		t.Fatalf("expected 1 artifact write, got %d", len(artifacts.writes))
	}
	if !strings.HasPrefix(string(artifacts.writes[0]), "var mapping=") {
		t.Errorf("unexpected artifact prelude: %.40s", artifacts.writes[0])
	}
	if len(indexer.crates) != 2 {
		t.Fatalf("expected 2 indexed crates, got %d", len(indexer.crates))
	}
	if indexer.crates[0].Name != "serde" || indexer.crates[0].Version != "1.0.203" {
		t.Errorf("unexpected first indexed crate: %+v", indexer.crates[0])
	}
	if artifacts.locked != 1 {
		t.Errorf("expected 1 lock acquisition, got %d", artifacts.locked)
	}
}

func TestBuilderSkipsUnchangedDump(t *testing.T) {
	artifacts := newFakeArtifacts()
	b := &Builder{DumpDir: writeDump(t), Artifacts: artifacts}

	if err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(artifacts.writes) != 1 {
		t.Fatalf("expected the second run to hit the cache, got %d writes", len(artifacts.writes))
	}
}

func TestBuilderForceRebuild(t *testing.T) {
	artifacts := newFakeArtifacts()
	b := &Builder{DumpDir: writeDump(t), Artifacts: artifacts}

	if err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	b.Force = true
	if err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(artifacts.writes) != 2 {
		t.Fatalf("expected force to rebuild, got %d writes", len(artifacts.writes))
	}
}

func TestBuilderMissingDump(t *testing.T) {
	b := &Builder{DumpDir: t.TempDir(), Artifacts: newFakeArtifacts()}
	if err := b.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing dump files")
	}
}
