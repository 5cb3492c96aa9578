package crates

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const cacheEntry = "crates"

// Artifacts is the slice of the artifact store the builder needs.
type Artifacts interface {
	Lock(ctx context.Context) (func(), error)
	WriteCratesIndex(ctx context.Context, content []byte) error
	CheckCache(name string, digest string) bool
	WriteCache(ctx context.Context, name string, digest string) error
}

// Indexer receives the built crates; the sqlite index implements it.
type Indexer interface {
	IndexCrate(ctx context.Context, crate Crate) error
}

// Builder runs the full dump → artifact → index build.
type Builder struct {
	DumpDir   string
	MaxCrates int
	Force     bool
	Artifacts Artifacts
	Indexer   Indexer
	Logger    *slog.Logger
}

// Run builds the crates index from the dump CSVs unless the inputs are
// unchanged since the last build. The whole run holds the build lock.
func (b *Builder) Run(ctx context.Context) error {
	cratesPath := filepath.Join(b.DumpDir, "crates.csv")
	versionsPath := filepath.Join(b.DumpDir, "versions.csv")

	digest, err := digestFiles(cratesPath, versionsPath)
	if err != nil {
		return fmt.Errorf("digest dump: %w", err)
	}

	unlock, err := b.Artifacts.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if !b.Force && b.Artifacts.CheckCache(cacheEntry, digest) {
		if b.Logger != nil {
			b.Logger.Info("dump unchanged, skipping build", "digest", digest[:12])
		}
		return nil
	}

	all, err := readCratesFile(cratesPath)
	if err != nil {
		return err
	}
	versions, err := readVersionsFile(versionsPath)
	if err != nil {
		return err
	}
	if b.Logger != nil {
		b.Logger.Info("read dump", "crates", len(all), "versions", len(versions))
	}

	ix, err := Build(all, versions, BuildOptions{MaxCrates: b.MaxCrates})
	if err != nil {
		return err
	}

	js, err := ix.JavaScript()
	if err != nil {
		return err
	}
	if err := b.Artifacts.WriteCratesIndex(ctx, []byte(js)); err != nil {
		return fmt.Errorf("write crates index: %w", err)
	}

	if b.Indexer != nil {
		for _, c := range ix.Crates {
			if err := b.Indexer.IndexCrate(ctx, c); err != nil {
				return err
			}
		}
	}

	if err := b.Artifacts.WriteCache(ctx, cacheEntry, digest); err != nil {
		return fmt.Errorf("write build cache: %w", err)
	}
	if b.Logger != nil {
		b.Logger.Info("built crates index", "crates", len(ix.Crates), "artifact_bytes", len(js))
	}
	return nil
}

func readCratesFile(path string) ([]Crate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadCrates(f)
}

func readVersionsFile(path string) ([]CrateVersion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadVersions(f)
}

// digestFiles hashes the dump inputs so unchanged dumps can skip the
// build entirely.
func digestFiles(paths ...string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
