// Package storage keeps generated artifacts on disk: the crates index
// JavaScript, the last relayed nightly payload, and the build cache
// that lets unchanged dumps skip a rebuild.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	cratesArtifactName = "crates.js"
	nightlyName        = "nightly.json"
	lockName           = ".build.lock"
	cacheDirName       = ".cache"
)

type Store struct {
	Root string
}

func New(root string) *Store {
	return &Store{Root: root}
}

// Lock takes the directory build lock, blocking until it is free. The
// returned func releases it. Concurrent builds against the same Root
// would otherwise interleave artifact and cache writes.
func (s *Store) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	fl := flock.New(filepath.Join(s.Root, lockName))
	locked, err := fl.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("build lock held by another process")
	}
	return func() { _ = fl.Unlock() }, nil
}

// WriteCratesIndex stores the generated crates index artifact.
func (s *Store) WriteCratesIndex(_ context.Context, content []byte) error {
	return s.writeFile(filepath.Join(s.Root, cratesArtifactName), content)
}

func (s *Store) CratesIndexPath() string {
	return filepath.Join(s.Root, cratesArtifactName)
}

// WriteNightly stores the last relayed message for the API server.
func (s *Store) WriteNightly(_ context.Context, payload []byte) error {
	return s.writeFile(filepath.Join(s.Root, nightlyName), payload)
}

// ReadNightly returns the last relayed message, or os.ErrNotExist when
// no relay has run yet.
func (s *Store) ReadNightly() ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Root, nightlyName))
}

// CheckCache reports whether name was last built from inputs with the
// given digest.
func (s *Store) CheckCache(name string, digest string) bool {
	data, err := os.ReadFile(filepath.Join(s.Root, cacheDirName, name))
	return err == nil && string(data) == digest
}

// WriteCache records the input digest a build of name consumed.
func (s *Store) WriteCache(_ context.Context, name string, digest string) error {
	if name == "" {
		return fmt.Errorf("cache name required")
	}
	return s.writeFile(filepath.Join(s.Root, cacheDirName, name), []byte(digest))
}

// writeFile removes any existing file or symlink first so the write
// does not follow a stale symlink.
func (s *Store) writeFile(fullPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
