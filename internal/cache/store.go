// Package cache stores compiled script artifacts keyed by content digest.
//
// The store is deliberately simple: an artifact lives at
// <root>/<baseName>.<digest>.jar and its existence on disk is the sole cache
// hit signal. There is no TTL and no eviction; invalidation is the explicit
// Clear operation. All writes go through a staging path and an atomic rename
// so a concurrent reader never observes a partially written artifact.
//
// Alongside the artifacts, a BoltDB journal records build metadata and the
// dependency resolver's classpath cache. The journal is never consulted for
// hit/miss decisions.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	artifactExt = ".jar"
	journalName = "journal.db"
	stagingExt  = ".tmp"
)

// Store manages the cache directory. Construct one per cache root; the root
// is injectable so tests get isolated fixtures.
type Store struct {
	root    string
	journal *Journal
}

// New creates a store rooted at root, creating the directory and opening the
// journal as needed.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	journal, err := OpenJournal(filepath.Join(root, journalName))
	if err != nil {
		return nil, err
	}

	return &Store{root: root, journal: journal}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.journal.Close()
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Journal returns the build journal.
func (s *Store) Journal() *Journal {
	return s.journal
}

// ArtifactPath returns the deterministic artifact path for a cache key.
func (s *Store) ArtifactPath(baseName, digest string) string {
	return filepath.Join(s.root, baseName+"."+digest+artifactExt)
}

// NewStagingPath creates a fresh staging file for an artifact and returns
// its path. Every call yields a distinct path, so concurrent builds of the
// same key each write to a private file and never observe one another's
// partial output; the Commit rename decides which one becomes the artifact.
func (s *Store) NewStagingPath(baseName, digest string) (string, error) {
	f, err := os.CreateTemp(s.root, baseName+"."+digest+".*"+stagingExt)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close staging file: %w", err)
	}

	return f.Name(), nil
}

// Lookup reports a cache hit iff a file exists at the artifact path. No
// content verification happens beyond existence.
func (s *Store) Lookup(baseName, digest string) (string, bool) {
	path := s.ArtifactPath(baseName, digest)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}

	return path, true
}

// Commit atomically renames a staged artifact into its final path. The
// rename is the commit point; on failure the staged file is removed.
func (s *Store) Commit(staged, final string) error {
	if err := os.Rename(staged, final); err != nil {
		os.Remove(staged)
		return fmt.Errorf("failed to commit artifact: %w", err)
	}

	return nil
}

// Clear deletes everything in the cache root: artifacts, materialized
// scriptlets, cached URL fetches and the journal. The journal is reopened
// empty afterwards.
func (s *Store) Clear() error {
	if err := s.journal.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}

	journal, err := OpenJournal(filepath.Join(s.root, journalName))
	if err != nil {
		return err
	}

	s.journal = journal

	return nil
}

// Stats returns the number of recorded builds and the total size of cached
// artifacts on disk.
func (s *Store) Stats() (int, int64, error) {
	count, err := s.journal.BuildCount()
	if err != nil {
		return 0, 0, err
	}

	var totalSize int64
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != artifactExt {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		totalSize += info.Size()
	}

	return count, totalSize, nil
}
