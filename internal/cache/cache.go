// Package cache implements the filesystem-backed artifact cache. Presence of
// a stage's artifact at its fixed location is the sole completeness signal;
// there is no checksum, no TTL, and no staleness detection. That trade-off
// keeps iterative reruns cheap for a single-user batch tool.
package cache

import (
	"os"
	"path/filepath"
)

// Policy controls how artifact completeness is decided. Only existence
// checking is implemented today; the type exists so a stricter policy
// (content hashing) can be substituted without touching orchestration.
type Policy int

const (
	// CheckExistenceOnly treats a present file, or a non-empty directory,
	// as a complete artifact.
	CheckExistenceOnly Policy = iota
)

// Store answers presence queries for stage artifacts under a run's output
// directory. It is read-only: stages write their own artifacts.
type Store struct {
	root   string
	policy Policy
}

// New creates a Store rooted at the run's output directory.
func New(root string, policy Policy) *Store {
	return &Store{root: root, policy: policy}
}

// Root returns the output directory the store is rooted at.
func (s *Store) Root() string {
	return s.root
}

// Path resolves a relative artifact path against the store root.
func (s *Store) Path(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...)
}

// Exists reports whether the artifact at the given relative path is
// complete under the store's policy. A directory artifact counts only when
// it contains at least one entry, so an interrupted run that created the
// directory but wrote nothing does not mask the stage.
func (s *Store) Exists(rel string) bool {
	path := s.Path(rel)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// ExistsAll reports whether every listed artifact is complete. Stages with
// multiple declared outputs are cached only when all of them are present.
func (s *Store) ExistsAll(rels ...string) bool {
	for _, rel := range rels {
		if !s.Exists(rel) {
			return false
		}
	}
	return len(rels) > 0
}
