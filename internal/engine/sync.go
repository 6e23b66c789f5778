package engine

import (
	"fmt"
	"os"

	"github.com/roach88/onvoc/internal/store"
)

// SyncResult lists the terms that received identifiers.
type SyncResult struct {
	Added []Change `json:"added"`
}

// Sync assigns identifiers to terms listed in the terms tree but missing
// from the vocabulary tree, creating vocabulary containers as needed. An
// absent vocabulary root is created, so Sync also initializes a new
// vocabulary. Anything present only in the vocabulary tree fails with
// vocab.CodeDrift before any write.
func Sync(termsRoot, vocabularyRoot string, opts ...Option) (*SyncResult, error) {
	c := buildConfig(opts)
	if err := c.scheme.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(vocabularyRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create vocabulary root: %w", err)
	}

	scan, err := store.ReadTrees(termsRoot, vocabularyRoot, c.scheme)
	if err != nil {
		return nil, err
	}

	alloc := NewAllocator(scan, c.scheme)
	s, added, err := store.Reconcile(scan, alloc.Next, c.storeOptions()...)
	if err != nil {
		return nil, err
	}
	if err := s.Save(); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	result := &SyncResult{Added: make([]Change, 0, len(added))}
	for _, term := range added {
		c.logger.Info("term synchronized", "path", term.Path.String(), "vocabulary_id", term.ID)
		result.Added = append(result.Added, Change{Op: OpSync, Term: term})
	}
	return result, nil
}
