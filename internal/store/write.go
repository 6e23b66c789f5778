package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/onvoc/internal/vocab"
)

// Save persists every pending change and clears the pending set.
//
// Write order: new category directories, vocabulary files, the retired
// ledger, then terms files. An interrupted Save leaves the trees disagreeing,
// which the next Load reports as drift.
func (s *Store) Save() error {
	for _, category := range sortedKeys(s.newCategories) {
		for _, root := range []string{s.vocabularyRoot, s.termsRoot} {
			if err := os.MkdirAll(filepath.Join(root, category), 0o755); err != nil {
				return fmt.Errorf("create category %s: %w", category, err)
			}
		}
	}
	clear(s.newCategories)

	for _, loc := range sortedLocations(s.dirtyVocabulary) {
		data, err := encodeVocabularyFile(s.records(loc))
		if err != nil {
			return fmt.Errorf("encode %s: %w", loc, err)
		}
		if err := s.writeFile(vocabularyFile(s.vocabularyRoot, loc), data); err != nil {
			return err
		}
	}
	clear(s.dirtyVocabulary)

	if s.retiredDirty {
		data, err := encodeVocabularyFile(s.retired)
		if err != nil {
			return fmt.Errorf("encode retired ledger: %w", err)
		}
		if err := s.writeFile(filepath.Join(s.vocabularyRoot, vocab.RetiredFile), data); err != nil {
			return err
		}
		s.retiredDirty = false
	}

	for _, loc := range sortedLocations(s.dirtyTerms) {
		if err := s.writeFile(termsFile(s.termsRoot, loc), encodeTermsFile(s.names(loc))); err != nil {
			return err
		}
	}
	clear(s.dirtyTerms)

	return nil
}

func (s *Store) records(loc vocab.Location) []Record {
	sub := s.subcategories[loc]
	out := make([]Record, len(sub.entries))
	for i, e := range sub.entries {
		out[i] = Record{Name: e.name, ID: e.id, Comment: e.comment}
	}
	return out
}

func (s *Store) names(loc vocab.Location) []string {
	sub := s.subcategories[loc]
	out := make([]string, len(sub.entries))
	for i, e := range sub.entries {
		out[i] = e.name
	}
	return out
}

// writeFile replaces path with data unless it already holds exactly data.
func (s *Store) writeFile(path string, data []byte) error {
	current, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(current, data):
		s.logger.Debug("file unchanged", "path", path)
		return nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Debug("file written", "path", path, "bytes", len(data))
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".onvoc-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
