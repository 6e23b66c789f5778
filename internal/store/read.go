package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/onvoc/internal/vocab"
)

// TermsTree is the raw content of the terms tree.
type TermsTree struct {
	Root string

	// Categories holds every category directory, including empty ones.
	Categories map[string]bool

	// Lists maps each subcategory file to its names in file order.
	Lists map[vocab.Location][]string
}

// VocabularyTree is the raw content of the vocabulary tree.
type VocabularyTree struct {
	Root   string
	Scheme vocab.IDScheme

	Categories map[string]bool
	Files      map[vocab.Location][]Record

	// Retired holds identifiers removed from the vocabulary; Name is the
	// full path the identifier was retired from.
	Retired []Record

	// IndexIDs are identifiers found in legacy index files.
	IndexIDs []int64
}

// Scan is both trees read from disk, before any agreement check.
type Scan struct {
	Terms      *TermsTree
	Vocabulary *VocabularyTree
}

// ReadTrees reads both trees. Structural errors are reported as
// vocab.CodeMalformedFile; drift is not checked here.
func ReadTrees(termsRoot, vocabularyRoot string, scheme vocab.IDScheme) (*Scan, error) {
	terms, err := ReadTerms(termsRoot)
	if err != nil {
		return nil, err
	}
	voc, err := ReadVocabulary(vocabularyRoot, scheme)
	if err != nil {
		return nil, err
	}
	return &Scan{Terms: terms, Vocabulary: voc}, nil
}

// Differences lists every disagreement between the two trees.
func (s *Scan) Differences() []Difference {
	return diffTrees(s.Terms, s.Vocabulary)
}

// IssuedNumbers returns every identifier number ever issued.
func (s *Scan) IssuedNumbers() []int64 {
	return s.Vocabulary.IssuedNumbers()
}

// ReadTerms reads the terms tree rooted at root.
func ReadTerms(root string) (*TermsTree, error) {
	t := &TermsTree{
		Root:       root,
		Categories: make(map[string]bool),
		Lists:      make(map[vocab.Location][]string),
	}

	categories, err := listDirs(root)
	if err != nil {
		return nil, fmt.Errorf("read terms tree: %w", err)
	}
	for _, category := range categories {
		t.Categories[category] = true

		files, err := listFiles(filepath.Join(root, category), vocab.TermsExt)
		if err != nil {
			return nil, fmt.Errorf("read terms tree: %w", err)
		}
		for _, name := range files {
			loc := vocab.Location{Category: category, Subcategory: strings.TrimSuffix(name, vocab.TermsExt)}
			file := filepath.Join(root, category, name)

			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read terms tree: %w", err)
			}
			names, err := decodeTermsFile(file, data)
			if err != nil {
				return nil, err
			}
			t.Lists[loc] = names
		}
	}
	return t, nil
}

// ReadVocabulary reads the vocabulary tree rooted at root and validates
// every identifier against scheme. Identifiers must be unique across live
// and retired records.
func ReadVocabulary(root string, scheme vocab.IDScheme) (*VocabularyTree, error) {
	v := &VocabularyTree{
		Root:       root,
		Scheme:     scheme,
		Categories: make(map[string]bool),
		Files:      make(map[vocab.Location][]Record),
	}

	rootFiles, err := listFiles(root, vocab.VocabularyExt)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary tree: %w", err)
	}
	for _, name := range rootFiles {
		file := filepath.Join(root, name)
		switch name {
		case vocab.RetiredFile:
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read vocabulary tree: %w", err)
			}
			if v.Retired, err = decodeRetiredFile(file, data); err != nil {
				return nil, err
			}
		case vocab.CategoriesIndexFile:
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read vocabulary tree: %w", err)
			}
			v.IndexIDs = append(v.IndexIDs, decodeIndexIDs(data, scheme)...)
		}
	}

	categories, err := listDirs(root)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary tree: %w", err)
	}
	for _, category := range categories {
		v.Categories[category] = true

		files, err := listFiles(filepath.Join(root, category), vocab.VocabularyExt)
		if err != nil {
			return nil, fmt.Errorf("read vocabulary tree: %w", err)
		}
		for _, name := range files {
			file := filepath.Join(root, category, name)
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read vocabulary tree: %w", err)
			}
			if name == vocab.SubcategoriesIndexFile {
				v.IndexIDs = append(v.IndexIDs, decodeIndexIDs(data, scheme)...)
				continue
			}

			records, err := decodeVocabularyFile(file, data)
			if err != nil {
				return nil, err
			}
			loc := vocab.Location{Category: category, Subcategory: strings.TrimSuffix(name, vocab.VocabularyExt)}
			v.Files[loc] = records
		}
	}

	if err := v.validateIDs(); err != nil {
		return nil, err
	}
	return v, nil
}

// IssuedNumbers returns the numbers of live, retired and index identifiers.
func (v *VocabularyTree) IssuedNumbers() []int64 {
	var out []int64
	for _, records := range v.Files {
		for _, rec := range records {
			if n, err := v.Scheme.Parse(rec.ID); err == nil {
				out = append(out, n)
			}
		}
	}
	for _, rec := range v.Retired {
		if n, err := v.Scheme.Parse(rec.ID); err == nil {
			out = append(out, n)
		}
	}
	return append(out, v.IndexIDs...)
}

// Locations returns the subcategories of the tree in sorted order.
func (v *VocabularyTree) Locations() []vocab.Location {
	return sortedLocations(v.Files)
}

// Locations returns the subcategories of the tree in sorted order.
func (t *TermsTree) Locations() []vocab.Location {
	return sortedLocations(t.Lists)
}

func (v *VocabularyTree) validateIDs() error {
	owner := make(map[int64]string)

	check := func(file, owned string, rec Record) error {
		n, err := v.Scheme.Parse(rec.ID)
		if err != nil {
			return vocab.NewMalformedFile(file, rec.Line, "%v", err)
		}
		if prev, dup := owner[n]; dup {
			return vocab.NewMalformedFile(file, rec.Line, "vocabulary_id %s already assigned to %s", rec.ID, prev)
		}
		owner[n] = owned
		return nil
	}

	for _, loc := range v.Locations() {
		file := vocabularyFile(v.Root, loc)
		for _, rec := range v.Files[loc] {
			if err := check(file, loc.String()+"/"+rec.Name, rec); err != nil {
				return err
			}
		}
	}
	retired := filepath.Join(v.Root, vocab.RetiredFile)
	for _, rec := range v.Retired {
		if err := check(retired, rec.Name+" (retired)", rec); err != nil {
			return err
		}
	}
	return nil
}

func termsFile(root string, loc vocab.Location) string {
	return filepath.Join(root, loc.Category, loc.Subcategory+vocab.TermsExt)
}

func vocabularyFile(root string, loc vocab.Location) string {
	return filepath.Join(root, loc.Category, loc.Subcategory+vocab.VocabularyExt)
}

// listDirs returns the visible subdirectories of dir, sorted.
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// listFiles returns the visible regular files of dir with extension ext, sorted.
func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || filepath.Ext(e.Name()) != ext {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

func sortedLocations[T any](m map[vocab.Location]T) []vocab.Location {
	locs := make([]vocab.Location, 0, len(m))
	for loc := range m {
		locs = append(locs, loc)
	}
	slices.SortFunc(locs, compareLocations)
	return locs
}

func compareLocations(a, b vocab.Location) int {
	if c := strings.Compare(a.Category, b.Category); c != 0 {
		return c
	}
	return strings.Compare(a.Subcategory, b.Subcategory)
}
