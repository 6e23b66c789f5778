package store

import (
	"fmt"
	"slices"

	"github.com/roach88/onvoc/internal/vocab"
)

// Side tells which tree holds an item the other tree lacks.
type Side int

const (
	// TermsOnly items appear in the terms tree but not in the vocabulary tree.
	TermsOnly Side = iota
	// VocabularyOnly items appear in the vocabulary tree but not in the terms tree.
	VocabularyOnly
)

func (s Side) String() string {
	if s == TermsOnly {
		return "terms tree only"
	}
	return "vocabulary tree only"
}

// Difference kinds.
const (
	KindCategory    = "category"
	KindSubcategory = "subcategory"
	KindTerm        = "term"
)

// Difference is one disagreement between the trees.
type Difference struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	Side Side   `json:"side"`
}

// String renders e.g. `term "Disorders/Neurological_Disorders/Tremor": terms tree only`.
func (d Difference) String() string {
	return fmt.Sprintf("%s %q: %s", d.Kind, d.Path, d.Side)
}

// diffTrees compares containers first, then the names of subcategories
// present on both sides. Output order is deterministic.
func diffTrees(t *TermsTree, v *VocabularyTree) []Difference {
	var diffs []Difference

	categories := make(map[string]bool)
	for c := range t.Categories {
		categories[c] = true
	}
	for c := range v.Categories {
		categories[c] = true
	}
	for _, c := range sortedKeys(categories) {
		switch {
		case !v.Categories[c]:
			diffs = append(diffs, Difference{Kind: KindCategory, Path: c, Side: TermsOnly})
		case !t.Categories[c]:
			diffs = append(diffs, Difference{Kind: KindCategory, Path: c, Side: VocabularyOnly})
		}
	}

	locations := make(map[vocab.Location]bool)
	for loc := range t.Lists {
		locations[loc] = true
	}
	for loc := range v.Files {
		locations[loc] = true
	}
	for _, loc := range sortedLocations(locations) {
		names, inTerms := t.Lists[loc]
		records, inVocabulary := v.Files[loc]

		switch {
		case !inVocabulary:
			diffs = append(diffs, Difference{Kind: KindSubcategory, Path: loc.String(), Side: TermsOnly})
			continue
		case !inTerms:
			diffs = append(diffs, Difference{Kind: KindSubcategory, Path: loc.String(), Side: VocabularyOnly})
			continue
		}

		recorded := make(map[string]bool, len(records))
		for _, rec := range records {
			recorded[rec.Name] = true
		}
		listed := make(map[string]bool, len(names))
		for _, name := range names {
			listed[name] = true
			if !recorded[name] {
				diffs = append(diffs, Difference{Kind: KindTerm, Path: loc.String() + "/" + name, Side: TermsOnly})
			}
		}
		for _, rec := range records {
			if !listed[rec.Name] {
				diffs = append(diffs, Difference{Kind: KindTerm, Path: loc.String() + "/" + rec.Name, Side: VocabularyOnly})
			}
		}
	}
	return diffs
}

func driftError(diffs []Difference) error {
	details := make([]string, len(diffs))
	for i, d := range diffs {
		details[i] = d.String()
	}
	return vocab.NewDrift(details)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// MarshalText renders the side as "terms_only" or "vocabulary_only".
func (s Side) MarshalText() ([]byte, error) {
	if s == TermsOnly {
		return []byte("terms_only"), nil
	}
	return []byte("vocabulary_only"), nil
}
