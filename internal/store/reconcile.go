package store

import (
	"github.com/roach88/onvoc/internal/vocab"
)

// Reconcile merges a scan in which the vocabulary tree may lack terms,
// subcategories or categories present in the terms tree. Each missing term
// gets an identifier from assign, in sorted location order and file order
// within a subcategory. Only vocabulary files are marked for writing.
//
// Anything present only in the vocabulary tree cannot be reconciled this way
// and fails with vocab.CodeDrift; the scan is left untouched.
func Reconcile(scan *Scan, assign func() (string, error), opts ...Option) (*Store, []vocab.Term, error) {
	o := buildOptions(opts)
	if err := o.scheme.Validate(); err != nil {
		return nil, nil, err
	}

	var blocking []Difference
	for _, d := range scan.Differences() {
		if d.Side == VocabularyOnly {
			blocking = append(blocking, d)
		}
	}
	if len(blocking) > 0 {
		return nil, nil, driftError(blocking)
	}

	s := newStore(scan, o)
	for category := range s.categories {
		if !scan.Vocabulary.Categories[category] {
			s.newCategories[category] = true
		}
	}

	var added []vocab.Term
	for _, loc := range s.Locations() {
		if _, ok := scan.Vocabulary.Files[loc]; !ok {
			s.dirtyVocabulary[loc] = true
		}
		for _, e := range s.subcategories[loc].entries {
			if e.id != "" {
				continue
			}
			id, err := assign()
			if err != nil {
				return nil, nil, err
			}
			e.id = id
			s.dirtyVocabulary[loc] = true
			added = append(added, vocab.Term{Path: vocab.Path{Location: loc, Name: e.name}, ID: id})
		}
	}
	return s, added, nil
}
