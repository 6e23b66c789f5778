package store

import (
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/onvoc/internal/vocab"
)

// Store is the merged in-memory model of a terms/vocabulary tree pair.
//
// Every live term has exactly one entry holding its name, identifier and
// comment; both trees are serialized from these entries. Mutations only
// touch memory and mark the affected subcategory dirty until Save.
//
// A Store assumes exclusive ownership of both roots for its lifetime and is
// not safe for concurrent use.
type Store struct {
	termsRoot      string
	vocabularyRoot string
	scheme         vocab.IDScheme
	logger         *slog.Logger

	categories    map[string]bool
	subcategories map[vocab.Location]*subcategory
	retired       []Record
	indexIDs      []int64

	// Dirty subcategories, tracked per tree so a change to one side never
	// rewrites the other.
	dirtyTerms      map[vocab.Location]bool
	dirtyVocabulary map[vocab.Location]bool
	retiredDirty    bool

	// Categories whose directories Save must create.
	newCategories map[string]bool
}

// subcategory holds entries in terms-tree order.
type subcategory struct {
	entries []*entry
}

type entry struct {
	name    string
	id      string
	comment string
}

// Option configures Load.
type Option func(*options)

type options struct {
	scheme vocab.IDScheme
	logger *slog.Logger
}

// WithScheme sets the identifier scheme. Default: vocab.DefaultIDScheme.
func WithScheme(scheme vocab.IDScheme) Option {
	return func(o *options) {
		o.scheme = scheme
	}
}

// WithLogger sets the logger used for load and write diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{
		scheme: vocab.DefaultIDScheme,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load reads both trees and merges them. It fails with vocab.CodeDrift
// when the trees disagree on categories, subcategories or terms.
func Load(termsRoot, vocabularyRoot string, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	if err := o.scheme.Validate(); err != nil {
		return nil, err
	}

	scan, err := ReadTrees(termsRoot, vocabularyRoot, o.scheme)
	if err != nil {
		return nil, err
	}
	if diffs := scan.Differences(); len(diffs) > 0 {
		return nil, driftError(diffs)
	}

	s := newStore(scan, o)
	o.logger.Debug("trees loaded",
		"terms_root", termsRoot,
		"vocabulary_root", vocabularyRoot,
		"subcategories", len(s.subcategories),
		"terms", s.Len(),
	)
	return s, nil
}

// newStore merges a scan whose trees may still differ. Terms listed only in
// the terms tree get entries without identifiers; callers must assign them.
func newStore(scan *Scan, o options) *Store {
	s := &Store{
		termsRoot:      scan.Terms.Root,
		vocabularyRoot: scan.Vocabulary.Root,
		scheme:         o.scheme,
		logger:         o.logger,
		categories:     make(map[string]bool),
		subcategories:  make(map[vocab.Location]*subcategory),
		retired:        slices.Clone(scan.Vocabulary.Retired),
		indexIDs:       slices.Clone(scan.Vocabulary.IndexIDs),
		dirtyTerms:      make(map[vocab.Location]bool),
		dirtyVocabulary: make(map[vocab.Location]bool),
		newCategories:   make(map[string]bool),
	}
	for c := range scan.Terms.Categories {
		s.categories[c] = true
	}

	for loc, names := range scan.Terms.Lists {
		byName := make(map[string]Record)
		for _, rec := range scan.Vocabulary.Files[loc] {
			byName[rec.Name] = rec
		}
		sub := &subcategory{entries: make([]*entry, 0, len(names))}
		for _, name := range names {
			rec := byName[name]
			sub.entries = append(sub.entries, &entry{name: name, id: rec.ID, comment: rec.Comment})
		}
		s.subcategories[loc] = sub
	}
	return s
}

// Scheme returns the identifier scheme of the vocabulary.
func (s *Store) Scheme() vocab.IDScheme {
	return s.scheme
}

// Len returns the number of live terms.
func (s *Store) Len() int {
	n := 0
	for _, sub := range s.subcategories {
		n += len(sub.entries)
	}
	return n
}

// Categories returns every category, including ones without subcategories.
func (s *Store) Categories() []string {
	return sortedKeys(s.categories)
}

// Locations returns every subcategory, including empty ones.
func (s *Store) Locations() []vocab.Location {
	return sortedLocations(s.subcategories)
}

// Lookup returns the live term at p.
func (s *Store) Lookup(p vocab.Path) (vocab.Term, bool) {
	_, e := s.find(p)
	if e == nil {
		return vocab.Term{}, false
	}
	return vocab.Term{Path: p, ID: e.id, Comment: e.comment}, true
}

// Terms returns the live terms of one subcategory in file order.
func (s *Store) Terms(loc vocab.Location) []vocab.Term {
	sub, ok := s.subcategories[loc]
	if !ok {
		return nil
	}
	out := make([]vocab.Term, len(sub.entries))
	for i, e := range sub.entries {
		out[i] = vocab.Term{
			Path:    vocab.Path{Location: loc, Name: e.name},
			ID:      e.id,
			Comment: e.comment,
		}
	}
	return out
}

// Retired returns the retired identifier records.
func (s *Store) Retired() []Record {
	return slices.Clone(s.retired)
}

// IssuedNumbers returns the number of every identifier ever issued: live,
// retired, and those listed in legacy index files.
func (s *Store) IssuedNumbers() []int64 {
	var out []int64
	for _, sub := range s.subcategories {
		for _, e := range sub.entries {
			if n, err := s.scheme.Parse(e.id); err == nil {
				out = append(out, n)
			}
		}
	}
	for _, rec := range s.retired {
		if n, err := s.scheme.Parse(rec.ID); err == nil {
			out = append(out, n)
		}
	}
	return append(out, s.indexIDs...)
}

// EnsureLocation creates an empty subcategory, and its category, if absent.
func (s *Store) EnsureLocation(loc vocab.Location) {
	if _, ok := s.subcategories[loc]; ok {
		return
	}
	if !s.categories[loc.Category] {
		s.categories[loc.Category] = true
		s.newCategories[loc.Category] = true
	}
	s.subcategories[loc] = &subcategory{}
	s.markDirty(loc)
}

// Insert appends a term to its subcategory, creating the subcategory if
// needed. The caller guarantees p is not taken.
func (s *Store) Insert(t vocab.Term) {
	s.EnsureLocation(t.Path.Location)
	sub := s.subcategories[t.Path.Location]
	sub.entries = append(sub.entries, &entry{name: t.Path.Name, id: t.ID, comment: t.Comment})
	s.markDirty(t.Path.Location)
}

// Delete removes the term at p and returns it. The subcategory is kept even
// when it becomes empty.
func (s *Store) Delete(p vocab.Path) (vocab.Term, bool) {
	sub, e := s.find(p)
	if e == nil {
		return vocab.Term{}, false
	}
	sub.entries = slices.DeleteFunc(sub.entries, func(x *entry) bool { return x == e })
	s.markDirty(p.Location)
	return vocab.Term{Path: p, ID: e.id, Comment: e.comment}, true
}

// Relocate moves the entry at from to to, keeping its identifier and
// comment. A rename inside one subcategory keeps the entry's position; a
// move to another subcategory appends it there. The caller guarantees
// from exists and to is free.
func (s *Store) Relocate(from, to vocab.Path) (vocab.Term, bool) {
	_, e := s.find(from)
	if e == nil {
		return vocab.Term{}, false
	}
	if from.Location == to.Location {
		e.name = to.Name
		s.markDirty(from.Location)
		return vocab.Term{Path: to, ID: e.id, Comment: e.comment}, true
	}

	t, _ := s.Delete(from)
	t.Path = to
	s.Insert(t)
	return t, true
}

// Retire records that an identifier left the vocabulary.
func (s *Store) Retire(t vocab.Term) {
	s.retired = append(s.retired, Record{Name: t.Path.String(), ID: t.ID, Comment: t.Comment})
	s.retiredDirty = true
}

// Pending returns the subcategories that Save would write in either tree.
func (s *Store) Pending() []vocab.Location {
	all := make(map[vocab.Location]bool)
	for loc := range s.dirtyTerms {
		all[loc] = true
	}
	for loc := range s.dirtyVocabulary {
		all[loc] = true
	}
	return sortedLocations(all)
}

func (s *Store) markDirty(loc vocab.Location) {
	s.dirtyTerms[loc] = true
	s.dirtyVocabulary[loc] = true
}

func (s *Store) find(p vocab.Path) (*subcategory, *entry) {
	sub, ok := s.subcategories[p.Location]
	if !ok {
		return nil, nil
	}
	for _, e := range sub.entries {
		if e.name == p.Name {
			return sub, e
		}
	}
	return sub, nil
}
