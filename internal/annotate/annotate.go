// Package annotate tags plain term lists with vocabulary identifiers.
//
// Each selected input file holds one term per line. A sibling file with the
// same stem and a .tsv extension is written with the columns term and
// vocabulary_id; the identifier is blank when no vocabulary term matches the
// line exactly (after NFC normalization).
package annotate

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/onvoc/internal/store"
	"github.com/roach88/onvoc/internal/vocab"
)

// DefaultPattern selects every .txt file below a folder.
const DefaultPattern = "**/*.txt"

// Index maps term names to identifiers.
type Index struct {
	ids  map[string]string
	uses map[string][]string
}

// NewIndex indexes the vocabulary tree. When a name is used by several
// terms, the first in sorted location order wins.
func NewIndex(v *store.VocabularyTree) *Index {
	ix := &Index{ids: make(map[string]string), uses: make(map[string][]string)}
	for _, loc := range v.Locations() {
		for _, rec := range v.Files[loc] {
			if _, ok := ix.ids[rec.Name]; !ok {
				ix.ids[rec.Name] = rec.ID
			}
			ix.uses[rec.Name] = append(ix.uses[rec.Name], vocab.Path{Location: loc, Name: rec.Name}.String())
		}
	}
	return ix
}

// Lookup returns the identifier for name.
func (ix *Index) Lookup(name string) (string, bool) {
	id, ok := ix.ids[vocab.NormalizeName(name)]
	return id, ok
}

// Ambiguous returns every path using name when there is more than one.
func (ix *Index) Ambiguous(name string) []string {
	uses := ix.uses[vocab.NormalizeName(name)]
	if len(uses) < 2 {
		return nil
	}
	return uses
}

// Len returns the number of distinct names.
func (ix *Index) Len() int {
	return len(ix.ids)
}

// FileResult summarizes one annotated file.
type FileResult struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Terms   int    `json:"terms"`
	Matched int    `json:"matched"`
}

// Annotator writes annotation files.
type Annotator struct {
	index   *Index
	pattern string
	logger  *slog.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithPattern sets the doublestar pattern selecting input files, relative to
// each folder. Default: DefaultPattern.
func WithPattern(pattern string) Option {
	return func(a *Annotator) {
		a.pattern = pattern
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Annotator) {
		a.logger = logger
	}
}

// New creates an Annotator over index.
func New(index *Index, opts ...Option) (*Annotator, error) {
	a := &Annotator{
		index:   index,
		pattern: DefaultPattern,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	if !doublestar.ValidatePattern(a.pattern) {
		return nil, fmt.Errorf("invalid pattern %q", a.pattern)
	}
	return a, nil
}

// AnnotateFolder annotates every file under folder matching the pattern, in
// sorted order. Files that already have the .tsv extension are never inputs.
func (a *Annotator) AnnotateFolder(folder string) ([]FileResult, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("annotate %s: not a directory", folder)
	}

	matches, err := doublestar.Glob(os.DirFS(folder), a.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", folder, err)
	}
	slices.Sort(matches)

	results := []FileResult{}
	for _, rel := range matches {
		if strings.EqualFold(filepath.Ext(rel), vocab.VocabularyExt) {
			continue
		}
		res, err := a.AnnotateFile(filepath.Join(folder, filepath.FromSlash(rel)))
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// AnnotateFile annotates one file and returns where the result was written.
func (a *Annotator) AnnotateFile(path string) (FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("read %s: %w", path, err)
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + vocab.VocabularyExt
	res := FileResult{Input: path, Output: out}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	if err := w.Write([]string{"term", "vocabulary_id"}); err != nil {
		return FileResult{}, err
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		term := vocab.NormalizeName(sc.Text())
		if term == "" {
			continue
		}
		res.Terms++
		id, ok := a.index.Lookup(term)
		if ok {
			res.Matched++
			if uses := a.index.Ambiguous(term); uses != nil {
				a.logger.Warn("ambiguous term, using first match",
					"file", path, "term", term, "vocabulary_id", id, "candidates", strings.Join(uses, ", "))
			}
		}
		if err := w.Write([]string{term, id}); err != nil {
			return FileResult{}, err
		}
	}
	if err := sc.Err(); err != nil {
		return FileResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return FileResult{}, fmt.Errorf("encode %s: %w", out, err)
	}

	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return FileResult{}, fmt.Errorf("write %s: %w", out, err)
	}
	a.logger.Info("file annotated", "input", path, "output", out, "terms", res.Terms, "matched", res.Matched)
	return res, nil
}
