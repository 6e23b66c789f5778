package check

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/onvoc/internal/store"
	"github.com/roach88/onvoc/internal/vocab"
)

// Severity ranks findings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Kind names the check that produced a finding.
type Kind string

const (
	KindDrift     Kind = "drift"
	KindMalformed Kind = "malformed"
	KindNaming    Kind = "naming"
	KindShadowing Kind = "shadowing"
	KindHomonym   Kind = "homonym"
	KindMapping   Kind = "mapping"
)

// Finding is one reported problem.
type Finding struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path,omitempty"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

// String formats the finding for text output.
func (f Finding) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", f.Severity, f.Kind)
	switch {
	case f.Path != "":
		fmt.Fprintf(&b, " %s", f.Path)
	case f.File != "" && f.Line > 0:
		fmt.Fprintf(&b, " %s:%d", f.File, f.Line)
	case f.File != "":
		fmt.Fprintf(&b, " %s", f.File)
	}
	fmt.Fprintf(&b, ": %s", f.Message)
	return b.String()
}

// Report holds every finding in a stable order.
type Report struct {
	Findings []Finding `json:"findings"`
}

// Count returns the number of findings with severity s.
func (r *Report) Count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any finding has error severity.
func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Option configures Run.
type Option func(*options)

type options struct {
	mappingsDir string
}

// WithMappings also checks the mapping files below dir.
func WithMappings(dir string) Option {
	return func(o *options) {
		o.mappingsDir = dir
	}
}

// Run checks the tree pair. The returned error is fatal (unreadable roots
// or mappings directory); malformed files are reported as findings.
func Run(termsRoot, vocabularyRoot string, scheme vocab.IDScheme, opts ...Option) (*Report, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r := &Report{Findings: []Finding{}}

	scan, err := store.ReadTrees(termsRoot, vocabularyRoot, scheme)
	if err != nil {
		var verr *vocab.Error
		if errors.As(err, &verr) {
			r.Findings = append(r.Findings, Finding{
				Kind:     KindMalformed,
				Severity: SeverityError,
				File:     verr.File,
				Line:     verr.Line,
				Message:  verr.Message,
			})
			return r, nil
		}
		return nil, err
	}

	r.Findings = append(r.Findings, Drift(scan)...)
	r.Findings = append(r.Findings, Naming(scan)...)
	r.Findings = append(r.Findings, Shadowing(scan)...)
	r.Findings = append(r.Findings, Homonyms(scan)...)

	if o.mappingsDir != "" {
		findings, err := Mappings(scan, o.mappingsDir)
		if err != nil {
			return nil, err
		}
		r.Findings = append(r.Findings, findings...)
	}
	return r, nil
}

// Drift reports every difference between the trees.
func Drift(scan *store.Scan) []Finding {
	var out []Finding
	for _, d := range scan.Differences() {
		out = append(out, Finding{
			Kind:     KindDrift,
			Severity: SeverityError,
			Path:     d.Path,
			Message:  fmt.Sprintf("%s only in the %s", d.Kind, sideName(d.Side)),
		})
	}
	return out
}

func sideName(s store.Side) string {
	if s == store.TermsOnly {
		return "terms tree"
	}
	return "vocabulary tree"
}

var connectives = map[string]bool{
	"and": true, "or": true, "of": true, "the": true, "in": true, "on": true, "for": true,
}

var (
	principalWord = regexp.MustCompile(`^[A-Z][a-z0-9]+$`)
	acronym       = regexp.MustCompile(`^[A-Z]{2,}$`)
)

// CheckName validates a category or subcategory name: underscore-separated
// segments, each a lowercase connective, an acronym, or a capitalized word.
// It returns one message per violation.
func CheckName(name string) []string {
	var problems []string
	if strings.ContainsFunc(name, func(r rune) bool { return r == ' ' || r == '\t' }) {
		problems = append(problems, "contains whitespace")
	}
	segments := strings.Split(name, "_")
	if slices.Contains(segments, "") {
		return append(problems, "empty segment from leading, trailing or repeated underscores")
	}
	for _, seg := range segments {
		if connectives[seg] || acronym.MatchString(seg) || principalWord.MatchString(seg) {
			continue
		}
		problems = append(problems, fmt.Sprintf("invalid segment %q", seg))
	}
	return problems
}

// Naming checks every category and subcategory name on either side.
func Naming(scan *store.Scan) []Finding {
	categories := make(map[string]bool)
	locations := make(map[vocab.Location]bool)
	for c := range scan.Terms.Categories {
		categories[c] = true
	}
	for c := range scan.Vocabulary.Categories {
		categories[c] = true
	}
	for _, loc := range scan.Terms.Locations() {
		locations[loc] = true
	}
	for _, loc := range scan.Vocabulary.Locations() {
		locations[loc] = true
	}

	var out []Finding
	for _, c := range sortedKeys(categories) {
		for _, p := range CheckName(c) {
			out = append(out, Finding{Kind: KindNaming, Severity: SeverityWarning, Path: c, Message: "category name " + p})
		}
	}
	for _, loc := range sortedLocationSet(locations) {
		for _, p := range CheckName(loc.Subcategory) {
			out = append(out, Finding{Kind: KindNaming, Severity: SeverityWarning, Path: loc.String(), Message: "subcategory name " + p})
		}
	}
	return out
}

// Shadowing reports terms named like a category or subcategory display name.
func Shadowing(scan *store.Scan) []Finding {
	reserved := make(map[string]string)
	for c := range scan.Terms.Categories {
		reserved[vocab.DisplayName(c)] = "category"
	}
	for loc := range scan.Terms.Lists {
		if _, ok := reserved[vocab.DisplayName(loc.Subcategory)]; !ok {
			reserved[vocab.DisplayName(loc.Subcategory)] = "subcategory"
		}
	}

	var out []Finding
	for _, loc := range scan.Terms.Locations() {
		for _, name := range scan.Terms.Lists[loc] {
			kind, ok := reserved[name]
			if !ok {
				continue
			}
			out = append(out, Finding{
				Kind:     KindShadowing,
				Severity: SeverityWarning,
				Path:     vocab.Path{Location: loc, Name: name}.String(),
				Message:  fmt.Sprintf("term has the same name as a %s", kind),
			})
		}
	}
	return out
}

// Homonyms reports names used by several terms with different identifiers.
func Homonyms(scan *store.Scan) []Finding {
	type use struct {
		path string
		id   string
	}
	uses := make(map[string][]use)
	for _, loc := range scan.Vocabulary.Locations() {
		for _, rec := range scan.Vocabulary.Files[loc] {
			p := vocab.Path{Location: loc, Name: rec.Name}
			uses[rec.Name] = append(uses[rec.Name], use{path: p.String(), id: rec.ID})
		}
	}

	var out []Finding
	for _, name := range sortedKeys(uses) {
		list := uses[name]
		ids := make(map[string]bool)
		for _, u := range list {
			if u.id != "" {
				ids[u.id] = true
			}
		}
		if len(ids) < 2 {
			continue
		}
		parts := make([]string, len(list))
		for i, u := range list {
			parts[i] = fmt.Sprintf("%s (%s)", u.path, u.id)
		}
		out = append(out, Finding{
			Kind:     KindHomonym,
			Severity: SeverityInfo,
			Path:     name,
			Message:  fmt.Sprintf("%d terms share this name: %s", len(list), strings.Join(parts, ", ")),
		})
	}
	return out
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedLocationSet(m map[vocab.Location]bool) []vocab.Location {
	out := make([]vocab.Location, 0, len(m))
	for loc := range m {
		out = append(out, loc)
	}
	slices.SortFunc(out, func(a, b vocab.Location) int {
		return cmp.Or(cmp.Compare(a.Category, b.Category), cmp.Compare(a.Subcategory, b.Subcategory))
	})
	return out
}
