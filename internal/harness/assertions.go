package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/onvoc/internal/store"
	"github.com/roach88/onvoc/internal/vocab"
)

// AssertionContext locates the trees assertions read from.
type AssertionContext struct {
	TermsRoot      string
	VocabularyRoot string

	loaded  *store.Store
	loadErr error
	tried   bool
}

// load reads the trees once per context.
func (c *AssertionContext) load() (*store.Store, error) {
	if !c.tried {
		c.loaded, c.loadErr = store.Load(c.TermsRoot, c.VocabularyRoot)
		c.tried = true
	}
	return c.loaded, c.loadErr
}

// AssertionError is returned when an assertion fails.
// It includes the final file list to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Files    []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Files) > 0 {
		fmt.Fprintf(&buf, "\nFiles:\n")
		for _, f := range e.Files {
			fmt.Fprintf(&buf, "  %s\n", f)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, ctx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, ctx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, ctx *AssertionContext) error {
	switch a.Type {
	case AssertTermExists:
		return assertTermExists(result, a, ctx)
	case AssertTermAbsent:
		return assertTermAbsent(result, a, ctx)
	case AssertFileEquals:
		return assertFileEquals(result, a)
	case AssertFileAbsent:
		return assertFileAbsent(result, a)
	case AssertJournalCount:
		return assertJournalCount(result, a)
	case AssertTreesAgree:
		return assertTreesAgree(result, ctx)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertTermExists(result *Result, a Assertion, ctx *AssertionContext) error {
	s, err := ctx.load()
	if err != nil {
		return failure(result, a.Type, "trees to load", err.Error())
	}
	p, err := vocab.ParsePath(a.Path)
	if err != nil {
		return err
	}

	term, ok := s.Lookup(p)
	if !ok {
		return failure(result, a.Type, fmt.Sprintf("term %s", a.Path), "not found")
	}
	if a.VocabularyID != "" && term.ID != a.VocabularyID {
		return failure(result, a.Type, fmt.Sprintf("%s with id %s", a.Path, a.VocabularyID), "id "+term.ID)
	}
	if a.Comment != nil && term.Comment != *a.Comment {
		return failure(result, a.Type, fmt.Sprintf("%s with comment %q", a.Path, *a.Comment), fmt.Sprintf("comment %q", term.Comment))
	}
	return nil
}

func assertTermAbsent(result *Result, a Assertion, ctx *AssertionContext) error {
	s, err := ctx.load()
	if err != nil {
		return failure(result, a.Type, "trees to load", err.Error())
	}
	p, err := vocab.ParsePath(a.Path)
	if err != nil {
		return err
	}
	if term, ok := s.Lookup(p); ok {
		return failure(result, a.Type, fmt.Sprintf("no term at %s", a.Path), "found with id "+term.ID)
	}
	return nil
}

func assertFileEquals(result *Result, a Assertion) error {
	got, ok := result.Tree[a.File]
	if !ok {
		return failure(result, a.Type, fmt.Sprintf("file %s", a.File), "missing")
	}
	if got != *a.Content {
		return failure(result, a.Type, fmt.Sprintf("%s = %q", a.File, *a.Content), fmt.Sprintf("%q", got))
	}
	return nil
}

func assertFileAbsent(result *Result, a Assertion) error {
	if _, ok := result.Tree[a.File]; ok {
		return failure(result, a.Type, fmt.Sprintf("no file %s", a.File), "present")
	}
	return nil
}

func assertJournalCount(result *Result, a Assertion) error {
	n := 0
	for _, e := range result.Journal {
		if a.Op != "" && e.Op != a.Op {
			continue
		}
		if a.Outcome != "" && string(e.Outcome) != a.Outcome {
			continue
		}
		n++
	}
	if n != a.Count {
		return failure(result, a.Type,
			fmt.Sprintf("%d entries with op=%q outcome=%q", a.Count, a.Op, a.Outcome),
			fmt.Sprintf("%d", n))
	}
	return nil
}

func assertTreesAgree(result *Result, ctx *AssertionContext) error {
	if _, err := ctx.load(); err != nil {
		return failure(result, AssertTreesAgree, "trees without drift", err.Error())
	}
	return nil
}

func failure(result *Result, typ, expected, actual string) error {
	files := make([]string, 0, len(result.Tree))
	for f := range result.Tree {
		files = append(files, f)
	}
	sort.Strings(files)
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Files: files}
}
