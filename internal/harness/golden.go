package harness

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/onvoc/internal/journal"
)

// Snapshot renders the final trees and journal as deterministic text:
// every file in path order, then every journal entry in sequence order.
//
//	== terms/Disorders/Neurological_Disorders.txt
//	Tremor
//	== vocabulary/Disorders/Neurological_Disorders.tsv
//	term	vocabulary_id	comment
//	Tremor	ONVOC:0000001
//	-- journal
//	1 run-1 line=1 add to=Disorders/Neurological_Disorders/Tremor id=ONVOC:0000001 ok
func Snapshot(result *Result) []byte {
	var b strings.Builder

	files := make([]string, 0, len(result.Tree))
	for f := range result.Tree {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, f := range files {
		fmt.Fprintf(&b, "== %s\n", f)
		content := result.Tree[f]
		b.WriteString(content)
		if content != "" && !strings.HasSuffix(content, "\n") {
			b.WriteString("\n\\ no newline at end of file\n")
		}
	}

	b.WriteString("-- journal\n")
	for _, e := range result.Journal {
		b.WriteString(formatEntry(e))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func formatEntry(e journal.Entry) string {
	parts := []string{
		fmt.Sprintf("%d", e.Seq),
		e.RunID,
		fmt.Sprintf("line=%d", e.Line),
		e.Op,
	}
	if e.From != "" {
		parts = append(parts, "from="+e.From)
	}
	if e.To != "" {
		parts = append(parts, "to="+e.To)
	}
	if e.VocabularyID != "" {
		parts = append(parts, "id="+e.VocabularyID)
	}
	parts = append(parts, string(e.Outcome))
	if e.ErrorCode != "" {
		parts = append(parts, "code="+e.ErrorCode)
	}
	return strings.Join(parts, " ")
}

// RunWithGolden executes a scenario, fails the test on any expectation or
// assertion error, and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares the snapshot of a result against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
