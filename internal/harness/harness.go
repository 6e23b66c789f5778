package harness

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/onvoc/internal/batch"
	"github.com/roach88/onvoc/internal/engine"
	"github.com/roach88/onvoc/internal/journal"
	"github.com/roach88/onvoc/internal/testutil"
	"github.com/roach88/onvoc/internal/vocab"
)

// Harness holds the per-scenario environment.
type Harness struct {
	base           string
	termsRoot      string
	vocabularyRoot string
	journal        *journal.Journal
	runIDs         *testutil.FixedRunID
	logger         *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temporary tree pair and in-memory journal,
// both discarded afterwards. Deterministic helpers ensure reproducible
// results.
//
// Execution flow:
// 1. Write the seed files
// 2. Open the engine (or check the expected open error)
// 3. Apply setup lines
// 4. Run the flow lines as one batch script and check expect clauses
// 5. Snapshot trees and journal, evaluate assertions
//
// The returned error is reserved for broken scenarios (failed setup, fatal
// I/O); expectation mismatches are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	base, err := os.MkdirTemp("", "onvoc-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(base)

	j, err := journal.Open(":memory:", journal.WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	h := &Harness{
		base:           base,
		termsRoot:      filepath.Join(base, "terms"),
		vocabularyRoot: filepath.Join(base, "vocabulary"),
		journal:        j,
		runIDs:         testutil.NewFixedRunID(scenario.RunID),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := h.seed(scenario.Seed); err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := NewResult()

	eng, err := engine.Open(h.termsRoot, h.vocabularyRoot, engine.WithLogger(h.logger))
	switch {
	case scenario.OpenError != "":
		checkOpenError(scenario.OpenError, err, result)
	case err != nil:
		return nil, fmt.Errorf("failed to open seeded trees: %w", err)
	default:
		if err := h.executeSetup(ctx, eng, scenario.Setup); err != nil {
			return nil, fmt.Errorf("failed to execute setup: %w", err)
		}
		if err := h.executeFlow(ctx, eng, scenario, result); err != nil {
			return nil, fmt.Errorf("failed to execute flow: %w", err)
		}
	}

	entries, err := j.List(ctx, journal.Filter{})
	if err != nil {
		return nil, err
	}
	result.Journal = entries

	tree, err := readTree(base)
	if err != nil {
		return nil, err
	}
	result.Tree = tree

	actx := &AssertionContext{
		TermsRoot:      h.termsRoot,
		VocabularyRoot: h.vocabularyRoot,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) seed(files map[string]string) error {
	for _, root := range []string{h.termsRoot, h.vocabularyRoot} {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("failed to create root: %w", err)
		}
	}
	for rel, content := range files {
		path := filepath.Join(h.base, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("seed %s: %w", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("seed %s: %w", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("seed %s: %w", rel, err)
		}
	}
	return nil
}

func checkOpenError(want string, err error, result *Result) {
	if err == nil {
		result.AddError(fmt.Sprintf("open: expected %s, trees loaded", want))
		return
	}
	if !vocab.IsCode(err, vocab.Code(want)) {
		result.AddError(fmt.Sprintf("open: expected %s, got %v", want, err))
	}
}

// executeSetup applies setup lines without journaling. Any failure is fatal.
func (h *Harness) executeSetup(ctx context.Context, eng *engine.Engine, setup []string) error {
	runner := batch.NewRunner(eng, batch.WithLogger(h.logger))
	for i, line := range setup {
		report, err := runner.Run(ctx, "setup", strings.NewReader(line))
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if failures := report.Failures(); len(failures) > 0 {
			return fmt.Errorf("setup[%d]: %w", i, failures[0].Err)
		}
		h.logger.Info("setup step completed", "step", i, "line", line)
	}
	return nil
}

// executeFlow runs the flow as one journaled script and checks each step's
// expect clause against the line it produced.
func (h *Harness) executeFlow(ctx context.Context, eng *engine.Engine, scenario *Scenario, result *Result) error {
	if len(scenario.Flow) == 0 {
		return nil
	}

	lines := make([]string, len(scenario.Flow))
	for i, step := range scenario.Flow {
		lines[i] = step.Op
	}

	runner := batch.NewRunner(eng,
		batch.WithRecorder(h.journal),
		batch.WithRunIDGenerator(h.runIDs),
		batch.WithLogger(h.logger),
	)
	report, err := runner.Run(ctx, scenario.Name, strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return err
	}
	if len(report.Results) != len(scenario.Flow) {
		return fmt.Errorf("flow produced %d results for %d steps", len(report.Results), len(scenario.Flow))
	}

	for i, step := range scenario.Flow {
		if msg := checkExpect(step.Expect, report.Results[i]); msg != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}
	return nil
}

func checkExpect(expect *ExpectClause, res batch.Result) string {
	want := ExpectClause{Outcome: string(journal.OutcomeOK)}
	if expect != nil {
		want = *expect
	}

	got := outcomeOf(res)
	if got != want.Outcome {
		if res.Err != nil {
			return fmt.Sprintf("expected outcome %s, got %s (%v)", want.Outcome, got, res.Err)
		}
		return fmt.Sprintf("expected outcome %s, got %s", want.Outcome, got)
	}
	if want.Code != "" {
		code, _ := vocab.CodeOf(res.Err)
		if string(code) != want.Code {
			return fmt.Sprintf("expected code %s, got %s", want.Code, code)
		}
	}
	if want.VocabularyID != "" && res.Change.Term.ID != want.VocabularyID {
		return fmt.Sprintf("expected vocabulary_id %s, got %q", want.VocabularyID, res.Change.Term.ID)
	}
	return ""
}

func outcomeOf(res batch.Result) string {
	switch {
	case res.Err != nil:
		return string(journal.OutcomeError)
	case res.Change.NoOp:
		return string(journal.OutcomeNoOp)
	}
	return string(journal.OutcomeOK)
}

// readTree returns every file under base keyed by slash-separated path.
func readTree(base string) (map[string]string, error) {
	out := make(map[string]string)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot trees: %w", err)
	}
	return out, nil
}
