package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/onvoc/internal/journal"
)

const emptyVocabulary = "term\tvocabulary_id\tcomment\n"

func neuroSeed() map[string]string {
	return map[string]string{
		"terms/Disorders/Neurological_Disorders.txt":      "",
		"vocabulary/Disorders/Neurological_Disorders.tsv": emptyVocabulary,
	}
}

func TestRun_AddsAndJournals(t *testing.T) {
	result, err := Run(&Scenario{
		Name:  "add",
		RunID: "run-add",
		Seed:  neuroSeed(),
		Flow: []FlowStep{
			{Op: `add "Tremor" "Disorders/Neurological_Disorders"`},
		},
		Assertions: []Assertion{{Type: AssertTreesAgree}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	assert.Equal(t, "Tremor\n", result.Tree["terms/Disorders/Neurological_Disorders.txt"])
	assert.Equal(t, emptyVocabulary+"Tremor\tONVOC:0000001\t\n",
		result.Tree["vocabulary/Disorders/Neurological_Disorders.tsv"])

	require.Len(t, result.Journal, 1)
	entry := result.Journal[0]
	assert.Equal(t, int64(1), entry.Seq)
	assert.Equal(t, "run-add", entry.RunID)
	assert.Equal(t, "add", entry.Source)
	assert.Equal(t, 1, entry.Line)
	assert.Equal(t, "ONVOC:0000001", entry.VocabularyID)
	assert.Equal(t, journal.OutcomeOK, entry.Outcome)
	assert.True(t, entry.RecordedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), entry.RecordedAt)
}

func TestRun_DefaultRunID(t *testing.T) {
	result, err := Run(&Scenario{
		Name: "default_run",
		Seed: neuroSeed(),
		Flow: []FlowStep{
			{Op: `add "Tremor" "Disorders/Neurological_Disorders"`},
		},
		Assertions: []Assertion{{Type: AssertTreesAgree}},
	})
	require.NoError(t, err)
	require.Len(t, result.Journal, 1)
	assert.Equal(t, "test-run-default", result.Journal[0].RunID)
}

func TestRun_ExpectMismatchFailsResult(t *testing.T) {
	result, err := Run(&Scenario{
		Name: "mismatch",
		Seed: neuroSeed(),
		Flow: []FlowStep{
			{
				Op:     `remove "Disorders/Neurological_Disorders/Tremor"`,
				Expect: &ExpectClause{Outcome: "ok"},
			},
			{
				Op:     `add "Tremor" "Disorders/Neurological_Disorders"`,
				Expect: &ExpectClause{Outcome: "ok", VocabularyID: "ONVOC:0000009"},
			},
		},
		Assertions: []Assertion{{Type: AssertTreesAgree}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "flow[0]")
	assert.Contains(t, result.Errors[0], "expected outcome ok, got error")
	assert.Contains(t, result.Errors[1], `expected vocabulary_id ONVOC:0000009, got "ONVOC:0000001"`)
}

func TestRun_ExpectedErrorCode(t *testing.T) {
	result, err := Run(&Scenario{
		Name: "codes",
		Seed: neuroSeed(),
		Flow: []FlowStep{
			{
				Op:     `remove "Disorders/Neurological_Disorders/Tremor"`,
				Expect: &ExpectClause{Outcome: "error", Code: "DUPLICATE_TERM"},
			},
		},
		Assertions: []Assertion{{Type: AssertTreesAgree}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected code DUPLICATE_TERM, got TERM_NOT_FOUND")
}

func TestRun_SetupIsNotJournaled(t *testing.T) {
	result, err := Run(&Scenario{
		Name:  "setup",
		Seed:  neuroSeed(),
		Setup: []string{`add "Tremor" "Disorders/Neurological_Disorders"`},
		Flow: []FlowStep{
			{Op: `remove "Disorders/Neurological_Disorders/Tremor"`},
		},
		Assertions: []Assertion{
			{Type: AssertTermAbsent, Path: "Disorders/Neurological_Disorders/Tremor"},
			{Type: AssertJournalCount, Count: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Journal, 1)
	assert.Equal(t, "remove", result.Journal[0].Op)
}

func TestRun_FailingSetupIsFatal(t *testing.T) {
	_, err := Run(&Scenario{
		Name:       "bad_setup",
		Seed:       neuroSeed(),
		Setup:      []string{`remove "Disorders/Neurological_Disorders/Tremor"`},
		Assertions: []Assertion{{Type: AssertTreesAgree}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute setup")
	assert.Contains(t, err.Error(), "setup[0]")
}

func TestRun_UnexpectedDriftIsFatal(t *testing.T) {
	_, err := Run(&Scenario{
		Name: "drift",
		Seed: map[string]string{
			"terms/Disorders/Neurological_Disorders.txt":      "Tremor\n",
			"vocabulary/Disorders/Neurological_Disorders.tsv": emptyVocabulary,
		},
		Assertions: []Assertion{{Type: AssertTreesAgree}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open seeded trees")
}

func TestRun_OpenErrorExpected(t *testing.T) {
	result, err := Run(&Scenario{
		Name:       "clean",
		Seed:       neuroSeed(),
		OpenError:  "DRIFT",
		Assertions: []Assertion{{Type: AssertJournalCount, Count: 0}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "open: expected DRIFT, trees loaded", result.Errors[0])
}

func TestRun_SeedDirectoryEntry(t *testing.T) {
	result, err := Run(&Scenario{
		Name: "empty_category",
		Seed: map[string]string{
			"terms/Imaging/":      "",
			"vocabulary/Imaging/": "",
		},
		Flow: []FlowStep{
			{Op: `add "MRI" "Imaging/Modalities"`},
		},
		Assertions: []Assertion{
			{Type: AssertTermExists, Path: "Imaging/Modalities/MRI", VocabularyID: "ONVOC:0000001"},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "MRI\n", result.Tree["terms/Imaging/Modalities.txt"])
}
