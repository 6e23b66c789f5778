package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: add_one
description: "Adds one term"
run_id: run-1
seed:
  terms/Disorders/Neurological_Disorders.txt: ""
  vocabulary/Disorders/Neurological_Disorders.tsv: "term\tvocabulary_id\tcomment\n"
flow:
  - op: 'add "Tremor" "Disorders/Neurological_Disorders"'
    expect:
      outcome: ok
      vocabulary_id: ONVOC:0000001
assertions:
  - type: term_exists
    path: Disorders/Neurological_Disorders/Tremor
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "add_one", scenario.Name)
	assert.Equal(t, "run-1", scenario.RunID)
	assert.Equal(t, "term\tvocabulary_id\tcomment\n", scenario.Seed["vocabulary/Disorders/Neurological_Disorders.tsv"])
	require.Len(t, scenario.Flow, 1)
	assert.Equal(t, `add "Tremor" "Disorders/Neurological_Disorders"`, scenario.Flow[0].Op)
	require.NotNil(t, scenario.Flow[0].Expect)
	assert.Equal(t, "ONVOC:0000001", scenario.Flow[0].Expect.VocabularyID)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Misspelled assertions key"
assertion:
  - type: trees_agree
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\nassertions:\n  - type: trees_agree\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nassertions:\n  - type: trees_agree\n",
			want:    "description is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\n",
			want:    "assertions list is required",
		},
		{
			name:    "seed outside the trees",
			content: "name: n\ndescription: d\nseed:\n  other/file.txt: x\nassertions:\n  - type: trees_agree\n",
			want:    `seed key "other/file.txt"`,
		},
		{
			name:    "open error with flow",
			content: "name: n\ndescription: d\nopen_error: DRIFT\nflow:\n  - op: 'remove \"A/B/C\"'\nassertions:\n  - type: trees_agree\n",
			want:    "open_error scenarios cannot have setup or flow steps",
		},
		{
			name:    "comment op",
			content: "name: n\ndescription: d\nflow:\n  - op: '# nothing'\nassertions:\n  - type: trees_agree\n",
			want:    "flow[0]: op cannot be a comment",
		},
		{
			name:    "empty op",
			content: "name: n\ndescription: d\nflow:\n  - op: ''\nassertions:\n  - type: trees_agree\n",
			want:    "flow[0]: op is required",
		},
		{
			name:    "error without code",
			content: "name: n\ndescription: d\nflow:\n  - op: 'remove \"A/B/C\"'\n    expect:\n      outcome: error\nassertions:\n  - type: trees_agree\n",
			want:    "code is required with outcome error",
		},
		{
			name:    "code with ok",
			content: "name: n\ndescription: d\nflow:\n  - op: 'remove \"A/B/C\"'\n    expect:\n      outcome: ok\n      code: DRIFT\nassertions:\n  - type: trees_agree\n",
			want:    "code is only valid with outcome error",
		},
		{
			name:    "unknown outcome",
			content: "name: n\ndescription: d\nflow:\n  - op: 'remove \"A/B/C\"'\n    expect:\n      outcome: maybe\nassertions:\n  - type: trees_agree\n",
			want:    `outcome must be ok, noop or error, got "maybe"`,
		},
		{
			name:    "term assertion without path",
			content: "name: n\ndescription: d\nassertions:\n  - type: term_exists\n",
			want:    "assertions[0]: term_exists needs a valid path",
		},
		{
			name:    "file_equals without content",
			content: "name: n\ndescription: d\nassertions:\n  - type: file_equals\n    file: vocabulary/retired.tsv\n",
			want:    "content is required for file_equals",
		},
		{
			name:    "file_absent without file",
			content: "name: n\ndescription: d\nassertions:\n  - type: file_absent\n",
			want:    "file is required for file_absent",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nassertions:\n  - type: trace_contains\n",
			want:    `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_AllTestdataScenariosLoad(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)
		assert.Equal(t, filepath.Base(file), scenario.Name+".yaml", "scenario name should match its file")
	}
}
