package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/onvoc/internal/engine"
	"github.com/roach88/onvoc/internal/vocab"
)

func TestParseLine_Operations(t *testing.T) {
	cmd, ok, err := ParseLine(1, `add "Tremor" "Disorders/Neurological_Disorders"`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, engine.OpAdd, cmd.Op)
	assert.Equal(t, "Tremor", cmd.Name)
	assert.Equal(t, vocab.Location{Category: "Disorders", Subcategory: "Neurological_Disorders"}, cmd.Location)

	cmd, _, err = ParseLine(2, `remove "Disorders/Neurological_Disorders/Tremor"`)
	require.NoError(t, err)
	assert.Equal(t, engine.OpRemove, cmd.Op)
	assert.Equal(t, "Disorders/Neurological_Disorders/Tremor", cmd.From.String())

	cmd, _, err = ParseLine(3, `  move   "Disorders/Neurological_Disorders/Tremor"	"Disorders/Movement_Disorders/Essential Tremor"  `)
	require.NoError(t, err)
	assert.Equal(t, engine.OpMove, cmd.Op)
	assert.Equal(t, "Disorders/Neurological_Disorders/Tremor", cmd.From.String())
	assert.Equal(t, "Disorders/Movement_Disorders/Essential Tremor", cmd.To.String())
	assert.Equal(t, 3, cmd.Line)
}

func TestParseLine_Escapes(t *testing.T) {
	cmd, _, err := ParseLine(1, `add "The \"Big\" One\\Two" "Misc/Other"`)
	require.NoError(t, err)
	assert.Equal(t, `The "Big" One\Two`, cmd.Name)
}

func TestParseLine_NameMayContainSlash(t *testing.T) {
	cmd, _, err := ParseLine(1, `remove "Imaging/Sequences/T1/T2 ratio"`)
	require.NoError(t, err)
	assert.Equal(t, "T1/T2 ratio", cmd.From.Name)
}

func TestParseLine_Ignored(t *testing.T) {
	for _, text := range []string{"", "   ", "# add \"x\" \"a/b\"", "   # indented comment"} {
		_, ok, err := ParseLine(1, text)
		assert.NoError(t, err, text)
		assert.False(t, ok, text)
	}
}

func TestParseLine_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown keyword", `rename "a/b/c" "a/b/d"`, "unknown operation"},
		{"uppercase keyword", `ADD "x" "a/b"`, "unknown operation"},
		{"missing argument", `add "Tremor"`, "takes 2"},
		{"extra argument", `remove "a/b/c" "a/b/d"`, "takes 1"},
		{"unquoted", `add Tremor "a/b"`, "expected '\"'"},
		{"unterminated", `add "Tremor" "a/b`, "unterminated"},
		{"glued arguments", `add "Tremor""a/b"`, "expected whitespace"},
		{"bad escape", `add "Tre\mor" "a/b"`, "invalid escape"},
		{"location depth", `add "Tremor" "Disorders"`, "expected <category>/<subcategory>"},
		{"path depth", `remove "Disorders/Tremor"`, "expected <category>/<subcategory>/<name>"},
		{"empty name", `add "  " "a/b"`, "empty"},
		{"keyword only", `move`, "takes 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := ParseLine(7, tt.text)
			assert.True(t, ok)
			require.Error(t, err)
			assert.True(t, vocab.IsCode(err, vocab.CodeParseError), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "line=7")
		})
	}
}

func TestParse_NumbersLines(t *testing.T) {
	script := strings.Join([]string{
		"# header",
		`add "Tremor" "Disorders/Neurological_Disorders"`,
		"",
		`bogus`,
		`remove "Disorders/Neurological_Disorders/Tremor"`,
	}, "\r\n")

	lines, err := Parse(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, 2, lines[0].Number)
	assert.NoError(t, lines[0].Err)
	assert.Equal(t, 4, lines[1].Number)
	assert.True(t, vocab.IsCode(lines[1].Err, vocab.CodeParseError))
	assert.Equal(t, 5, lines[2].Number)
	assert.Equal(t, `remove "Disorders/Neurological_Disorders/Tremor"`, lines[2].Text)
}

func TestParse_OverlongLineIsLineError(t *testing.T) {
	script := `add "Tremor" "Disorders/Neurological_Disorders"` + "\n" +
		`add "` + strings.Repeat("x", MaxLineLength) + `" "Disorders/Neurological_Disorders"` + "\n" +
		`remove "Disorders/Neurological_Disorders/Tremor"` + "\n"

	lines, err := Parse(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.NoError(t, lines[0].Err)
	assert.Equal(t, 2, lines[1].Number)
	assert.True(t, vocab.IsCode(lines[1].Err, vocab.CodeParseError), "got %v", lines[1].Err)
	assert.Contains(t, lines[1].Err.Error(), "line longer than")
	assert.Less(t, len(lines[1].Text), 100)
	assert.Equal(t, 3, lines[2].Number)
	assert.NoError(t, lines[2].Err)
}
