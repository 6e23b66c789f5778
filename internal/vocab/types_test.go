package vocab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("Disorders/Neurological_Disorders/Tremor")
	require.NoError(t, err)
	assert.Equal(t, "Disorders", p.Category)
	assert.Equal(t, "Neurological_Disorders", p.Subcategory)
	assert.Equal(t, "Tremor", p.Name)
	assert.Equal(t, "Disorders/Neurological_Disorders/Tremor", p.String())
}

func TestParsePath_NameMayContainSlash(t *testing.T) {
	p, err := ParsePath("Imaging/Structural_MRI/T1/T2 Ratio")
	require.NoError(t, err)
	assert.Equal(t, "T1/T2 Ratio", p.Name)
}

func TestParsePath_Normalizes(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed form.
	p, err := ParsePath(" Disorders/Neurological_Disorders/Ataxie Ce\u0301re\u0301belleuse ")
	require.NoError(t, err)
	assert.Equal(t, "Ataxie C\u00e9r\u00e9belleuse", p.Name)
}

func TestParsePath_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few segments", "Disorders/Tremor"},
		{"empty category", "/Neurological_Disorders/Tremor"},
		{"empty name", "Disorders/Neurological_Disorders/ "},
		{"tab in name", "Disorders/Neurological_Disorders/Tre\tmor"},
		{"dot category", "../Neurological_Disorders/Tremor"},
		{"reserved subcategory", "Disorders/Subcategories/Tremor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePath(tt.input)
			require.Error(t, err)
			assert.True(t, IsCode(err, CodeInvalidPath), "got %v", err)
		})
	}
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("Disorders/Movement_Disorders")
	require.NoError(t, err)
	assert.Equal(t, Location{Category: "Disorders", Subcategory: "Movement_Disorders"}, loc)

	_, err = ParseLocation("Disorders/Movement_Disorders/Tremor")
	assert.True(t, IsCode(err, CodeInvalidPath))

	_, err = ParseLocation("Disorders")
	assert.True(t, IsCode(err, CodeInvalidPath))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Brain Structures", DisplayName("Brain_Structures"))
}

func TestTerm_JSON(t *testing.T) {
	term := Term{
		Path: Path{Location: Location{Category: "Disorders", Subcategory: "Neurological_Disorders"}, Name: "Tremor"},
		ID:   "ONVOC:0000001",
	}
	data, err := json.Marshal(term)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"Disorders/Neurological_Disorders/Tremor","vocabulary_id":"ONVOC:0000001"}`, string(data))
}
