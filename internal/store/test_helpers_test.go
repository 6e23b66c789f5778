package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/onvoc/internal/testutil"
	"github.com/roach88/onvoc/internal/vocab"
)

// neuroFixture is a consistent tree pair with two subcategories.
func neuroFixture() map[string]string {
	return map[string]string{
		"terms/Disorders/Neurological_Disorders.txt": "Tremor\nAtaxia\n",
		"terms/Disorders/Movement_Disorders.txt":     "",
		"terms/Imaging/Structural_MRI.txt":           "T1-Weighted\n",

		"vocabulary/Disorders/Neurological_Disorders.tsv": testutil.Header +
			"Tremor\tONVOC:0000001\tshaking\n" +
			"Ataxia\tONVOC:0000002\t\n",
		"vocabulary/Disorders/Movement_Disorders.tsv": testutil.Header,
		"vocabulary/Imaging/Structural_MRI.tsv": testutil.Header +
			"T1-Weighted\tONVOC:0000003\t\n",
	}
}

func loadFixture(t *testing.T, files map[string]string) (*Store, testutil.TreePair) {
	t.Helper()
	pair := testutil.NewTreePair(t, files)
	s, err := Load(pair.Terms, pair.Vocabulary)
	require.NoError(t, err)
	return s, pair
}

func mustPath(t *testing.T, s string) vocab.Path {
	t.Helper()
	p, err := vocab.ParsePath(s)
	require.NoError(t, err)
	return p
}
