package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/onvoc/internal/store"
	"github.com/roach88/onvoc/internal/testutil"
	"github.com/roach88/onvoc/internal/vocab"
)

func emptyNeuro() map[string]string {
	return map[string]string{
		"terms/Disorders/Neurological_Disorders.txt":      "",
		"vocabulary/Disorders/Neurological_Disorders.tsv": testutil.Header,
	}
}

func openPair(t *testing.T, files map[string]string) (*Engine, testutil.TreePair) {
	t.Helper()
	pair := testutil.NewTreePair(t, files)
	e, err := Open(pair.Terms, pair.Vocabulary)
	require.NoError(t, err)
	return e, pair
}

func loc(t *testing.T, s string) vocab.Location {
	t.Helper()
	l, err := vocab.ParseLocation(s)
	require.NoError(t, err)
	return l
}

func path(t *testing.T, s string) vocab.Path {
	t.Helper()
	p, err := vocab.ParsePath(s)
	require.NoError(t, err)
	return p
}

// assertTreesAgree reloads the pair from disk; Load fails on any drift.
func assertTreesAgree(t *testing.T, pair testutil.TreePair) *store.Store {
	t.Helper()
	s, err := store.Load(pair.Terms, pair.Vocabulary)
	require.NoError(t, err)
	return s
}

func TestAdd_EmptySubcategory(t *testing.T) {
	e, pair := openPair(t, emptyNeuro())

	change, err := e.Add("Tremor", loc(t, "Disorders/Neurological_Disorders"))
	require.NoError(t, err)
	assert.Equal(t, OpAdd, change.Op)
	assert.Equal(t, "ONVOC:0000001", change.Term.ID)

	snap := pair.Snapshot(t)
	assert.Equal(t, "Tremor\n", snap["terms/Disorders/Neurological_Disorders.txt"])
	assert.Equal(t, testutil.Header+"Tremor\tONVOC:0000001\t\n", snap["vocabulary/Disorders/Neurological_Disorders.tsv"])
	assertTreesAgree(t, pair)
}

func TestAdd_Duplicate(t *testing.T) {
	e, pair := openPair(t, emptyNeuro())
	_, err := e.Add("Tremor", loc(t, "Disorders/Neurological_Disorders"))
	require.NoError(t, err)
	before := pair.Snapshot(t)

	_, err = e.Add("Tremor", loc(t, "Disorders/Neurological_Disorders"))
	assert.True(t, vocab.IsCode(err, vocab.CodeDuplicateTerm))
	assert.Equal(t, before, pair.Snapshot(t))
}

func TestAdd_SameNameInOtherSubcategory(t *testing.T) {
	e, _ := openPair(t, emptyNeuro())
	_, err := e.Add("Tremor", loc(t, "Disorders/Neurological_Disorders"))
	require.NoError(t, err)

	change, err := e.Add("Tremor", loc(t, "Disorders/Movement_Disorders"))
	require.NoError(t, err)
	assert.Equal(t, "ONVOC:0000002", change.Term.ID)
}

func TestAdd_CreatesContainers(t *testing.T) {
	e, pair := openPair(t, emptyNeuro())

	_, err := e.Add("Hippocampus", loc(t, "Anatomy/Subcortex"))
	require.NoError(t, err)

	snap := pair.Snapshot(t)
	assert.Equal(t, "Hippocampus\n", snap["terms/Anatomy/Subcortex.txt"])
	assert.Equal(t, testutil.Header+"Hippocampus\tONVOC:0000001\t\n", snap["vocabulary/Anatomy/Subcortex.tsv"])
	assertTreesAgree(t, pair)
}

func TestAdd_InvalidName(t *testing.T) {
	e, _ := openPair(t, emptyNeuro())
	_, err := e.Add("  ", loc(t, "Disorders/Neurological_Disorders"))
	assert.True(t, vocab.IsCode(err, vocab.CodeInvalidPath))
}

func TestRemove_RetiresIdentifier(t *testing.T) {
	e, pair := openPair(t, emptyNeuro())
	neuro := loc(t, "Disorders/Neurological_Disorders")

	_, err := e.Add("Tremor", neuro)
	require.NoError(t, err)

	change, err := e.Remove(path(t, "Disorders/Neurological_Disorders/Tremor"))
	require.NoError(t, err)
	assert.Equal(t, "ONVOC:0000001", change.Term.ID)

	snap := pair.Snapshot(t)
	assert.Equal(t, "", snap["terms/Disorders/Neurological_Disorders.txt"])
	assert.Equal(t, testutil.Header, snap["vocabulary/Disorders/Neurological_Disorders.tsv"])

	readded, err := e.Add("Tremor", neuro)
	require.NoError(t, err)
	assert.Equal(t, "ONVOC:0000002", readded.Term.ID)
}

func TestRemove_RetirementSurvivesReload(t *testing.T) {
	e, pair := openPair(t, emptyNeuro())
	neuro := loc(t, "Disorders/Neurological_Disorders")

	_, err := e.Add("Tremor", neuro)
	require.NoError(t, err)
	_, err = e.Remove(path(t, "Disorders/Neurological_Disorders/Tremor"))
	require.NoError(t, err)

	// A new process sees only the files.
	fresh, err := Open(pair.Terms, pair.Vocabulary)
	require.NoError(t, err)
	change, err := fresh.Add("Tremor", neuro)
	require.NoError(t, err)
	assert.Equal(t, "ONVOC:0000002", change.Term.ID)
}

func TestRemove_SamePathRetiredTwiceReopens(t *testing.T) {
	e, pair := openPair(t, emptyNeuro())
	neuro := loc(t, "Disorders/Neurological_Disorders")
	tremor := path(t, "Disorders/Neurological_Disorders/Tremor")

	for range 2 {
		_, err := e.Add("Tremor", neuro)
		require.NoError(t, err)
		_, err = e.Remove(tremor)
		require.NoError(t, err)
	}

	assert.Equal(t, testutil.Header+
		"Disorders/Neurological_Disorders/Tremor\tONVOC:0000001\t\n"+
		"Disorders/Neurological_Disorders/Tremor\tONVOC:0000002\t\n",
		pair.Snapshot(t)["vocabulary/retired.tsv"])

	fresh, err := Open(pair.Terms, pair.Vocabulary)
	require.NoError(t, err)
	change, err := fresh.Add("Tremor", neuro)
	require.NoError(t, err)
	assert.Equal(t, "ONVOC:0000003", change.Term.ID)
}

func TestRemove_NotFound(t *testing.T) {
	e, pair := openPair(t, emptyNeuro())
	before := pair.Snapshot(t)

	_, err := e.Remove(path(t, "Disorders/Neurological_Disorders/Tremor"))
	assert.True(t, vocab.IsCode(err, vocab.CodeTermNotFound))
	assert.Equal(t, before, pair.Snapshot(t))
}

func TestMove_PreservesIdentifierAndComment(t *testing.T) {
	e, pair := openPair(t, map[string]string{
		"terms/Disorders/Neurological_Disorders.txt": "Tremor\n",
		"vocabulary/Disorders/Neurological_Disorders.tsv": testutil.Header +
			"Tremor\tONVOC:0000001\tinvoluntary shaking\n",
	})

	change, err := e.Move(
		path(t, "Disorders/Neurological_Disorders/Tremor"),
		path(t, "Disorders/Movement_Disorders/Tremor"),
	)
	require.NoError(t, err)
	assert.Equal(t, "Disorders/Neurological_Disorders/Tremor", change.From)
	assert.Equal(t, "ONVOC:0000001", change.Term.ID)

	snap := pair.Snapshot(t)
	assert.Equal(t, "", snap["terms/Disorders/Neurological_Disorders.txt"])
	assert.Equal(t, testutil.Header, snap["vocabulary/Disorders/Neurological_Disorders.tsv"])
	assert.Equal(t, "Tremor\n", snap["terms/Disorders/Movement_Disorders.txt"])
	assert.Equal(t, testutil.Header+"Tremor\tONVOC:0000001\tinvoluntary shaking\n",
		snap["vocabulary/Disorders/Movement_Disorders.tsv"])
	assertTreesAgree(t, pair)
}

func TestMove_ToSelfIsByteIdentical(t *testing.T) {
	e, pair := openPair(t, map[string]string{
		"terms/Disorders/Neurological_Disorders.txt":      "Tremor\n\n",
		"vocabulary/Disorders/Neurological_Disorders.tsv": testutil.Header + "Tremor\tONVOC:0000001\tx\n",
	})
	before := pair.Snapshot(t)

	p := path(t, "Disorders/Neurological_Disorders/Tremor")
	change, err := e.Move(p, p)
	require.NoError(t, err)
	assert.True(t, change.NoOp)
	assert.Equal(t, before, pair.Snapshot(t))
}

func TestMove_Errors(t *testing.T) {
	e, pair := openPair(t, map[string]string{
		"terms/Disorders/Neurological_Disorders.txt": "Tremor\nAtaxia\n",
		"vocabulary/Disorders/Neurological_Disorders.tsv": testutil.Header +
			"Tremor\tONVOC:0000001\t\nAtaxia\tONVOC:0000002\t\n",
	})
	before := pair.Snapshot(t)

	_, err := e.Move(path(t, "Disorders/Neurological_Disorders/Chorea"), path(t, "Disorders/Movement_Disorders/Chorea"))
	assert.True(t, vocab.IsCode(err, vocab.CodeTermNotFound))

	_, err = e.Move(path(t, "Disorders/Neurological_Disorders/Tremor"), path(t, "Disorders/Neurological_Disorders/Ataxia"))
	assert.True(t, vocab.IsCode(err, vocab.CodeDuplicateTerm))

	assert.Equal(t, before, pair.Snapshot(t))
}

func TestMove_SequencePreservesIdentity(t *testing.T) {
	e, pair := openPair(t, map[string]string{
		"terms/Disorders/Neurological_Disorders.txt":      "Tremor\n",
		"vocabulary/Disorders/Neurological_Disorders.tsv": testutil.Header + "Tremor\tONVOC:0000007\tkept\n",
	})

	hops := []string{
		"Disorders/Neurological_Disorders/Tremor",
		"Disorders/Neurological_Disorders/Essential Tremor",
		"Disorders/Movement_Disorders/Essential Tremor",
		"Symptoms/Motor/Tremor",
	}
	for i := 1; i < len(hops); i++ {
		change, err := e.Move(path(t, hops[i-1]), path(t, hops[i]))
		require.NoError(t, err)
		assert.Equal(t, "ONVOC:0000007", change.Term.ID)
		assert.Equal(t, "kept", change.Term.Comment)
	}

	s := assertTreesAgree(t, pair)
	term, ok := s.Lookup(path(t, "Symptoms/Motor/Tremor"))
	require.True(t, ok)
	assert.Equal(t, "ONVOC:0000007", term.ID)
	assert.Equal(t, "kept", term.Comment)
	assert.Equal(t, 1, s.Len())
}

func TestIdentifiers_StrictlyIncreaseAcrossRemovals(t *testing.T) {
	e, pair := openPair(t, emptyNeuro())
	neuro := loc(t, "Disorders/Neurological_Disorders")

	var issued []string
	for _, name := range []string{"A", "B", "C"} {
		c, err := e.Add(name, neuro)
		require.NoError(t, err)
		issued = append(issued, c.Term.ID)
	}
	_, err := e.Remove(path(t, "Disorders/Neurological_Disorders/C"))
	require.NoError(t, err)
	_, err = e.Remove(path(t, "Disorders/Neurological_Disorders/A"))
	require.NoError(t, err)
	for _, name := range []string{"C", "D"} {
		c, err := e.Add(name, neuro)
		require.NoError(t, err)
		issued = append(issued, c.Term.ID)
	}

	assert.Equal(t, []string{
		"ONVOC:0000001", "ONVOC:0000002", "ONVOC:0000003", "ONVOC:0000004", "ONVOC:0000005",
	}, issued)
	assertTreesAgree(t, pair)
}

func TestOpen_RefusesDrift(t *testing.T) {
	pair := testutil.NewTreePair(t, map[string]string{
		"terms/Disorders/Neurological_Disorders.txt":      "Tremor\n",
		"vocabulary/Disorders/Neurological_Disorders.tsv": testutil.Header,
	})
	_, err := Open(pair.Terms, pair.Vocabulary)
	assert.True(t, vocab.IsCode(err, vocab.CodeDrift))
}
