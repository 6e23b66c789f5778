package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/onvoc/internal/testutil"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_CreatesDatabaseAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".onvoc", "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)

	version, err := j.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	for i := 0; i < 3; i++ {
		j, err := Open(path)
		require.NoError(t, err, "open %d", i)
		_, err = j.Record(context.Background(), Entry{RunID: "r", Source: "cli", Op: "add", Outcome: OutcomeOK})
		require.NoError(t, err)
		require.NoError(t, j.Close())
	}

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestOpen_Pragmas(t *testing.T) {
	j := openTest(t)

	var mode string
	require.NoError(t, j.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestRecord_AssignsSeqAndTimestamp(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	seq1, err := j.Record(ctx, Entry{
		RunID:        "run-1",
		Source:       "cli",
		Op:           "add",
		To:           "Disorders/Neurological_Disorders/Tremor",
		VocabularyID: "ONVOC:0000001",
		Outcome:      OutcomeOK,
	})
	require.NoError(t, err)
	seq2, err := j.Record(ctx, Entry{
		RunID:        "run-1",
		Source:       "cli",
		Op:           "remove",
		From:         "Disorders/Neurological_Disorders/Chorea",
		Outcome:      OutcomeError,
		ErrorCode:    "TERM_NOT_FOUND",
		ErrorMessage: "term not found",
	})
	require.NoError(t, err)
	assert.Greater(t, seq2, seq1)

	entries, err := j.List(ctx, Filter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{
		Seq:          seq1,
		RunID:        "run-1",
		Source:       "cli",
		Op:           "add",
		To:           "Disorders/Neurological_Disorders/Tremor",
		VocabularyID: "ONVOC:0000001",
		Outcome:      OutcomeOK,
		RecordedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, entries[0])
	assert.Equal(t, OutcomeError, entries[1].Outcome)
	assert.Equal(t, "TERM_NOT_FOUND", entries[1].ErrorCode)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), entries[1].RecordedAt)
}

func TestRecord_RequiresRunAndOp(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	_, err := j.Record(ctx, Entry{Op: "add", Outcome: OutcomeOK})
	assert.ErrorContains(t, err, "run id")

	_, err = j.Record(ctx, Entry{RunID: "r", Outcome: OutcomeOK})
	assert.ErrorContains(t, err, "op")
}

func TestRecord_RejectsUnknownOutcome(t *testing.T) {
	j := openTest(t)

	_, err := j.Record(context.Background(), Entry{RunID: "r", Op: "add", Outcome: "maybe"})
	assert.Error(t, err)
}

func TestList_Filters(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	record := func(run, id string) {
		_, err := j.Record(ctx, Entry{RunID: run, Source: "batch.txt", Op: "add", VocabularyID: id, Outcome: OutcomeOK})
		require.NoError(t, err)
	}
	record("a", "ONVOC:0000001")
	record("a", "ONVOC:0000002")
	record("b", "ONVOC:0000003")
	record("b", "ONVOC:0000001")

	byRun, err := j.List(ctx, Filter{RunID: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ONVOC:0000003", "ONVOC:0000001"}, ids(byRun))

	byID, err := j.List(ctx, Filter{VocabularyID: "ONVOC:0000001"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, runs(byID))

	limited, err := j.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"ONVOC:0000003", "ONVOC:0000001"}, ids(limited))
	assert.Less(t, limited[0].Seq, limited[1].Seq)

	none, err := j.List(ctx, Filter{RunID: "missing"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUUIDv7Generator_Sortable(t *testing.T) {
	var g UUIDv7Generator
	a := g.Generate()
	time.Sleep(2 * time.Millisecond)
	b := g.Generate()

	assert.Len(t, a, 36)
	assert.Less(t, a, b)
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.VocabularyID
	}
	return out
}

func runs(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RunID
	}
	return out
}
