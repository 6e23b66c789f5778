package pipeline

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/onvoc/internal/testutil"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	fail    map[string]bool
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string) ([]byte, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: slices.Clone(args)})
	f.mu.Unlock()

	if f.fail[filepath.Base(args[1])] {
		return []byte("loading model\nontology not found\n"), errors.New("exit status 3")
	}
	return nil, nil
}

func inputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"in/a.txt":       "x",
		"in/b.txt":       "x",
		"in/deep/c.txt":  "x",
		"in/skip.pdf":    "x",
	})
	return filepath.Join(dir, "in"), filepath.Join(dir, "out")
}

func TestConfig_Validate(t *testing.T) {
	ok := Config{Tool: "mapper", Ontology: "onto.owl", Threshold: 0.8}
	assert.NoError(t, ok.Validate())

	for _, threshold := range []float64{-0.1, 1.01, math.NaN()} {
		bad := ok
		bad.Threshold = threshold
		assert.ErrorContains(t, bad.Validate(), "outside [0, 1]")
	}

	err := Config{Threshold: 0.5, Pattern: "[x"}.Validate()
	assert.ErrorContains(t, err, "tool is required")
	assert.ErrorContains(t, err, "ontology is required")
	assert.ErrorContains(t, err, "invalid pattern")
}

func TestConfig_Args(t *testing.T) {
	cfg := Config{Tool: "mapper", Ontology: "onto.owl", Threshold: 0.75}
	assert.Equal(t,
		[]string{"--input", "a.txt", "--output", "a.tsv", "--ontology", "onto.owl", "--threshold", "0.75"},
		cfg.Args("a.txt", "a.tsv"))
}

func TestNew_RejectsBadThresholdBeforeRunning(t *testing.T) {
	runner := &fakeRunner{}
	_, err := New(Config{Tool: "mapper", Ontology: "o", Threshold: 2}, WithRunner(runner))
	assert.Error(t, err)
	assert.Empty(t, runner.calls)
}

func TestRun_InvokesOncePerFile(t *testing.T) {
	in, out := inputs(t)
	runner := &fakeRunner{}
	d, err := New(Config{Tool: "mapper", Ontology: "onto.owl", Threshold: 1, Jobs: 2}, WithRunner(runner))
	require.NoError(t, err)

	result, err := d.Run(context.Background(), in, out)
	require.NoError(t, err)
	assert.Empty(t, result.Failures())

	assert.Equal(t, []FileResult{
		{Input: filepath.Join(in, "a.txt"), Output: filepath.Join(out, "a.tsv")},
		{Input: filepath.Join(in, "b.txt"), Output: filepath.Join(out, "b.tsv")},
		{Input: filepath.Join(in, "deep", "c.txt"), Output: filepath.Join(out, "deep", "c.tsv")},
	}, result.Files)

	require.Len(t, runner.calls, 3)
	for _, c := range runner.calls {
		assert.Equal(t, "mapper", c.name)
		assert.Equal(t, []string{"--ontology", "onto.owl", "--threshold", "1"}, c.args[4:])
	}
	assert.DirExists(t, filepath.Join(out, "deep"))
}

func TestRun_CollectsFailures(t *testing.T) {
	in, out := inputs(t)
	runner := &fakeRunner{fail: map[string]bool{"b.txt": true}}
	d, err := New(Config{Tool: "mapper", Ontology: "o", Threshold: 0.5}, WithRunner(runner))
	require.NoError(t, err)

	result, err := d.Run(context.Background(), in, out)
	require.NoError(t, err)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, filepath.Join(in, "b.txt"), failures[0].Input)
	assert.Equal(t, "exit status 3: ontology not found", failures[0].Error)
	assert.Len(t, runner.calls, 3)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	in, out := inputs(t)
	runner := &fakeRunner{delay: 20 * time.Millisecond}
	d, err := New(Config{Tool: "mapper", Ontology: "o", Threshold: 0.5, Jobs: 2}, WithRunner(runner))
	require.NoError(t, err)

	_, err = d.Run(context.Background(), in, out)
	require.NoError(t, err)
	assert.LessOrEqual(t, runner.maxSeen.Load(), int32(2))
}

func TestRun_Pattern(t *testing.T) {
	in, out := inputs(t)
	runner := &fakeRunner{}
	d, err := New(Config{Tool: "mapper", Ontology: "o", Threshold: 0.5, Pattern: "*.{txt,pdf}"}, WithRunner(runner))
	require.NoError(t, err)

	result, err := d.Run(context.Background(), in, out)
	require.NoError(t, err)

	var names []string
	for _, f := range result.Files {
		names = append(names, strings.TrimPrefix(f.Input, in+string(filepath.Separator)))
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "skip.pdf"}, names)
}

func TestRun_MissingInput(t *testing.T) {
	d, err := New(Config{Tool: "mapper", Ontology: "o", Threshold: 0.5}, WithRunner(&fakeRunner{}))
	require.NoError(t, err)

	_, err = d.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, err)
}
