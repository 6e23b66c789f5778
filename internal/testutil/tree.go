package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Header is the first line of every vocabulary file.
const Header = "term\tvocabulary_id\tcomment\n"

// TreePair is a terms/vocabulary root pair inside a test temp directory.
type TreePair struct {
	Base       string
	Terms      string
	Vocabulary string
}

// NewTreePair creates both roots and writes files into them.
//
// Keys are slash-separated paths starting with "terms/" or "vocabulary/".
// A key ending in "/" creates an empty directory.
//
//	pair := testutil.NewTreePair(t, map[string]string{
//	    "terms/Disorders/Neurological_Disorders.txt":      "",
//	    "vocabulary/Disorders/Neurological_Disorders.tsv": testutil.Header,
//	})
func NewTreePair(t *testing.T, files map[string]string) TreePair {
	t.Helper()
	base := t.TempDir()
	pair := TreePair{
		Base:       base,
		Terms:      filepath.Join(base, "terms"),
		Vocabulary: filepath.Join(base, "vocabulary"),
	}
	require.NoError(t, os.MkdirAll(pair.Terms, 0o755))
	require.NoError(t, os.MkdirAll(pair.Vocabulary, 0o755))
	WriteTree(t, base, files)
	return pair
}

// Snapshot returns every file under both roots keyed like NewTreePair.
func (p TreePair) Snapshot(t *testing.T) map[string]string {
	t.Helper()
	return ReadTree(t, p.Base)
}

// WriteTree writes files relative to root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// ReadTree returns the content of every regular file under root, keyed by
// slash-separated relative path.
func ReadTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
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
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}
