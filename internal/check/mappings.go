package check

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/onvoc/internal/store"
	"github.com/roach88/onvoc/internal/vocab"
)

// MappingPattern selects mapping files below the mappings directory.
const MappingPattern = "**/*.tsv"

// Columns a mapping file must have to be checked. Other columns (the
// ontology side) are ignored.
const (
	mappingTermColumn = "vocabulary_term"
	mappingIDColumn   = "vocabulary_id"
)

// Mappings checks every mapping file below dir against the vocabulary of
// scan: each row's vocabulary_id must name a live term and its
// vocabulary_term must be that term's name. Files without both columns are
// skipped with an informational finding. The returned error is fatal.
func Mappings(scan *store.Scan, dir string) ([]Finding, error) {
	live := make(map[string]string)
	for _, loc := range scan.Vocabulary.Locations() {
		for _, rec := range scan.Vocabulary.Files[loc] {
			live[rec.ID] = rec.Name
		}
	}
	retired := make(map[string]string)
	for _, rec := range scan.Vocabulary.Retired {
		retired[rec.ID] = rec.Name
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), MappingPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	slices.Sort(matches)

	var out []Finding
	for _, rel := range matches {
		file := filepath.Join(dir, filepath.FromSlash(rel))
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read mapping: %w", err)
		}
		out = append(out, checkMappingFile(file, data, live, retired)...)
	}
	return out, nil
}

func checkMappingFile(file string, data []byte, live, retired map[string]string) []Finding {
	finding := func(sev Severity, line int, format string, args ...any) Finding {
		return Finding{Kind: KindMapping, Severity: sev, File: file, Line: line, Message: fmt.Sprintf(format, args...)}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return []Finding{finding(SeverityError, 1, "unreadable header: %v", err)}
	}
	termCol, idCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case mappingTermColumn:
			termCol = i
		case mappingIDColumn:
			idCol = i
		}
	}
	if termCol < 0 || idCol < 0 {
		return []Finding{finding(SeverityInfo, 0, "skipped: no %s and %s columns", mappingTermColumn, mappingIDColumn)}
	}

	var out []Finding
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return append(out, finding(SeverityError, line, "unreadable row: %v", err))
		}
		line, _ := r.FieldPos(0)

		var id, term string
		if idCol < len(fields) {
			id = strings.TrimSpace(fields[idCol])
		}
		if termCol < len(fields) {
			term = vocab.NormalizeName(fields[termCol])
		}

		switch want, ok := live[id]; {
		case id == "":
			out = append(out, finding(SeverityError, line, "empty %s", mappingIDColumn))
		case term == "":
			out = append(out, finding(SeverityError, line, "empty %s", mappingTermColumn))
		case !ok && retired[id] != "":
			out = append(out, finding(SeverityError, line, "%s was retired from %s", id, retired[id]))
		case !ok:
			out = append(out, finding(SeverityError, line, "%s not found in vocabulary", id))
		case term != want:
			out = append(out, finding(SeverityError, line, "term mismatch for %s: mapping has %q, vocabulary has %q", id, term, want))
		}
	}
	return out
}
