package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/onvoc/internal/vocab"
)

// Header columns of every vocabulary file.
var vocabularyHeader = []string{"term", "vocabulary_id", "comment"}

// Record is one data row of a vocabulary file.
type Record struct {
	Name    string `json:"term"`
	ID      string `json:"vocabulary_id"`
	Comment string `json:"comment,omitempty"`

	// Line is the 1-based line the row was read from, 0 for new rows.
	Line int `json:"-"`
}

// decodeTermsFile parses a terms list. Blank lines are skipped and names
// are normalized; a name listed twice is a structural error.
func decodeTermsFile(file string, data []byte) ([]string, error) {
	var names []string
	seen := make(map[string]int)

	for i, line := range strings.Split(string(data), "\n") {
		name := vocab.NormalizeName(strings.TrimSuffix(line, "\r"))
		if name == "" {
			continue
		}
		if first, dup := seen[name]; dup {
			return nil, vocab.NewMalformedFile(file, i+1, "term %q already listed on line %d", name, first)
		}
		seen[name] = i + 1
		names = append(names, name)
	}
	return names, nil
}

// encodeTermsFile renders names one per line. An empty list is an empty file.
func encodeTermsFile(names []string) []byte {
	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// decodeVocabularyFile parses a subcategory TSV. The header must match
// exactly, every row must have exactly three fields, and a term may be
// listed once.
func decodeVocabularyFile(file string, data []byte) ([]Record, error) {
	return decodeRecords(file, data, true)
}

// decodeRetiredFile parses the retired ledger. A path that was removed,
// re-added and removed again is listed once per retired identifier.
func decodeRetiredFile(file string, data []byte) ([]Record, error) {
	return decodeRecords(file, data, false)
}

func decodeRecords(file string, data []byte, uniqueNames bool) ([]Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	r.FieldsPerRecord = len(vocabularyHeader)
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, vocab.NewMalformedFile(file, 1, "missing header row")
	}
	if err != nil {
		return nil, csvError(file, err)
	}
	if !equalFields(header, vocabularyHeader) {
		return nil, vocab.NewMalformedFile(file, 1, "header must be %q, got %q",
			strings.Join(vocabularyHeader, "\t"), strings.Join(header, "\t"))
	}

	var records []Record
	seen := make(map[string]int)
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(file, err)
		}
		line, _ := r.FieldPos(0)

		rec := Record{
			Name:    vocab.NormalizeName(fields[0]),
			ID:      strings.TrimSpace(fields[1]),
			Comment: fields[2],
			Line:    line,
		}
		if rec.Name == "" {
			return nil, vocab.NewMalformedFile(file, line, "empty term")
		}
		if first, dup := seen[rec.Name]; dup && uniqueNames {
			return nil, vocab.NewMalformedFile(file, line, "term %q already listed on line %d", rec.Name, first)
		}
		seen[rec.Name] = line
		records = append(records, rec)
	}
	return records, nil
}

// encodeVocabularyFile renders the header and one row per record. Fields
// are written as they were read; only a field the reader could not take
// back verbatim (tab, line break, leading quote) is quoted.
func encodeVocabularyFile(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	writeRow(&buf, vocabularyHeader)
	for _, rec := range records {
		writeRow(&buf, []string{rec.Name, rec.ID, rec.Comment})
	}
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte('\t')
		}
		if needsQuotes(f) {
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
			buf.WriteByte('"')
			continue
		}
		buf.WriteString(f)
	}
	buf.WriteByte('\n')
}

func needsQuotes(field string) bool {
	return strings.HasPrefix(field, `"`) || strings.ContainsAny(field, "\t\r\n")
}

// decodeIndexIDs extracts the vocabulary_id column of a legacy index file.
// Index files predate the three-column format, so the column is located by
// name and rows that do not parse are skipped.
func decodeIndexIDs(data []byte, scheme vocab.IDScheme) []int64 {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil
	}
	col := 1
	for i, h := range header {
		if strings.TrimSpace(h) == "vocabulary_id" {
			col = i
		}
	}

	var ids []int64
	for {
		fields, err := r.Read()
		if err != nil {
			break
		}
		if len(fields) <= col {
			continue
		}
		if n, err := scheme.Parse(strings.TrimSpace(fields[col])); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}

func csvError(file string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return vocab.NewMalformedFile(file, pe.Line, "%v", pe.Err)
	}
	return fmt.Errorf("read %s: %w", file, err)
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimPrefix(a[i], "\ufeff") != b[i] {
			return false
		}
	}
	return true
}
