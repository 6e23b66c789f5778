package journal

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Outcome of a journaled operation.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeNoOp  Outcome = "noop"
	OutcomeError Outcome = "error"
)

// Entry is one journaled operation.
type Entry struct {
	Seq    int64  `json:"seq"`
	RunID  string `json:"run_id"`
	Source string `json:"source"`

	// Line is the batch file line, 0 for single commands.
	Line int `json:"line,omitempty"`

	Op           string    `json:"op"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to,omitempty"`
	VocabularyID string    `json:"vocabulary_id,omitempty"`
	Outcome      Outcome   `json:"outcome"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Filter selects entries for List. Zero fields match everything.
type Filter struct {
	RunID        string
	VocabularyID string

	// Limit keeps only the most recent entries when positive.
	Limit int
}

// Record appends e and returns its sequence number. Seq and RecordedAt are
// assigned by the journal.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	if e.RunID == "" {
		return 0, fmt.Errorf("record entry: run id is required")
	}
	if e.Op == "" {
		return 0, fmt.Errorf("record entry: op is required")
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO entries
		(run_id, source, line, op, from_path, to_path, vocabulary_id, outcome, error_code, error_message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.RunID,
		e.Source,
		e.Line,
		e.Op,
		e.From,
		e.To,
		e.VocabularyID,
		string(e.Outcome),
		e.ErrorCode,
		e.ErrorMessage,
		j.clock.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("record entry: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record entry: %w", err)
	}
	return seq, nil
}

// List returns entries matching f in ascending sequence order.
//
// Returns an empty slice (not nil) if nothing matches.
func (j *Journal) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.VocabularyID != "" {
		where = append(where, "vocabulary_id = ?")
		args = append(args, f.VocabularyID)
	}

	query := `
		SELECT seq, run_id, source, line, op, from_path, to_path, vocabulary_id,
		       outcome, error_code, error_message, recorded_at
		FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			outcome    string
			recordedAt string
		)
		if err := rows.Scan(
			&e.Seq, &e.RunID, &e.Source, &e.Line, &e.Op, &e.From, &e.To, &e.VocabularyID,
			&outcome, &e.ErrorCode, &e.ErrorMessage, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("entry %d: parse recorded_at: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	// Newest first for LIMIT, oldest first for callers.
	slices.Reverse(entries)
	return entries, nil
}
