// Package journal records every operation attempted against a vocabulary in
// a SQLite database.
//
// The journal is an audit trail, not a source of truth: the terms and
// vocabulary trees never depend on it, and a missing or deleted journal
// changes nothing about how operations behave. Entries written by one
// command or one batch file share a run id (a UUIDv7, so runs sort by start
// time).
//
// Usage:
//
//	j, err := journal.Open(".onvoc/journal.db")
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	seq, err := j.Record(ctx, journal.Entry{RunID: runID, Source: "cli", Op: "add", ...})
//	entries, err := j.List(ctx, journal.Filter{RunID: runID})
package journal
