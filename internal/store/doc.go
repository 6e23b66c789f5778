// Package store holds the Term Store and the Vocabulary Ledger: the two
// on-disk trees and the single in-memory model merged from them.
//
// Layout:
//
//	terms/<Category>/<Subcategory>.txt       newline-delimited term names
//	vocabulary/<Category>/<Subcategory>.tsv  term \t vocabulary_id \t comment
//	vocabulary/retired.tsv                   identifiers removed from the vocabulary
//
// The terms tree is authoritative for existence and location, the
// vocabulary tree for identity and comment. Load refuses a pair whose term
// sets differ (vocab.CodeDrift) and rejects structurally broken files
// (vocab.CodeMalformedFile); it never repairs either tree on its own.
//
// Persistence is incremental: Save writes only the subcategory files whose
// content changed since load, each through a temp file and a rename, so
// untouched files never churn in version control.
package store
