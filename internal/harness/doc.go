// Package harness runs vocabulary scenarios end to end against real trees.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: tremor_lifecycle
//	description: "Re-adding a removed term issues a fresh identifier"
//	run_id: run-tremor
//	seed:
//	  terms/Disorders/Neurological_Disorders.txt: ""
//	  vocabulary/Disorders/Neurological_Disorders.tsv: "term\tvocabulary_id\tcomment\n"
//	setup:
//	  - add "Ataxia" "Disorders/Neurological_Disorders"
//	flow:
//	  - op: add "Tremor" "Disorders/Neurological_Disorders"
//	    expect:
//	      outcome: ok
//	      vocabulary_id: ONVOC:0000002
//	assertions:
//	  - type: term_exists
//	    path: Disorders/Neurological_Disorders/Tremor
//	    vocabulary_id: ONVOC:0000002
//	  - type: trees_agree
//
// Seed keys start with "terms/" or "vocabulary/"; a key ending in "/" creates
// an empty directory. Setup and flow steps are batch script lines. Setup
// lines must succeed and are not journaled; flow lines run as one script, so
// step N is script line N.
//
// # Assertion Types
//
//   - term_exists: the term is live, optionally with the given id and comment
//   - term_absent: no live term at path
//   - file_equals: a seeded-tree file has exactly the given content
//   - file_absent: a seeded-tree file does not exist
//   - journal_count: the number of journal entries matching op and outcome
//   - trees_agree: both trees load without drift
//
// # Deterministic Testing
//
// Every scenario runs in a fresh temporary tree pair with an in-memory
// journal, a fixed run id (scenario.run_id or "test-run-default") and a
// deterministic clock, so the final snapshot is byte-identical across runs
// and can be compared against testdata/golden/<name>.golden.
package harness
