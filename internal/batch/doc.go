// Package batch parses operation scripts and applies them line by line.
//
// A script holds one operation per line:
//
//	# comments and blank lines are ignored
//	add "Tremor" "Disorders/Neurological_Disorders"
//	remove "Disorders/Neurological_Disorders/Ataxia"
//	move "Disorders/Neurological_Disorders/Tremor" "Disorders/Movement_Disorders/Tremor"
//
// Arguments are double-quoted; \" and \\ escape a quote and a backslash.
//
// Execution is apply-and-report: each line commits on success, and a failed
// line is reported with its number without undoing earlier lines. The Runner
// continues past failed lines unless configured to stop at the first one.
package batch
