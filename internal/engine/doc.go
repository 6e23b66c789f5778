// Package engine is the Reconciliation Engine: it applies add, remove and
// move to a loaded tree pair and persists both trees before returning.
//
// Every operation validates completely before mutating anything, so a
// failed operation leaves memory and disk exactly as they were. Identifiers
// come from the Allocator, which derives the next value from everything the
// ledger has ever issued; removed identifiers are retired, never reissued.
//
// The engine is single-threaded and assumes exclusive ownership of both
// roots; callers serialize invocations externally.
package engine
