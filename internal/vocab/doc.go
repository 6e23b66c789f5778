// Package vocab defines the domain types shared by every other package:
// locations and paths of terms, the identifier scheme, name rules and the
// error kinds reported by the stores, the engine and the batch runner.
//
// vocab imports nothing internal. A term is identified by its full path
// Category/Subcategory/Name; its vocabulary_id is issued once and never
// changes or gets reused.
package vocab
