// Package check reports consistency problems in a terms/vocabulary tree pair
// without modifying it.
//
// Findings carry a severity. Errors (drift, malformed files) prevent the
// engine from loading the trees; warnings (naming, shadowing) and
// informational findings (homonyms) do not. Mapping files produced by the
// external pipeline can be checked against the vocabulary with WithMappings.
package check
