// Package webtemplate parses openEHR Web Templates into an immutable node tree.
//
// A Web Template is the normalised JSON rendition of an operational template:
// every node carries its reference-model type, occurrence bounds, AQL path and,
// for data values, the input parts (suffixes) a form must collect. Parse
// validates the structural invariants the form engine relies on (required ids
// and rmTypes, coherent occurrences, unique sibling ids, unique bound paths and
// AQL paths that extend their repeating ancestors) and links every node to its
// parent so callers can walk the tree in both directions.
//
// Ids are only unique among siblings. FindNode keeps the historical depth-first
// "first match" contract; FindUnique and Lookup exist so callers can scope a
// lookup or have collisions reported instead of silently resolved.
package webtemplate
