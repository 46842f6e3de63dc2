// Package form is the aggregation engine. A Form mirrors the Web Template
// tree as a forest of repeat instances, each bound node instance owning one
// binding.Field. Collect reduces the forest to a FLAT document and Hydrate
// reconciles the forest with one.
//
// Repeat indices are stable identifiers: removing an instance never
// renumbers its siblings, so keys written for index 2 stay valid after index
// 0 is removed.
//
// A Form is not safe for concurrent use. Callers serialise mutations, which
// also guarantees Collect and Hydrate never observe a half-mutated forest.
package form
