// Package terminology defines the boundary between coded-text search fields
// and an external terminology service. A Searcher answers free-text queries,
// optionally narrowed by ECL style constraints built from Filters. Session
// keeps the per-field paging and supersedes in-flight lookups, and Handler
// exposes any Searcher over HTTP with the /snomed/search contract the
// HTTPSearcher client speaks.
package terminology
