// Package registry loads route definitions from disk and serves the
// engine immutable snapshots of the composed route set.
//
// Routes come from three sources: the active scenario, the watched mock
// directory, and code registration. The registry composes them in that
// order into a single slice and swaps it atomically whenever a source
// changes, so a request that captured a snapshot always finishes against
// a complete, consistent set.
package registry
