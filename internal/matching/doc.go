// Package matching provides the request matching primitives used by the
// engine: URL pattern compilation (literal paths with :name parameters,
// or regular expressions), method comparison, and the optional extended
// criteria a route may declare (query and header equality, JSONPath body
// conditions, when-expressions).
//
// Matching itself is pure: the engine iterates an immutable route
// snapshot in registration order and the first route whose criteria all
// hold wins. Nothing in this package performs I/O or holds state.
package matching
