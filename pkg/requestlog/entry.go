// Package requestlog keeps a bounded in-memory log of requests the
// simulation engine answered. Entries are appended as responses are
// written and read back through the management API, newest first.
package requestlog

import "time"

// Entry describes one intercepted request and the response the engine
// produced for it.
type Entry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Method         string    `json:"method"`
	Path           string    `json:"path"`
	QueryString    string    `json:"queryString,omitempty"`
	RemoteAddr     string    `json:"remoteAddr,omitempty"`
	Matched        string    `json:"matched"`
	ResponseStatus int       `json:"responseStatus"`
	DurationMs     int       `json:"durationMs"`
	Recorded       bool      `json:"recorded,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Filter narrows List results. Zero-valued fields match every entry.
type Filter struct {
	Method string // exact, case-insensitive
	Path   string // prefix match on the request path
	Status int    // exact response status
	Limit  int    // max entries returned, 0 for all
	Offset int    // entries skipped from the newest end
}
