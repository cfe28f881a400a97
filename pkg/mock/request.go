package mock

import (
	"encoding/json"
	"maps"
	"net/http"
	"net/url"
)

// Request is the read-only, normalized view of an intercepted HTTP
// request handed to route handlers. It is created per request and
// discarded after handling; the JSON tags exist so recordings can
// snapshot it.
type Request struct {
	// URL is the path-only portion of the request URL.
	URL string `json:"url"`

	// Method is the HTTP method as received.
	Method string `json:"method"`

	// Params holds the path parameters bound by the matcher.
	Params map[string]string `json:"params,omitempty"`

	// Query holds the query string flattened to single values; the last
	// value wins when a parameter repeats.
	Query map[string]string `json:"query,omitempty"`

	// Body is the parsed request body: the decoded JSON value when the
	// body parses, otherwise the raw text. Nil when the request carried
	// no body. The raw-text fallback is a documented contract, not an
	// error path.
	Body any `json:"body,omitempty"`

	// Headers holds the request headers flattened to their first value.
	Headers map[string]string `json:"headers,omitempty"`

	// RemoteAddr is the client address, for logging and recordings.
	RemoteAddr string `json:"remoteAddr,omitempty"`
}

// NewRequest normalizes a raw HTTP request. The matcher's params and the
// pre-buffered body (nil when the method carries none) are attached
// as-is; normalization itself never fails.
func NewRequest(r *http.Request, params map[string]string, body []byte) *Request {
	if params == nil {
		params = map[string]string{}
	}
	return &Request{
		URL:        r.URL.Path,
		Method:     r.Method,
		Params:     params,
		Query:      FlattenQuery(r.URL.Query()),
		Body:       ParseBody(body),
		Headers:    FlattenHeaders(r.Header),
		RemoteAddr: r.RemoteAddr,
	}
}

// Clone returns a copy of the request with its own maps, for snapshots
// that outlive the request. The parsed body value is shared; nothing
// mutates it after parsing.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	c.Params = maps.Clone(r.Params)
	c.Query = maps.Clone(r.Query)
	c.Headers = maps.Clone(r.Headers)
	return &c
}

// FlattenQuery collapses multi-valued query parameters into a flat map.
// The last value wins on duplicates.
func FlattenQuery(values url.Values) map[string]string {
	flat := make(map[string]string, len(values))
	for name, vals := range values {
		if len(vals) > 0 {
			flat[name] = vals[len(vals)-1]
		}
	}
	return flat
}

// FlattenHeaders collapses headers to their first value, keeping the
// canonical header names.
func FlattenHeaders(h http.Header) map[string]string {
	flat := make(map[string]string, len(h))
	for name, vals := range h {
		if len(vals) > 0 {
			flat[name] = vals[0]
		}
	}
	return flat
}

// ParseBody decodes a request body as JSON, falling back to the raw text
// when it does not parse. It never fails; an empty body yields nil.
func ParseBody(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}

// CarriesBody reports whether a method conventionally carries a request
// body the engine should buffer and parse.
func CarriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}
