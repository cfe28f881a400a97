package recording

import (
	"github.com/devmock/devmock/pkg/mock"
)

// skipReplayHeaders are response headers that are generated fresh per
// response and must not be replayed as static values from a recording.
var skipReplayHeaders = map[string]bool{
	"Date":              true,
	"Content-Length":    true,
	"Transfer-Encoding": true,
	"Connection":        true,
	"Keep-Alive":        true,
	"Server":            true,
	"X-Powered-By":      true,
	"Age":               true,
	"Expires":           true,
	"Last-Modified":     true,
	"ETag":              true,
}

// Route converts one entry to an equivalent static route: same URL,
// method, status, delay, and headers, with the captured body as the
// response.
func (e *RecordedRequest) Route() *mock.Route {
	var headers map[string]string
	for key, value := range e.Response.Headers {
		if skipReplayHeaders[key] {
			continue
		}
		if headers == nil {
			headers = make(map[string]string)
		}
		headers[key] = value
	}

	return &mock.Route{
		URL:        e.URL,
		Method:     e.Method,
		Delay:      e.Response.Delay,
		StatusCode: e.Response.StatusCode,
		Headers:    headers,
		Body:       e.Response.Body,
	}
}

// Routes converts a recording to routes, one per entry in capture
// order. Duplicate patterns are kept as-is; with first-match-wins
// dispatch the first capture answers and later duplicates are shadowed.
func Routes(entries []*RecordedRequest) []*mock.Route {
	routes := make([]*mock.Route, 0, len(entries))
	for _, e := range entries {
		routes = append(routes, e.Route())
	}
	return routes
}
