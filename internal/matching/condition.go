package matching

import (
	"net/http"
	"strings"
)

// MatchMethod reports whether the request method satisfies the route
// method. An empty route method matches any request method; otherwise
// the comparison is case-insensitive.
func MatchMethod(routeMethod, requestMethod string) bool {
	return routeMethod == "" || strings.EqualFold(routeMethod, requestMethod)
}

// MatchQuery reports whether every expected query parameter is present
// in the request with an equal value. An empty expectation always holds.
func MatchQuery(expected, actual map[string]string) bool {
	for name, want := range expected {
		if actual[name] != want {
			return false
		}
	}
	return true
}

// MatchHeaders reports whether every expected header is present with an
// equal value. Header names are case-insensitive per the HTTP spec.
func MatchHeaders(expected map[string]string, headers http.Header) bool {
	for name, want := range expected {
		if headers.Get(name) != want {
			return false
		}
	}
	return true
}
