package mock

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/devmock/devmock/internal/matching"
)

// ValidationError represents a route validation failure with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// validMethods are the HTTP verbs a route may restrict itself to.
var validMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// headerNameRegex validates HTTP header names (RFC 7230).
var headerNameRegex = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+\\-.^_`|~]+$")

// Validate checks the route definition and precompiles its pattern,
// condition, and JSONPath expressions. Loaders reject a file whose
// routes fail validation.
func (r *Route) Validate() error {
	if r.URL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}

	if r.Method != "" && !validMethods[strings.ToUpper(r.Method)] {
		return &ValidationError{Field: "method", Message: fmt.Sprintf("unknown HTTP method %q", r.Method)}
	}

	if r.StatusCode != 0 && (r.StatusCode < 100 || r.StatusCode > 599) {
		return &ValidationError{Field: "statusCode", Message: fmt.Sprintf("status code %d out of range", r.StatusCode)}
	}

	if r.Delay < 0 {
		return &ValidationError{Field: "delay", Message: "delay cannot be negative"}
	}

	if r.Count < 0 {
		return &ValidationError{Field: "count", Message: "count cannot be negative"}
	}

	// A route produces its response from exactly one source.
	sources := 0
	if r.Body != nil {
		sources++
	}
	if r.Template != "" {
		sources++
	}
	if r.Handler != nil {
		sources++
	}
	if sources > 1 {
		return &ValidationError{Field: "response", Message: "response, template, and handler are mutually exclusive"}
	}

	for name := range r.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "headers", Message: fmt.Sprintf("invalid header name %q", name)}
		}
	}

	for path := range r.BodyJSONPath {
		if err := matching.ValidateJSONPath(path); err != nil {
			return &ValidationError{Field: "bodyJsonPath", Message: err.Error()}
		}
	}

	if err := r.Compile(); err != nil {
		return &ValidationError{Field: "url", Message: err.Error()}
	}

	if r.Schema != nil {
		if _, err := r.BodySchema(); err != nil {
			return &ValidationError{Field: "schema", Message: err.Error()}
		}
	}

	return nil
}
