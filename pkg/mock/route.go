package mock

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr/vm"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/devmock/devmock/internal/matching"
)

// HandlerFunc generates a response for a matched request. A handler may
// write through the Response itself and return nil, or return a value
// for the engine to serialize as JSON. Returning a value after a
// terminal write is ignored; the engine never writes twice.
type HandlerFunc func(req *Request, res *Response) (any, error)

// Route is a single mock rule: a (method, URL pattern) pair and the
// response it produces. Routes are immutable once published to the
// registry; mutating a Route concurrently with request handling is not
// supported.
type Route struct {
	// URL is a literal path with optional :name segments, or a regular
	// expression when Regex is true. Literal patterns match the whole
	// request path; regex patterns are searched against it.
	URL string `json:"url" yaml:"url"`

	// Method restricts the route to one HTTP verb, compared
	// case-insensitively. Empty matches any method.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// Regex marks URL as a regular expression.
	Regex bool `json:"regex,omitempty" yaml:"regex,omitempty"`

	// Delay is an artificial response delay in milliseconds. Zero falls
	// back to the engine's configured default delay.
	Delay int `json:"delay,omitempty" yaml:"delay,omitempty"`

	// StatusCode overrides the response status. Zero means 200.
	StatusCode int `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`

	// Headers are set on every response produced by this route.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Body is the static response value. String bodies (and string
	// leaves inside object bodies) may carry {{...}} placeholders that
	// are rendered per request.
	Body any `json:"response,omitempty" yaml:"response,omitempty"`

	// Template names a data template to generate the response from.
	// Count controls how many values are produced (0 and 1 mean one).
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	Count    int    `json:"count,omitempty" yaml:"count,omitempty"`

	// Handler is a code-registered response generator. Handlers never
	// appear in route files and are stripped on serialization, which is
	// why scenario files hold static routes only.
	Handler HandlerFunc `json:"-" yaml:"-"`

	// Optional extended match criteria. All declared criteria must hold
	// in addition to method and URL; otherwise matching moves on to the
	// next route.
	Query        map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
	MatchHeaders map[string]string `json:"matchHeaders,omitempty" yaml:"matchHeaders,omitempty"`
	BodyJSONPath map[string]any    `json:"bodyJsonPath,omitempty" yaml:"bodyJsonPath,omitempty"`
	When         string            `json:"when,omitempty" yaml:"when,omitempty"`

	// Schema is an optional JSON Schema the request body must satisfy
	// once the route has matched. Violations produce a 400 response.
	Schema map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`

	compileOnce sync.Once
	pattern     *regexp.Regexp
	condition   *vm.Program
	compileErr  error

	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
}

// Compile precompiles the route's URL pattern and when-condition. The
// work runs once; repeated calls return the cached result. Loaders call
// this up front so broken definitions surface as load errors instead of
// silently unmatchable routes.
func (r *Route) Compile() error {
	r.compileOnce.Do(func() {
		if r.Regex {
			r.pattern, r.compileErr = matching.CompileRegex(r.URL)
		} else {
			r.pattern, r.compileErr = matching.CompileLiteral(r.URL)
		}
		if r.compileErr != nil {
			r.compileErr = fmt.Errorf("url %q: %w", r.URL, r.compileErr)
			return
		}

		if r.When != "" {
			r.condition, r.compileErr = matching.CompileCondition(r.When)
			if r.compileErr != nil {
				r.compileErr = fmt.Errorf("when: %w", r.compileErr)
			}
		}
	})
	return r.compileErr
}

// Pattern returns the compiled URL pattern.
func (r *Route) Pattern() (*regexp.Regexp, error) {
	if err := r.Compile(); err != nil {
		return nil, err
	}
	return r.pattern, nil
}

// Condition returns the compiled when-expression, or nil when the route
// declares none.
func (r *Route) Condition() (*vm.Program, error) {
	if err := r.Compile(); err != nil {
		return nil, err
	}
	return r.condition, nil
}

// BodySchema returns the compiled JSON Schema for request-body
// validation, or nil when the route declares none. Compilation runs once
// and is cached.
func (r *Route) BodySchema() (*jsonschema.Schema, error) {
	if r.Schema == nil {
		return nil, nil
	}
	r.schemaOnce.Do(func() {
		r.compiledSchema, r.schemaErr = compileSchema(r.Schema)
	})
	return r.compiledSchema, r.schemaErr
}

// compileSchema round-trips the schema through JSON so YAML-decoded
// values get consistent types, then compiles it as Draft 2020-12.
func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile("schema.json")
}

// Label renders the route for logs and listings, e.g. "GET /api/users/:id".
func (r *Route) Label() string {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = "ANY"
	}
	return method + " " + r.URL
}
