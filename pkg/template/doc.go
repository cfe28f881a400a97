// Package template provides synthetic data generation and response body
// placeholder rendering.
//
// # Data Templates
//
// Named generators produce randomized payloads for common API shapes:
//
//	user     account-style object with name, email, and timestamps
//	product  catalog item with price and stock fields
//	article  authored content with title, body, and tags
//	list     paginated envelope of generic items
//	error    API error body with code, message, and status
//
// Generate(name, n) returns one value for n <= 1 or a slice of n
// independently generated values. Every call is freshly randomized.
//
// # Placeholders
//
// Response bodies may embed {{...}} placeholders resolved per request:
//
//	{{params.name}}   path parameter captured by the route pattern
//	{{query.name}}    query string parameter
//	{{headers.name}}  request header value
//	{{body.path}}     dot path into the parsed JSON request body
//	{{method}}        request method
//	{{path}}          request path
//	{{uuid}}          random UUID v4
//	{{now}}           current time in RFC3339 format
//	{{timestamp}}     current Unix timestamp
//
// Unknown placeholders render as empty strings.
package template
