// Package openapi scaffolds mock routes from OpenAPI 3.x documents. One
// route is produced per (path, operation) pair, with the response body
// taken from the operation's examples, so a spec turns into a runnable
// mock directory in one step.
package openapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/devmock/devmock/pkg/mock"
)

// methodOrder fixes the order operations are emitted for a path.
var methodOrder = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// Import parses an OpenAPI 3.x document and converts every operation to
// a mock route. Paths come out sorted; `{param}` segments become
// `:param`. The response body is the first 2xx example (media-type
// example, named example, or schema example), falling back to a minimal
// body for the status.
func Import(data []byte) ([]*mock.Route, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse OpenAPI document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	if doc.Paths == nil {
		return []*mock.Route{}, nil
	}

	pathItems := doc.Paths.Map()
	paths := make([]string, 0, len(pathItems))
	for path := range pathItems {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	routes := make([]*mock.Route, 0, len(paths))
	for _, path := range paths {
		item := pathItems[path]
		for _, method := range methodOrder {
			op := operationFor(item, method)
			if op == nil {
				continue
			}

			route := operationRoute(path, method, op)
			if err := route.Validate(); err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			routes = append(routes, route)
		}
	}
	return routes, nil
}

// operationFor returns the operation for an HTTP method, or nil.
func operationFor(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case "GET":
		return item.Get
	case "POST":
		return item.Post
	case "PUT":
		return item.Put
	case "DELETE":
		return item.Delete
	case "PATCH":
		return item.Patch
	case "HEAD":
		return item.Head
	case "OPTIONS":
		return item.Options
	}
	return nil
}

// operationRoute converts one operation to a route.
func operationRoute(path, method string, op *openapi3.Operation) *mock.Route {
	status, resp := pickResponse(op.Responses)

	route := &mock.Route{
		URL:        convertPath(path),
		Method:     method,
		StatusCode: status,
	}

	if resp != nil {
		contentType, media := pickContent(resp.Content)
		if media != nil {
			route.Body = exampleValue(media)
			if contentType != "application/json" {
				route.Headers = map[string]string{"Content-Type": contentType}
			}
		}
	}

	if route.Body == nil && status != http.StatusNoContent {
		route.Body = defaultBody(status)
	}
	return route
}

// pickResponse selects the response an operation should mock: 200 first,
// then the other common success codes, then any 2xx, then the default
// response, then whatever is declared first.
func pickResponse(responses *openapi3.Responses) (int, *openapi3.Response) {
	if responses == nil || responses.Len() == 0 {
		return http.StatusOK, nil
	}
	refs := responses.Map()

	for _, key := range []string{"200", "201", "202", "204"} {
		if ref, ok := refs[key]; ok && ref != nil && ref.Value != nil {
			return statusFromKey(key), ref.Value
		}
	}

	keys := make([]string, 0, len(refs))
	for key := range refs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.HasPrefix(key, "2") && refs[key] != nil && refs[key].Value != nil {
			return statusFromKey(key), refs[key].Value
		}
	}
	if ref, ok := refs["default"]; ok && ref != nil && ref.Value != nil {
		return http.StatusOK, ref.Value
	}
	for _, key := range keys {
		if refs[key] != nil && refs[key].Value != nil {
			return statusFromKey(key), refs[key].Value
		}
	}
	return http.StatusOK, nil
}

// statusFromKey parses a responses-map key, treating non-numeric keys
// like "default" and "2XX" as 200.
func statusFromKey(key string) int {
	code, err := strconv.Atoi(key)
	if err != nil || code < 100 || code > 599 {
		return http.StatusOK
	}
	return code
}

// pickContent selects a media type, preferring application/json and
// falling back to the first content type in sorted order.
func pickContent(content openapi3.Content) (string, *openapi3.MediaType) {
	if len(content) == 0 {
		return "", nil
	}
	if media, ok := content["application/json"]; ok && media != nil {
		return "application/json", media
	}

	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if content[key] != nil {
			return key, content[key]
		}
	}
	return "", nil
}

// exampleValue extracts an example body from a media type: the inline
// example, then the first named example, then the schema's example.
func exampleValue(media *openapi3.MediaType) any {
	if media.Example != nil {
		return media.Example
	}

	if len(media.Examples) > 0 {
		names := make([]string, 0, len(media.Examples))
		for name := range media.Examples {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ref := media.Examples[name]
			if ref != nil && ref.Value != nil && ref.Value.Value != nil {
				return ref.Value.Value
			}
		}
	}

	if media.Schema != nil && media.Schema.Value != nil && media.Schema.Value.Example != nil {
		return media.Schema.Value.Example
	}
	return nil
}

// convertPath converts OpenAPI `{param}` segments to `:param`.
func convertPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") && len(part) > 2 {
			parts[i] = ":" + part[1:len(part)-1]
		}
	}
	return strings.Join(parts, "/")
}

// defaultBody synthesizes a minimal response body for operations that
// declare no example.
func defaultBody(status int) any {
	switch {
	case status == http.StatusOK:
		return map[string]any{"status": "ok"}
	case status == http.StatusCreated:
		return map[string]any{"id": 1, "created": true}
	case status >= 400:
		text := http.StatusText(status)
		if text == "" {
			return map[string]any{"status": status}
		}
		return map[string]any{"error": text}
	default:
		return map[string]any{"status": status}
	}
}
