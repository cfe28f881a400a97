package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/devmock/devmock/pkg/logging"
	"github.com/devmock/devmock/pkg/mock"
)

// DefaultIncludes returns the glob patterns scanned when none are
// configured.
func DefaultIncludes() []string {
	return []string{"**/*.json", "**/*.yaml", "**/*.yml"}
}

// LoadError records a route file that failed to parse or validate. The
// failure skips only that file; the rest of the directory still loads.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadResult is the outcome of scanning a mock directory.
type LoadResult struct {
	Routes    []*mock.Route
	FileCount int
	Errors    []*LoadError
}

// Loader reads route definition files from a directory tree.
type Loader struct {
	include []string
	exclude []string
	logger  *slog.Logger
}

// NewLoader creates a loader with the default include patterns.
func NewLoader() *Loader {
	return &Loader{include: DefaultIncludes(), logger: logging.Nop()}
}

// SetLogger replaces the loader's logger.
func (l *Loader) SetLogger(logger *slog.Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// SetFilters configures include and exclude globs (doublestar syntax,
// matched against the path relative to the load directory). An empty
// include list keeps the defaults.
func (l *Loader) SetFilters(include, exclude []string) {
	if len(include) > 0 {
		l.include = include
	}
	l.exclude = exclude
}

// Load scans dir recursively and parses every matching route file, in
// lexicographic path order. Files whose base name starts with "_" are
// skipped. A file that fails to parse or validate is recorded in the
// result's Errors and omitted; it never aborts the rest of the load.
// A missing directory is not an error and yields an empty result.
func (l *Loader) Load(dir string) (*LoadResult, error) {
	result := &LoadResult{}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("mock directory does not exist", "dir", dir)
			return result, nil
		}
		return nil, fmt.Errorf("failed to access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	files, err := l.findRouteFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	for _, path := range files {
		routes, err := l.LoadFile(path)
		if err != nil {
			loadErr := &LoadError{Path: path, Err: err}
			result.Errors = append(result.Errors, loadErr)
			l.logger.Warn("skipping route file", "path", path, "error", err)
			continue
		}
		result.Routes = append(result.Routes, routes...)
		result.FileCount++
	}
	return result, nil
}

// findRouteFiles walks dir and returns matching file paths in sorted
// order. Unreadable entries are skipped.
func (l *Loader) findRouteFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(l.include, rel) || matchAny(l.exclude, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// LoadFile parses a single route definition file. The document may be an
// array of route objects, a single route object, or an object map of
// "METHOD /path" keys to static response bodies (method defaults to GET
// when the key has no verb prefix). Every route must validate or the
// whole file is rejected.
func (l *Loader) LoadFile(path string) ([]*mock.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("file is empty")
	}

	var routes []*mock.Route
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		routes, err = parseYAMLRoutes(data)
	} else {
		routes, err = parseJSONRoutes(data)
	}
	if err != nil {
		return nil, err
	}

	for i, route := range routes {
		if err := route.Validate(); err != nil {
			return nil, fmt.Errorf("route %d (%s): %w", i+1, route.Label(), err)
		}
	}
	return routes, nil
}

func parseJSONRoutes(data []byte) ([]*mock.Route, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		return routesFromArray(v)
	case map[string]any:
		if _, ok := v["url"]; ok {
			route, err := routeFromObject(v)
			if err != nil {
				return nil, err
			}
			return []*mock.Route{route}, nil
		}
		return shorthandFromJSON(data)
	default:
		return nil, fmt.Errorf("unsupported document type %T", doc)
	}
}

func parseYAMLRoutes(data []byte) ([]*mock.Route, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty YAML document")
	}
	root := doc.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		var items []any
		if err := root.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode route list: %w", err)
		}
		return routesFromArray(items)
	case yaml.MappingNode:
		if mappingHasKey(root, "url") {
			var obj map[string]any
			if err := root.Decode(&obj); err != nil {
				return nil, fmt.Errorf("decode route: %w", err)
			}
			route, err := routeFromObject(obj)
			if err != nil {
				return nil, err
			}
			return []*mock.Route{route}, nil
		}
		return shorthandFromYAML(root)
	default:
		return nil, errors.New("unsupported document shape")
	}
}

func routesFromArray(items []any) ([]*mock.Route, error) {
	routes := make([]*mock.Route, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d is not a route object", i+1)
		}
		route, err := routeFromObject(obj)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// routeFromObject round-trips the decoded document through JSON so YAML
// and JSON sources produce identically typed routes.
func routeFromObject(obj map[string]any) (*mock.Route, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode route: %w", err)
	}
	var route mock.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	return &route, nil
}

// shorthandFromJSON re-parses an object document with the decoder token
// stream so the routes keep their declaration order; encoding/json maps
// would lose it.
func shorthandFromJSON(data []byte) ([]*mock.Route, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var routes []*mock.Route
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", keyTok)
		}
		var body any
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		route, err := routeFromShorthand(key, body)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// shorthandFromYAML walks the mapping node's content pairs, which keep
// the document's declaration order.
func shorthandFromYAML(root *yaml.Node) ([]*mock.Route, error) {
	var routes []*mock.Route
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		var body any
		if err := valNode.Decode(&body); err != nil {
			return nil, fmt.Errorf("value for %q: %w", keyNode.Value, err)
		}
		route, err := routeFromShorthand(keyNode.Value, body)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// shorthandVerbs are the method prefixes recognized in "METHOD /path"
// keys.
var shorthandVerbs = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

func routeFromShorthand(key string, body any) (*mock.Route, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("empty route key")
	}

	method := "GET"
	pattern := key
	if fields := strings.Fields(key); len(fields) == 2 && shorthandVerbs[strings.ToUpper(fields[0])] {
		method = strings.ToUpper(fields[0])
		pattern = fields[1]
	}
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("route key %q: path must start with /", key)
	}
	return &mock.Route{URL: pattern, Method: method, Body: body}, nil
}

func mappingHasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}
