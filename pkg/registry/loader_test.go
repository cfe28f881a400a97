package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMockFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileArray(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "routes.json", `[
		{"url": "/api/users", "method": "GET", "response": [{"id": 1}]},
		{"url": "/api/users/:id", "method": "GET", "statusCode": 200, "response": {"id": 1}}
	]`)

	routes, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "/api/users", routes[0].URL)
	assert.Equal(t, "GET", routes[0].Method)
	assert.Equal(t, "/api/users/:id", routes[1].URL)
}

func TestLoadFileSingleObject(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "route.json",
		`{"url": "/ping", "response": "pong"}`)

	routes, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "/ping", routes[0].URL)
	assert.Equal(t, "pong", routes[0].Body)
}

func TestLoadFileShorthandJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "api.json", `{
		"GET /api/users": [{"id": 1}],
		"POST /api/users": {"created": true},
		"/health": {"status": "ok"},
		"DELETE /api/users/:id": null
	}`)

	routes, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	require.Len(t, routes, 4)

	// declaration order is preserved
	assert.Equal(t, "GET /api/users", routes[0].Label())
	assert.Equal(t, "POST /api/users", routes[1].Label())
	assert.Equal(t, "GET /health", routes[2].Label(), "method defaults to GET")
	assert.Equal(t, "DELETE /api/users/:id", routes[3].Label())

	assert.Equal(t, map[string]any{"created": true}, routes[1].Body)
	assert.Nil(t, routes[3].Body)
}

func TestLoadFileShorthandYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "api.yaml", `
GET /api/products:
  - name: one
POST /api/products:
  created: true
/status:
  ok: true
`)

	routes, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	require.Len(t, routes, 3)
	assert.Equal(t, "GET /api/products", routes[0].Label())
	assert.Equal(t, "POST /api/products", routes[1].Label())
	assert.Equal(t, "GET /status", routes[2].Label())
}

func TestLoadFileYAMLRouteList(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "routes.yaml", `
- url: /api/orders
  method: GET
  response:
    - id: 1
- url: /api/orders/:id
  method: DELETE
  statusCode: 204
`)

	routes, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, 204, routes[1].StatusCode)
}

func TestLoadFileYAMLSingleRoute(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "route.yml", `
url: /api/ping
method: GET
response: pong
`)

	routes, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "/api/ping", routes[0].URL)
}

func TestLoadFileBadShorthandKey(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "bad.json", `{"users": {"id": 1}}`)

	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start with /")
}

func TestLoadFileInvalidRouteRejectsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "routes.json", `[
		{"url": "/ok", "response": "fine"},
		{"url": "/bad", "method": "TRACE-ISH", "response": "nope"}
	]`)

	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "route 2")
}

func TestLoadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "empty.json", "  \n")

	_, err := NewLoader().LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "broken.json", `{"GET /x": `)

	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON")
}

func TestLoadDirectoryRecursive(t *testing.T) {
	dir := t.TempDir()
	writeMockFile(t, dir, "b.json", `{"GET /b": {}}`)
	writeMockFile(t, dir, "a.json", `{"GET /a": {}}`)
	writeMockFile(t, dir, filepath.Join("nested", "c.yaml"), `
GET /c: {}
`)

	result, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	assert.Equal(t, 3, result.FileCount)
	require.Len(t, result.Routes, 3)

	// lexicographic path order: a.json, b.json, nested/c.yaml
	assert.Equal(t, "/a", result.Routes[0].URL)
	assert.Equal(t, "/b", result.Routes[1].URL)
	assert.Equal(t, "/c", result.Routes[2].URL)
}

func TestLoadSkipsUnderscoreFiles(t *testing.T) {
	dir := t.TempDir()
	writeMockFile(t, dir, "_draft.json", `{"GET /draft": {}}`)
	writeMockFile(t, dir, "live.json", `{"GET /live": {}}`)

	result, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "/live", result.Routes[0].URL)
}

func TestLoadRecoversPerFile(t *testing.T) {
	dir := t.TempDir()
	writeMockFile(t, dir, "bad.json", `not json at all`)
	writeMockFile(t, dir, "good.json", `{"GET /ok": {}}`)

	result, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "/ok", result.Routes[0].URL)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Path, "bad.json")
	assert.Equal(t, 1, result.FileCount, "only clean files are counted")
}

func TestLoadMissingDirectory(t *testing.T) {
	result, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, result.Routes)
	assert.Empty(t, result.Errors)
}

func TestLoadPathIsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeMockFile(t, dir, "file.json", `{}`)

	_, err := NewLoader().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLoadIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	writeMockFile(t, dir, "notes.txt", "GET /nope")
	writeMockFile(t, dir, "api.json", `{"GET /yes": {}}`)

	result, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "/yes", result.Routes[0].URL)
}

func TestLoadWithFilters(t *testing.T) {
	dir := t.TempDir()
	writeMockFile(t, dir, "api.json", `{"GET /api": {}}`)
	writeMockFile(t, dir, filepath.Join("fixtures", "extra.json"), `{"GET /extra": {}}`)

	loader := NewLoader()
	loader.SetFilters(nil, []string{"fixtures/**"})

	result, err := loader.Load(dir)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "/api", result.Routes[0].URL)

	loader = NewLoader()
	loader.SetFilters([]string{"fixtures/*.json"}, nil)

	result, err = loader.Load(dir)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "/extra", result.Routes[0].URL)
}

func TestLoadErrorUnwrap(t *testing.T) {
	dir := t.TempDir()
	writeMockFile(t, dir, "bad.yaml", "key: [unterminated")

	result, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "bad.yaml")
	assert.Error(t, result.Errors[0].Unwrap())
}
