package engine

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmock/devmock/pkg/config"
	"github.com/devmock/devmock/pkg/mock"
	"github.com/devmock/devmock/pkg/recording"
	"github.com/devmock/devmock/pkg/scenario"
)

func boolPtr(b bool) *bool { return &b }

// testConfig returns a config rooted in a fresh temp dir with the file
// watcher off, so tests do not leak goroutines.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Dir:   t.TempDir(),
		Watch: boolPtr(false),
	}
}

func startedEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	e := New(cfg)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(e.Stop)
	return e
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	e := New(nil)
	require.NotNil(t, e)
	assert.Equal(t, config.DefaultDir, e.cfg.Dir)
	assert.Equal(t, config.DefaultPrefix, e.cfg.Prefix)
	assert.NotNil(t, e.registry)
	assert.NotNil(t, e.scenarios)
	assert.NotNil(t, e.recorder)
	assert.NotNil(t, e.requests)
}

func TestNewNormalizesConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Dir: "./somewhere"}
	New(cfg)
	assert.Equal(t, config.DefaultPrefix, cfg.Prefix)
	assert.Equal(t, int64(config.DefaultMaxBodyBytes), cfg.MaxBodyBytes)
}

func TestStartCreatesDefaultScenario(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	e := startedEngine(t, cfg)

	active := e.Scenarios().Active()
	require.NotNil(t, active)
	assert.Equal(t, scenario.DefaultName, active.Name)

	_, err := os.Stat(filepath.Join(cfg.Dir, "scenarios", "default.json"))
	assert.NoError(t, err, "default scenario should be persisted")
}

func TestStartLoadsRouteFiles(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	routeFile := `[{"url": "/api/ping", "method": "GET", "response": {"pong": true}}]`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "routes.json"), []byte(routeFile), 0o644))

	e := startedEngine(t, cfg)
	require.Len(t, e.Routes(), 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/ping", nil)
	require.True(t, e.Handle(rec, req))
	assert.JSONEq(t, `{"pong": true}`, rec.Body.String())
}

func TestStartIgnoresScenarioAndRecordingDirs(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	// Files under scenarios/ and recordings/ are engine state, not route
	// definitions; the loader must not trip over them.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Dir, "recordings"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Dir, "recordings", "old.json"),
		[]byte(`[{"id": "x", "url": "/api/x", "method": "GET"}]`), 0o644))

	e := startedEngine(t, cfg)
	assert.Empty(t, e.Routes(), "recordings must not load as routes")
}

func TestStartDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Enabled = boolPtr(false)
	e := startedEngine(t, cfg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/anything", nil)
	assert.False(t, e.Handle(rec, req))

	_, err := os.Stat(filepath.Join(cfg.Dir, "scenarios"))
	assert.True(t, os.IsNotExist(err), "disabled engine should not touch the filesystem")
}

func TestRegister(t *testing.T) {
	t.Parallel()

	e := startedEngine(t, testConfig(t))
	require.NoError(t, e.Register(&mock.Route{
		URL:    "/api/manual",
		Method: "GET",
		Body:   map[string]any{"source": "code"},
	}))
	assert.Len(t, e.Routes(), 1)

	err := e.Register(&mock.Route{URL: ""})
	assert.Error(t, err, "invalid routes must be rejected")
	assert.Len(t, e.Routes(), 1)
}

func TestStopIsNilSafe(t *testing.T) {
	t.Parallel()

	e := New(testConfig(t))
	e.Stop()
	e.Stop()
}

func TestGenerateScenario(t *testing.T) {
	t.Parallel()

	e := startedEngine(t, testConfig(t))
	require.NoError(t, e.Register(&mock.Route{
		URL:    "/api/orders/:id",
		Method: "GET",
		Body:   map[string]any{"id": "{{params.id}}", "status": "shipped"},
	}))

	require.NoError(t, e.Recorder().Start())
	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/orders/"+id, nil)
		require.True(t, e.Handle(rec, req))
	}
	require.NoError(t, e.Recorder().Stop())
	require.NoError(t, e.Recorder().Save("session"))

	s, err := e.GenerateScenario("session", "replay")
	require.NoError(t, err)
	assert.Equal(t, "replay", s.Name)
	assert.Len(t, s.Routes, 2, "one route per recorded pair")
	assert.False(t, s.Active, "generated scenarios are not activated")

	for _, r := range s.Routes {
		assert.True(t, strings.HasPrefix(r.URL, "/api/orders/"))
	}
}

func TestGenerateScenarioReplacesExisting(t *testing.T) {
	t.Parallel()

	e := startedEngine(t, testConfig(t))
	require.NoError(t, e.Register(&mock.Route{
		URL: "/api/ping", Method: "GET", Body: map[string]any{"pong": true},
	}))

	record := func(n int) {
		require.NoError(t, e.Recorder().Start())
		for i := 0; i < n; i++ {
			rec := httptest.NewRecorder()
			require.True(t, e.Handle(rec, httptest.NewRequest("GET", "/api/ping", nil)))
		}
		require.NoError(t, e.Recorder().Stop())
		require.NoError(t, e.Recorder().Save("session"))
		e.Recorder().Clear()
	}

	record(1)
	s, err := e.GenerateScenario("session", "replay")
	require.NoError(t, err)
	require.Len(t, s.Routes, 1)

	record(3)
	s, err = e.GenerateScenario("session", "replay")
	require.NoError(t, err)
	assert.Len(t, s.Routes, 3, "regeneration replaces the route set")
}

func TestGenerateScenarioMissingRecording(t *testing.T) {
	t.Parallel()

	e := startedEngine(t, testConfig(t))
	_, err := e.GenerateScenario("nope", "replay")
	assert.ErrorIs(t, err, recording.ErrRecordingNotFound)
}

func TestWatcherReloadsRoutes(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Watch = boolPtr(true)
	path := filepath.Join(cfg.Dir, "routes.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"url": "/api/v", "method": "GET", "response": "one"}]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := New(cfg)
	require.NoError(t, e.Start(ctx))
	defer e.Stop()
	require.Len(t, e.Routes(), 1)

	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"url": "/api/v", "method": "GET", "response": "two"},
		         {"url": "/api/w", "method": "GET", "response": "three"}]`), 0o644))

	require.Eventually(t, func() bool {
		return len(e.Routes()) == 2
	}, 5*time.Second, 50*time.Millisecond, "watcher should republish after a file change")
}
