// Package engine composes the simulation engine: route registry,
// directory loader and watcher, scenario manager, request recorder,
// data templates, and the bounded request log. A host embeds it by
// consulting Handle from its request pipeline; the management API in
// AdminHandler exposes the moving parts over HTTP.
//
// Lifecycle is New, SetLogger, Start, serve, Stop. SetLogger must be
// called before Start; the remaining methods are safe for concurrent
// use once Start has returned.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/devmock/devmock/pkg/config"
	"github.com/devmock/devmock/pkg/logging"
	"github.com/devmock/devmock/pkg/mock"
	"github.com/devmock/devmock/pkg/recording"
	"github.com/devmock/devmock/pkg/registry"
	"github.com/devmock/devmock/pkg/requestlog"
	"github.com/devmock/devmock/pkg/scenario"
	"github.com/devmock/devmock/pkg/template"
)

// Engine is the composition root. Every collaborator is an explicit
// handle; nothing lives at package level, so two engines in one process
// stay independent.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *registry.Registry
	loader    *registry.Loader
	watcher   *registry.Watcher
	scenarios *scenario.Manager
	recorder  *recording.Recorder
	renderer  *template.Renderer
	requests  *requestlog.Store
}

// New builds an engine from cfg. A nil cfg means defaults; a non-nil
// one is normalized in place. The filesystem is not touched until
// Start.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg.Normalize()
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logging.Nop(),
		registry:  registry.New(),
		loader:    registry.NewLoader(),
		scenarios: scenario.NewManager(filepath.Join(cfg.Dir, "scenarios")),
		recorder:  recording.NewRecorder(filepath.Join(cfg.Dir, "recordings")),
		renderer:  template.NewRenderer(),
		requests:  requestlog.NewStore(cfg.RequestLogSize),
	}

	// Scenario and recording files live inside the mock root; keep the
	// route loader away from them.
	exclude := append([]string{"scenarios/**", "recordings/**"}, cfg.Exclude...)
	e.loader.SetFilters(cfg.Include, exclude)

	e.scenarios.OnSwitch(func(s *scenario.Scenario) {
		e.registry.SetScenarioRoutes(s.Routes)
	})

	return e
}

// SetLogger replaces the no-op default on the engine and every
// collaborator. Call before Start.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	e.logger = logger
	e.registry.SetLogger(logger)
	e.loader.SetLogger(logger)
	e.scenarios.SetLogger(logger)
	e.recorder.SetLogger(logger)
	e.renderer.SetLogger(logger)
	if e.watcher != nil {
		e.watcher.SetLogger(logger)
	}
}

// Config returns the engine's normalized configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Start initializes persisted state and begins serving: the scenario
// manager wakes up (creating the protected default scenario on first
// run), route files are loaded from the mock directory, and the file
// watcher starts when enabled. A disabled engine starts successfully
// and does nothing.
//
// The context bounds the watcher goroutine; canceling it stops
// watching without stopping the engine.
func (e *Engine) Start(ctx context.Context) error {
	if !e.cfg.IsEnabled() {
		e.logger.Info("mock engine disabled")
		return nil
	}

	if err := e.scenarios.Init(); err != nil {
		return fmt.Errorf("init scenarios: %w", err)
	}

	result, err := e.loader.Load(e.cfg.Dir)
	if err != nil {
		return fmt.Errorf("load %s: %w", e.cfg.Dir, err)
	}
	e.registry.SetFileRoutes(result.Routes)
	e.logger.Info("mock routes loaded",
		"dir", e.cfg.Dir,
		"routes", len(result.Routes),
		"files", result.FileCount,
		"errors", len(result.Errors),
	)

	if e.cfg.WatchEnabled() {
		if err := e.startWatcher(ctx); err != nil {
			// The engine still serves what was loaded; it just will not
			// pick up file changes.
			e.logger.Warn("file watching disabled", "dir", e.cfg.Dir, "error", err)
		}
	}

	return nil
}

func (e *Engine) startWatcher(ctx context.Context) error {
	watcher, err := registry.NewWatcher(e.cfg.Dir, e.loader, func(result *registry.LoadResult) {
		e.registry.SetFileRoutes(result.Routes)
	})
	if err != nil {
		return err
	}
	watcher.SetLogger(e.logger)
	if err := watcher.Start(ctx); err != nil {
		watcher.Stop()
		return err
	}
	e.watcher = watcher
	return nil
}

// Stop halts the file watcher. In-flight requests complete on their
// own; there is nothing else to wind down.
func (e *Engine) Stop() {
	if e.watcher != nil {
		e.watcher.Stop()
		e.watcher = nil
	}
}

// Register adds code-registered routes to the registry. They are
// matched after the active scenario's routes and after directory-loaded
// ones.
func (e *Engine) Register(routes ...*mock.Route) error {
	return e.registry.Register(routes...)
}

// Routes returns the current composed route snapshot.
func (e *Engine) Routes() []*mock.Route {
	return e.registry.Snapshot()
}

// Scenarios exposes the scenario manager for hosts that drive it
// directly instead of through the management API.
func (e *Engine) Scenarios() *scenario.Manager {
	return e.scenarios
}

// Recorder exposes the request recorder.
func (e *Engine) Recorder() *recording.Recorder {
	return e.recorder
}

// GenerateScenario converts a saved recording into a scenario. The
// scenario is created when missing; when it already exists its routes
// are replaced, so regenerating after a fresh recording is cheap.
// The result is not activated.
func (e *Engine) GenerateScenario(recordingName, scenarioName string) (*scenario.Scenario, error) {
	entries, err := e.recorder.Load(recordingName)
	if err != nil {
		return nil, err
	}
	routes := recording.Routes(entries)

	s, err := e.scenarios.Create(scenarioName, fmt.Sprintf("generated from recording %q", recordingName), routes)
	if errors.Is(err, scenario.ErrScenarioExists) {
		if err := e.scenarios.SetRoutes(scenarioName, routes); err != nil {
			return nil, err
		}
		return e.scenarios.Get(scenarioName)
	}
	if err != nil {
		return nil, err
	}
	e.logger.Info("scenario generated from recording",
		"recording", recordingName,
		"scenario", scenarioName,
		"routes", len(routes),
	)
	return s, nil
}
