package registry

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/devmock/devmock/pkg/logging"
	"github.com/devmock/devmock/pkg/mock"
)

// Registry holds the composed route set. Readers take lock-free
// snapshots; writers replace one source and publish a brand-new slice.
// The matcher walks a snapshot in order, so scenario routes shadow
// directory routes, which shadow code-registered ones.
type Registry struct {
	mu       sync.Mutex
	snapshot atomic.Value // []*mock.Route
	scenario []*mock.Route
	files    []*mock.Route
	manual   []*mock.Route
	logger   *slog.Logger
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{logger: logging.Nop()}
	r.snapshot.Store([]*mock.Route{})
	return r
}

// SetLogger replaces the registry's logger.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Snapshot returns the current route set. The returned slice is
// immutable; a concurrent source update publishes a new slice and never
// touches one already handed out.
func (r *Registry) Snapshot() []*mock.Route {
	return r.snapshot.Load().([]*mock.Route)
}

// Len reports the size of the current snapshot.
func (r *Registry) Len() int {
	return len(r.Snapshot())
}

// SetScenarioRoutes replaces the active scenario's routes.
func (r *Registry) SetScenarioRoutes(routes []*mock.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenario = routes
	r.publish()
}

// SetFileRoutes replaces the routes loaded from the mock directory.
func (r *Registry) SetFileRoutes(routes []*mock.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = routes
	r.publish()
}

// Register appends code-registered routes. All routes must validate;
// on failure nothing is registered.
func (r *Registry) Register(routes ...*mock.Route) error {
	for i, route := range routes {
		if route == nil {
			return fmt.Errorf("route %d is nil", i+1)
		}
		if err := route.Validate(); err != nil {
			return fmt.Errorf("route %d (%s): %w", i+1, route.Label(), err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.manual = append(r.manual, routes...)
	r.publish()
	return nil
}

// publish composes the sources into a fresh slice and swaps it in.
// Callers must hold mu.
func (r *Registry) publish() {
	combined := make([]*mock.Route, 0, len(r.scenario)+len(r.files)+len(r.manual))
	combined = append(combined, r.scenario...)
	combined = append(combined, r.files...)
	combined = append(combined, r.manual...)
	r.snapshot.Store(combined)
	r.logger.Debug("published route snapshot",
		"scenario", len(r.scenario),
		"files", len(r.files),
		"registered", len(r.manual),
	)
}
