package scenario

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/devmock/devmock/pkg/logging"
	"github.com/devmock/devmock/pkg/mock"
)

// Manager owns the scenario set. All operations are serialized; the
// active scenario's routes are pushed to the registered OnSwitch
// callback whenever activation changes.
type Manager struct {
	mu        sync.Mutex
	dir       string
	scenarios map[string]*Scenario
	active    string
	onSwitch  func(*Scenario)
	logger    *slog.Logger
}

// NewManager creates a manager persisting to dir. Call Init before use.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:       dir,
		scenarios: make(map[string]*Scenario),
		logger:    logging.Nop(),
	}
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// OnSwitch registers the callback fired when the active scenario
// changes, including the initial activation during Init. Must be set
// before Init.
func (m *Manager) OnSwitch(fn func(*Scenario)) {
	m.onSwitch = fn
}

// Init loads persisted scenarios from disk and activates the default
// one. The default scenario is created (and persisted) if it does not
// exist yet. Scenario files that fail to parse are skipped with a
// warning.
func (m *Manager) Init() error {
	files, err := listScenarioFiles(m.dir)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.scenarios = make(map[string]*Scenario)
	for _, path := range files {
		s, err := loadScenario(path)
		if err != nil {
			m.logger.Warn("skipping scenario file", "path", path, "error", err)
			continue
		}
		m.scenarios[s.Name] = s
	}

	created := false
	if _, ok := m.scenarios[DefaultName]; !ok {
		now := time.Now().UTC()
		m.scenarios[DefaultName] = &Scenario{
			Name:        DefaultName,
			Description: "Default scenario",
			Routes:      []*mock.Route{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		created = true
	}

	// Activation is never durable: every process starts on default.
	m.active = DefaultName
	for name, s := range m.scenarios {
		s.Active = name == DefaultName
	}
	active := m.scenarios[DefaultName]
	count := len(m.scenarios)
	m.mu.Unlock()

	if created {
		if err := saveScenario(m.dir, active); err != nil {
			return fmt.Errorf("persist default scenario: %w", err)
		}
	}

	m.logger.Info("scenario manager ready", "scenarios", count, "active", DefaultName)
	m.notify(active)
	return nil
}

// Create adds a new scenario. It does not activate it. A nil routes
// slice creates an empty scenario.
func (m *Manager) Create(name, description string, routes []*mock.Route) (*Scenario, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := validateRoutes(routes); err != nil {
		return nil, err
	}
	if routes == nil {
		routes = []*mock.Route{}
	}

	m.mu.Lock()
	if _, ok := m.scenarios[name]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrScenarioExists, name)
	}
	now := time.Now().UTC()
	s := &Scenario{
		Name:        name,
		Description: description,
		Routes:      routes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.scenarios[name] = s
	m.mu.Unlock()

	if err := saveScenario(m.dir, s); err != nil {
		// remove the half-created entry when persisting fails
		m.mu.Lock()
		delete(m.scenarios, name)
		m.mu.Unlock()
		return nil, err
	}

	m.logger.Info("created scenario", "name", name, "routes", len(s.Routes))
	return s, nil
}

// Switch activates the named scenario. Exactly one scenario ends up
// active; all others are flipped off in the same pass.
func (m *Manager) Switch(name string) (*Scenario, error) {
	m.mu.Lock()
	target, ok := m.scenarios[name]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}
	for n, s := range m.scenarios {
		s.Active = n == name
	}
	m.active = name
	m.mu.Unlock()

	m.logger.Info("switched scenario", "name", name)
	m.notify(target)
	return target, nil
}

// Delete removes a scenario and its file. The default scenario is
// protected. Deleting the active scenario falls back to default.
func (m *Manager) Delete(name string) error {
	if name == DefaultName {
		return fmt.Errorf("%w: %q cannot be deleted", ErrScenarioProtected, name)
	}

	m.mu.Lock()
	if _, ok := m.scenarios[name]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}
	delete(m.scenarios, name)

	var fallback *Scenario
	if m.active == name {
		m.active = DefaultName
		for n, s := range m.scenarios {
			s.Active = n == DefaultName
		}
		fallback = m.scenarios[DefaultName]
	}
	m.mu.Unlock()

	if err := deleteScenario(m.dir, name); err != nil {
		return err
	}

	m.logger.Info("deleted scenario", "name", name)
	if fallback != nil {
		m.logger.Info("switched scenario", "name", DefaultName)
		m.notify(fallback)
	}
	return nil
}

// SetRoutes replaces a scenario's routes and persists them. When the
// scenario is active the new routes are republished immediately.
// Regenerating a scenario from a recording lands here.
func (m *Manager) SetRoutes(name string, routes []*mock.Route) error {
	if err := validateRoutes(routes); err != nil {
		return err
	}
	if routes == nil {
		routes = []*mock.Route{}
	}

	m.mu.Lock()
	s, ok := m.scenarios[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}
	s.Routes = routes
	s.UpdatedAt = time.Now().UTC()
	isActive := m.active == name
	m.mu.Unlock()

	if err := saveScenario(m.dir, s); err != nil {
		return err
	}
	m.logger.Info("replaced scenario routes", "name", name, "routes", len(routes))
	if isActive {
		m.notify(s)
	}
	return nil
}

// List returns all scenarios sorted by name.
func (m *Manager) List() []*Scenario {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]*Scenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Active returns the currently active scenario, or nil before Init.
func (m *Manager) Active() *Scenario {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scenarios[m.active]
}

// Get returns the named scenario.
func (m *Manager) Get(name string) (*Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}
	return s, nil
}

func (m *Manager) notify(s *Scenario) {
	if m.onSwitch != nil {
		m.onSwitch(s)
	}
}

func validateRoutes(routes []*mock.Route) error {
	for i, route := range routes {
		if route == nil {
			return fmt.Errorf("route %d is nil", i+1)
		}
		if err := route.Validate(); err != nil {
			return fmt.Errorf("route %d (%s): %w", i+1, route.Label(), err)
		}
	}
	return nil
}
