// Package scenario manages named, persisted route sets and tracks which
// one is active. Exactly one scenario is active at a time; the active
// flag lives in memory only and resets to the default scenario on
// restart. Route contents are durable, one JSON file per scenario.
package scenario

import (
	"errors"
	"regexp"
	"time"

	"github.com/devmock/devmock/pkg/mock"
)

// DefaultName is the built-in scenario every engine starts with. It is
// created on first init and cannot be deleted.
const DefaultName = "default"

// Scenario errors.
var (
	ErrScenarioNotFound  = errors.New("scenario not found")
	ErrScenarioExists    = errors.New("scenario already exists")
	ErrScenarioProtected = errors.New("scenario is protected")
	ErrInvalidName       = errors.New("invalid scenario name")
)

// nameRegex constrains scenario names to filename-safe characters, since
// each scenario persists as <name>.json.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidName reports whether name can be used for a scenario.
func ValidName(name string) bool {
	return nameRegex.MatchString(name)
}

// Scenario is a named route list. Handler-backed routes never appear
// here: handlers are stripped on serialization, so persisted scenarios
// are static-only by construction.
type Scenario struct {
	// Name is the unique key, also used as the file name on disk.
	Name string `json:"name" yaml:"name"`
	// Description is an optional human-readable summary.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Routes are served while this scenario is active, ahead of the
	// directory-loaded routes.
	Routes []*mock.Route `json:"routes" yaml:"routes"`
	// Active marks the scenario currently in effect. Not durable; the
	// manager reconstructs it on every init.
	Active bool `json:"active,omitempty" yaml:"active,omitempty"`
	// CreatedAt is when the scenario was created.
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	// UpdatedAt is when the routes were last replaced.
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// RouteCount returns the number of routes in the scenario.
func (s *Scenario) RouteCount() int {
	return len(s.Routes)
}
