package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// saveScenario writes a scenario to dir using an atomic rename so a
// crash mid-write never leaves a torn file.
func saveScenario(dir string, s *Scenario) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario %s: %w", s.Name, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	path := filepath.Join(dir, s.Name+".json")
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// loadScenario reads one persisted scenario. The active flag in the file
// is ignored; activation state is never durable.
func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	s.Active = false

	for i, route := range s.Routes {
		if route == nil {
			return nil, fmt.Errorf("route %d is null", i+1)
		}
		if err := route.Validate(); err != nil {
			return nil, fmt.Errorf("route %d (%s): %w", i+1, route.Label(), err)
		}
	}
	return &s, nil
}

// listScenarioFiles returns the .json files in dir, sorted. A missing
// directory yields an empty list.
func listScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scenario directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// deleteScenario removes a scenario's file. A file that is already gone
// is not an error.
func deleteScenario(dir, name string) error {
	err := os.Remove(filepath.Join(dir, name+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete scenario file: %w", err)
	}
	return nil
}
