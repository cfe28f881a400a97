package recording

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// saveRecording writes a recording to dir using an atomic rename so a
// crash mid-write never leaves a torn file. A nil buffer persists as an
// empty array.
func saveRecording(dir, name string, entries []*RecordedRequest) error {
	if entries == nil {
		entries = make([]*RecordedRequest, 0)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recording: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create recording directory: %w", err)
	}

	path := filepath.Join(dir, name+".json")
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

// loadRecording reads one persisted recording.
func loadRecording(path, name string) ([]*RecordedRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrRecordingNotFound, name)
		}
		return nil, fmt.Errorf("read recording %q: %w", name, err)
	}

	var entries []*RecordedRequest
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode recording %q: %w", name, err)
	}

	for i, e := range entries {
		if e == nil {
			return nil, fmt.Errorf("recording %q: entry %d is null", name, i+1)
		}
	}
	return entries, nil
}
