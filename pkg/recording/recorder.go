package recording

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/devmock/devmock/pkg/logging"
)

// State is the recorder lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

// nameRegex constrains recording names to filename-safe characters,
// since each recording persists as <name>.json.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidName reports whether name can be used as a recording name.
func ValidName(name string) bool {
	return nameRegex.MatchString(name)
}

// Recorder owns the capture buffer and its idle/recording state. Append
// is a no-op while idle, so the engine can hand entries over without
// racing a concurrent Stop.
type Recorder struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	state   State
	entries []*RecordedRequest
}

// NewRecorder creates an idle recorder persisting to dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{
		dir:     dir,
		logger:  logging.Nop(),
		state:   StateIdle,
		entries: make([]*RecordedRequest, 0),
	}
}

// SetLogger sets the recorder's logger.
func (r *Recorder) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Start switches the recorder to recording. The buffer is kept; captures
// append to whatever is already there. Use Clear for a fresh buffer.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return ErrAlreadyRecording
	}
	r.state = StateRecording
	r.logger.Info("recording started", "buffered", len(r.entries))
	return nil
}

// Stop switches the recorder back to idle. The buffer survives so it can
// still be saved or converted.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return ErrNotRecording
	}
	r.state = StateIdle
	r.logger.Info("recording stopped", "entries", len(r.entries))
	return nil
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Recording reports whether the recorder is capturing.
func (r *Recorder) Recording() bool {
	return r.State() == StateRecording
}

// Append adds an entry to the buffer. Entries arriving while idle are
// dropped.
func (r *Recorder) Append(e *RecordedRequest) {
	if e == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return
	}
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the buffer in capture order.
func (r *Recorder) Entries() []*RecordedRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*RecordedRequest, len(r.entries))
	copy(result, r.entries)
	return result
}

// Len returns the number of buffered entries.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear empties the buffer. The lifecycle state is untouched.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make([]*RecordedRequest, 0)
}

// Save persists the buffer verbatim as <name>.json. The buffer is not
// cleared, so the same capture can be saved under several names.
func (r *Recorder) Save(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	entries := r.Entries()
	if err := saveRecording(r.dir, name, entries); err != nil {
		return fmt.Errorf("save recording %q: %w", name, err)
	}
	r.logger.Info("recording saved", "name", name, "entries", len(entries))
	return nil
}

// Load reads a persisted recording back. The buffer is untouched.
func (r *Recorder) Load(name string) ([]*RecordedRequest, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return loadRecording(filepath.Join(r.dir, name+".json"), name)
}
