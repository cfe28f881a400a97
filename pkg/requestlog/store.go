package requestlog

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity bounds the log when no explicit capacity is configured.
const DefaultCapacity = 500

// Store is a fixed-capacity ring of log entries. Once full, appending
// evicts the oldest entry. All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	entries  []*Entry
	capacity int
	nextID   int64
}

// NewStore creates a store holding at most capacity entries. A
// non-positive capacity falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		entries:  make([]*Entry, 0, capacity),
		capacity: capacity,
	}
}

// Log appends an entry, evicting the oldest one when the store is at
// capacity. A missing ID or timestamp is filled in.
func (s *Store) Log(e *Entry) {
	if e == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		s.nextID++
		e.ID = "req-" + strconv.FormatInt(s.nextID, 36)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	if len(s.entries) >= s.capacity {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, e)
}

// Get returns the entry with the given ID, or nil.
func (s *Store) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// List returns matching entries newest first, honoring the filter's
// Offset and Limit. A nil filter returns everything.
func (s *Store) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter != nil && !filter.matches(e) {
			continue
		}
		matched = append(matched, e)
	}

	if filter == nil {
		return matched
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*Entry{}
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched
}

// Count returns the number of entries currently held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops all entries. The ID counter keeps running so cleared and
// new entries never share an ID.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*Entry, 0, s.capacity)
}

func (f *Filter) matches(e *Entry) bool {
	if f.Method != "" && !strings.EqualFold(f.Method, e.Method) {
		return false
	}
	if f.Path != "" && !strings.HasPrefix(e.Path, f.Path) {
		return false
	}
	if f.Status != 0 && e.ResponseStatus != f.Status {
		return false
	}
	return true
}
