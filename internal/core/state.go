package core

import (
	"sort"
	"sync"

	"github.com/valter-silva-au/donewatch/pkg/models"
)

// StateTracker holds the last observed Done sequence for each monitored file.
// A path with no recorded state is treated as an empty sequence. The zero
// value is not usable; call NewStateTracker.
type StateTracker struct {
	mu     sync.RWMutex
	states map[string][]models.TaskRecord
}

// NewStateTracker returns an empty tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{states: make(map[string][]models.TaskRecord)}
}

// Get returns a copy of the last observed sequence for path.
func (s *StateTracker) Get(path string) []models.TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TaskRecord{}, s.states[path]...)
}

// Len returns the length of the last observed sequence for path.
func (s *StateTracker) Len(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states[path])
}

// Set replaces the observed sequence for path wholesale.
func (s *StateTracker) Set(path string, tasks []models.TaskRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[path] = append([]models.TaskRecord{}, tasks...)
}

// Reset forgets the observed sequence for path.
func (s *StateTracker) Reset(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, path)
}

// ResetAll forgets every observed sequence.
func (s *StateTracker) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string][]models.TaskRecord)
}

// Counts returns the observed length per path, keyed by path.
func (s *StateTracker) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.states))
	for p, tasks := range s.states {
		out[p] = len(tasks)
	}
	return out
}

// Paths returns every path with recorded state, sorted.
func (s *StateTracker) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.states))
	for p := range s.states {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// pathLocks serializes work per path while letting distinct paths proceed
// independently.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *pathLocks) lock(path string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[path]
	if !ok {
		m = &sync.Mutex{}
		l.locks[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Snapshot returns a copy of every observed sequence keyed by path.
func (s *StateTracker) Snapshot() map[string][]models.TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]models.TaskRecord, len(s.states))
	for p, tasks := range s.states {
		out[p] = append([]models.TaskRecord{}, tasks...)
	}
	return out
}

// Restore replaces all observed sequences with states.
func (s *StateTracker) Restore(states map[string][]models.TaskRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string][]models.TaskRecord, len(states))
	for p, tasks := range states {
		s.states[p] = append([]models.TaskRecord{}, tasks...)
	}
}
