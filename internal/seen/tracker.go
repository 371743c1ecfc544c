package seen

import (
	"log/slog"
	"sync"
)

const (
	// maxEntries is the tracker size that triggers a trim.
	maxEntries = 1000
	// keepEntries is how many of the most recently inserted ids survive a trim.
	keepEntries = 500
)

// Storage persists the ordered id list between process runs. Failures are
// best-effort: the in-memory set stays authoritative for the process lifetime.
type Storage interface {
	Load() ([]string, error)
	Save(ids []string) error
	Clear() error
}

// Tracker remembers which report ids have already been surfaced to this device
// so the polling loop never notifies twice for the same report. Insertion order
// is tracked explicitly; when the set exceeds maxEntries it is trimmed to the
// keepEntries most recently inserted ids, oldest first.
type Tracker struct {
	mu      sync.RWMutex
	order   []string
	members map[string]struct{}
	storage Storage
	logger  *slog.Logger
}

// NewTracker creates a Tracker backed by storage, loading any persisted ids.
// A load failure is logged and the tracker starts empty.
func NewTracker(storage Storage, logger *slog.Logger) *Tracker {
	t := &Tracker{
		members: make(map[string]struct{}),
		storage: storage,
		logger:  logger,
	}
	ids, err := storage.Load()
	if err != nil {
		logger.Warn("load seen reports", "error", err)
		return t
	}
	for _, id := range ids {
		if _, ok := t.members[id]; ok {
			continue
		}
		t.order = append(t.order, id)
		t.members[id] = struct{}{}
	}
	return t
}

// Contains reports whether id has already been surfaced.
func (t *Tracker) Contains(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.members[id]
	return ok
}

// MarkSeen inserts ids, trims to the most recently inserted keepEntries when
// the set grows past maxEntries, and persists the result. Persistence errors
// are logged and swallowed.
func (t *Tracker) MarkSeen(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		if _, ok := t.members[id]; ok {
			continue
		}
		t.order = append(t.order, id)
		t.members[id] = struct{}{}
	}

	if len(t.order) > maxEntries {
		evicted := t.order[:len(t.order)-keepEntries]
		for _, id := range evicted {
			delete(t.members, id)
		}
		t.order = append([]string(nil), t.order[len(t.order)-keepEntries:]...)
	}

	if err := t.storage.Save(append([]string(nil), t.order...)); err != nil {
		t.logger.Warn("persist seen reports", "error", err)
	}
}

// Clear empties the tracker and removes persisted state.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = nil
	t.members = make(map[string]struct{})
	if err := t.storage.Clear(); err != nil {
		t.logger.Warn("clear seen reports", "error", err)
	}
}

// Count returns the number of tracked ids.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}
