package location

import (
	"sync"

	"github.com/eyeson-app/eyeson/internal/geo"
)

// Manager holds the device's last-known location. The UI shell feeds it from
// whatever positioning source the host platform provides; the polling engine
// reads it at the start of each cycle.
type Manager struct {
	mu    sync.RWMutex
	point geo.Point
	known bool
}

func NewManager() *Manager {
	return &Manager{}
}

// Set records a new device location.
func (m *Manager) Set(p geo.Point) {
	m.mu.Lock()
	m.point = p
	m.known = true
	m.mu.Unlock()
}

// Current returns the last-known location and whether one has been recorded.
func (m *Manager) Current() (geo.Point, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.point, m.known
}

// Clear forgets the last-known location.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.known = false
	m.mu.Unlock()
}
