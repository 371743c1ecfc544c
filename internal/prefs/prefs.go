package prefs

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/eyeson-app/eyeson/internal/model"
)

// Defaults and the allowed radius range.
const (
	DefaultRadiusMeters = 2000.0
	MinRadiusMeters     = 500.0
	MaxRadiusMeters     = 5000.0

	DefaultThreshold = model.SeverityMedium
)

// Storage keys.
const (
	keyRadius     = "notification_radius"
	keyCategories = "enabled_categories"
	keyThreshold  = "severity_threshold"
)

// noCategories marks an intentionally empty enabled set in storage. Without
// it an empty set reads back as a missing value and every category would
// silently re-enable on the next load.
const noCategories = "none"

// Storage is the key/value persistence behind the preferences. A Get for a
// missing key returns an error; malformed values fall back to defaults.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Preferences holds the user's notification filter criteria: alert radius,
// enabled categories, and minimum severity. Setters persist immediately and
// update in-memory state read by the polling engine on its next cycle.
type Preferences struct {
	mu        sync.RWMutex
	radius    float64
	enabled   map[model.Category]bool
	threshold model.Severity
	storage   Storage
	logger    *slog.Logger
}

// Load creates Preferences from storage, using defaults for missing or
// malformed values.
func Load(storage Storage, logger *slog.Logger) *Preferences {
	p := &Preferences{
		radius:    DefaultRadiusMeters,
		enabled:   allEnabled(),
		threshold: DefaultThreshold,
		storage:   storage,
		logger:    logger,
	}

	if v, err := storage.Get(keyRadius); err == nil {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r > 0 {
			p.radius = clampRadius(r)
		}
	}

	if v, err := storage.Get(keyCategories); err == nil {
		if v == noCategories {
			p.enabled = make(map[model.Category]bool)
		} else {
			enabled := make(map[model.Category]bool)
			for _, raw := range strings.Split(v, ",") {
				c := model.Category(strings.TrimSpace(raw))
				if c.Valid() {
					enabled[c] = true
				}
			}
			if len(enabled) > 0 {
				p.enabled = enabled
			}
		}
	}

	if v, err := storage.Get(keyThreshold); err == nil {
		if s := model.Severity(v); s.Valid() {
			p.threshold = s
		}
	}

	return p
}

// Radius returns the notification radius in meters.
func (p *Preferences) Radius() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.radius
}

// SetRadius clamps radius to [MinRadiusMeters, MaxRadiusMeters] and persists it.
func (p *Preferences) SetRadius(radius float64) {
	radius = clampRadius(radius)

	p.mu.Lock()
	p.radius = radius
	p.mu.Unlock()

	p.persist(keyRadius, strconv.FormatFloat(radius, 'f', -1, 64))
}

// EnabledCategories returns a copy of the enabled category set.
func (p *Preferences) EnabledCategories() []model.Category {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []model.Category
	for _, c := range model.AllCategories() {
		if p.enabled[c] {
			out = append(out, c)
		}
	}
	return out
}

// CategoryEnabled reports whether notifications for c are enabled.
func (p *Preferences) CategoryEnabled(c model.Category) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled[c]
}

// SetEnabledCategories replaces the enabled set and persists it. Unknown
// categories are dropped.
func (p *Preferences) SetEnabledCategories(categories []model.Category) {
	enabled := make(map[model.Category]bool)
	var names []string
	for _, c := range categories {
		if !c.Valid() || enabled[c] {
			continue
		}
		enabled[c] = true
		names = append(names, string(c))
	}

	p.mu.Lock()
	p.enabled = enabled
	p.mu.Unlock()

	value := strings.Join(names, ",")
	if len(names) == 0 {
		value = noCategories
	}
	p.persist(keyCategories, value)
}

// Threshold returns the minimum severity for notifications.
func (p *Preferences) Threshold() model.Severity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.threshold
}

// SetThreshold updates the minimum severity and persists it. Unknown severities
// are ignored.
func (p *Preferences) SetThreshold(s model.Severity) {
	if !s.Valid() {
		p.logger.Warn("ignoring unknown severity threshold", "severity", string(s))
		return
	}

	p.mu.Lock()
	p.threshold = s
	p.mu.Unlock()

	p.persist(keyThreshold, string(s))
}

// Wants reports whether a report qualifies for a local notification for the
// given local user: its category is enabled, its severity meets the threshold,
// and it was not authored by the local user.
func (p *Preferences) Wants(r *model.Report, localUserID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.enabled[r.Category] {
		return false
	}
	if r.Severity().Priority() < p.threshold.Priority() {
		return false
	}
	if r.AuthorID == localUserID {
		return false
	}
	return true
}

func (p *Preferences) persist(key, value string) {
	if err := p.storage.Set(key, value); err != nil {
		p.logger.Warn("persist preference", "key", key, "error", err)
	}
}

func clampRadius(r float64) float64 {
	if r < MinRadiusMeters {
		return MinRadiusMeters
	}
	if r > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return r
}

func allEnabled() map[model.Category]bool {
	enabled := make(map[model.Category]bool)
	for _, c := range model.AllCategories() {
		enabled[c] = true
	}
	return enabled
}
