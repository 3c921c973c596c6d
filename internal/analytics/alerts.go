package analytics

import (
	"sort"
	"time"
)

// Alert is a raised monitoring condition. Alerts are deduplicated by id,
// explicitly acknowledgeable, and removed only by a retention sweep once
// acknowledged and aged out.
type Alert struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"` // "error_rate" | "pattern"
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
	LastFired      time.Time `json:"lastFired"`
	Acknowledged   bool      `json:"acknowledged"`
	AcknowledgedAt time.Time `json:"acknowledgedAt,omitempty"`
}

// alertRefireInterval throttles how often an active unacknowledged alert
// re-fires. Within the interval the raise is deduplicated silently.
const alertRefireInterval = rateWindow

// raiseAlert creates or re-fires an alert. An active unacknowledged alert
// with the same id re-fires (LastFired bumped, alert.raised re-published)
// at most once per alertRefireInterval; an acknowledged one is replaced
// by a fresh alert. Caller holds mu. Returns the alert when it fired,
// nil when deduplicated.
func (s *Store) raiseAlert(id, kind, message string, now time.Time) *Alert {
	if existing, ok := s.alerts[id]; ok && !existing.Acknowledged {
		if now.Sub(existing.LastFired) < alertRefireInterval {
			return nil
		}
		existing.LastFired = now
		existing.Message = message
		return existing
	}
	a := &Alert{
		ID:        id,
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		LastFired: now,
	}
	s.alerts[id] = a
	return a
}

// Alerts returns all alerts, newest first.
func (s *Store) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastFired.After(out[j].LastFired)
	})
	return out
}

// Acknowledge marks an alert as handled. Returns false for unknown ids.
func (s *Store) Acknowledge(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return false
	}
	if !a.Acknowledged {
		a.Acknowledged = true
		a.AcknowledgedAt = s.now()
	}
	return true
}

// SweepAlerts removes alerts that are acknowledged and have not fired
// since the cutoff. Returns the number removed.
func (s *Store) SweepAlerts(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for id, a := range s.alerts {
		if a.Acknowledged && a.LastFired.Before(cutoff) {
			delete(s.alerts, id)
			removed++
		}
	}
	return removed
}
