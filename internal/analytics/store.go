// Package analytics records every governance decision, resolver attempt,
// and classified error into bounded in-memory history, aggregates
// recurring error patterns, and raises alerts.
package analytics

import (
	"fmt"
	"sync"
	"time"

	"github.com/kuuzuki-ai/kuuzuki/internal/event"
	"github.com/kuuzuki-ai/kuuzuki/internal/kerror"
	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

// RecordKind identifies what a history record captured.
type RecordKind string

const (
	KindDecision   RecordKind = "decision"
	KindResolution RecordKind = "resolution"
	KindError      RecordKind = "error"
)

// Record is one entry in the bounded history.
type Record struct {
	Kind      RecordKind
	Timestamp time.Time

	// decision fields
	Subject string
	Agent   string
	Pattern string
	Action  string

	// resolution fields
	Requested  string
	Resolved   string
	Strategy   string
	Confidence int
	Status     string

	// error fields
	Category  string
	Severity  string
	Code      string
	SessionID string
}

// ErrorPattern aggregates recurring errors keyed by category:code.
// Append-only except for explicit retention sweeps.
type ErrorPattern struct {
	Key       string
	Category  string
	Code      string
	Frequency int
	RiskLevel string
	FirstSeen time.Time
	LastSeen  time.Time
	Sessions  []string
}

// Risk levels for patterns.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

const (
	defaultHistoryCap = 1000

	// A pattern goes critical at this frequency when its severity is
	// high or critical, and at least medium at the lower threshold
	// regardless of severity.
	criticalFrequencyThreshold = 10
	mediumFrequencyThreshold   = 5

	// Sliding window for the error-rate alert.
	rateWindow    = time.Minute
	rateThreshold = 10
)

// Store owns the history, pattern aggregates, and alerts. All access to
// an individual key's counters is serialized under one mutex so
// concurrent failures of the same kind are never under-counted.
type Store struct {
	mu sync.Mutex

	historyCap int
	history    []Record
	patterns   map[string]*ErrorPattern
	alerts     map[string]*Alert
	window     []time.Time
	counts     map[string]int

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithHistoryCap overrides the bounded-history size.
func WithHistoryCap(n int) Option {
	return func(s *Store) { s.historyCap = n }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an analytics store. Production wiring composes exactly
// one per process; tests instantiate isolated instances.
func NewStore(opts ...Option) *Store {
	s := &Store{
		historyCap: defaultHistoryCap,
		patterns:   make(map[string]*ErrorPattern),
		alerts:     make(map[string]*Alert),
		counts:     make(map[string]int),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// append adds a record, evicting the oldest past the cap. Caller holds mu.
func (s *Store) append(r Record) {
	s.history = append(s.history, r)
	if len(s.history) > s.historyCap {
		s.history = s.history[len(s.history)-s.historyCap:]
	}
}

// RecordDecision records a permission decision.
func (s *Store) RecordDecision(subject, agentName, pattern string, action types.PermissionAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.append(Record{
		Kind:      KindDecision,
		Timestamp: s.now(),
		Subject:   subject,
		Agent:     agentName,
		Pattern:   pattern,
		Action:    string(action),
	})
}

// RecordResolution records a tool resolution attempt, including failed
// ones (strategy "none").
func (s *Store) RecordResolution(requested, resolved, strategy string, confidence int, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.append(Record{
		Kind:       KindResolution,
		Timestamp:  s.now(),
		Requested:  requested,
		Resolved:   resolved,
		Strategy:   strategy,
		Confidence: confidence,
		Status:     status,
	})
}

// RecordError records a classified error, updates the rolling pattern for
// its category:code key, and evaluates alert conditions.
func (s *Store) RecordError(ke *kerror.KuuzukiError) {
	if ke == nil {
		return
	}

	s.mu.Lock()
	now := s.now()

	s.append(Record{
		Kind:      KindError,
		Timestamp: now,
		Category:  string(ke.Category),
		Severity:  string(ke.Severity),
		Code:      ke.Code,
		SessionID: ke.Context.SessionID,
	})

	countKey := string(ke.Category) + "|" + string(ke.Severity) + "|" + ke.Code
	s.counts[countKey]++
	count := s.counts[countKey]

	pattern := s.touchPattern(ke, now)

	// Sliding window for the rate alert.
	s.window = append(s.window, now)
	cutoff := now.Add(-rateWindow)
	for len(s.window) > 0 && s.window[0].Before(cutoff) {
		s.window = s.window[1:]
	}
	inWindow := len(s.window)

	var raised []*Alert
	if inWindow > rateThreshold {
		raised = append(raised, s.raiseAlert("error_rate", "error_rate",
			fmt.Sprintf("%d errors within the last minute", inWindow), now))
	}
	if pattern.RiskLevel == RiskCritical {
		raised = append(raised, s.raiseAlert("pattern:"+pattern.Key, "pattern",
			fmt.Sprintf("critical error pattern %s recurring (frequency %d)", pattern.Key, pattern.Frequency), now))
	}

	patternSnapshot := *pattern
	s.mu.Unlock()

	// Publish outside the lock: subscribers must not be able to deadlock
	// the store.
	event.Publish(event.Event{
		Type: event.ErrorOccurred,
		Data: event.ErrorOccurredData{
			Category:  string(ke.Category),
			Severity:  string(ke.Severity),
			Code:      ke.Code,
			Message:   ke.Message,
			SessionID: ke.Context.SessionID,
			Timestamp: now,
		},
	})
	event.Publish(event.Event{
		Type: event.ErrorMetrics,
		Data: event.ErrorMetricsData{
			Category:  string(ke.Category),
			Severity:  string(ke.Severity),
			Code:      ke.Code,
			Count:     count,
			Timestamp: now,
		},
	})
	event.Publish(event.Event{
		Type: event.ErrorPatternSeen,
		Data: event.ErrorPatternData{
			Key:       patternSnapshot.Key,
			Frequency: patternSnapshot.Frequency,
			RiskLevel: patternSnapshot.RiskLevel,
			Timestamp: now,
		},
	})
	for _, a := range raised {
		if a == nil {
			continue
		}
		event.Publish(event.Event{
			Type: event.AlertRaised,
			Data: event.AlertRaisedData{
				ID:        a.ID,
				Kind:      a.Kind,
				Message:   a.Message,
				Timestamp: now,
			},
		})
		logging.Warn().Str("alert", a.ID).Msg(a.Message)
	}
}

// touchPattern updates the aggregate for an error. Caller holds mu.
func (s *Store) touchPattern(ke *kerror.KuuzukiError, now time.Time) *ErrorPattern {
	key := string(ke.Category) + ":" + ke.Code
	p, ok := s.patterns[key]
	if !ok {
		p = &ErrorPattern{
			Key:       key,
			Category:  string(ke.Category),
			Code:      ke.Code,
			RiskLevel: RiskLow,
			FirstSeen: now,
		}
		s.patterns[key] = p
	}

	p.Frequency++
	p.LastSeen = now
	if sid := ke.Context.SessionID; sid != "" && !containsString(p.Sessions, sid) {
		p.Sessions = append(p.Sessions, sid)
	}

	severe := ke.Severity == kerror.SeverityHigh || ke.Severity == kerror.SeverityCritical
	switch {
	case severe && p.Frequency >= criticalFrequencyThreshold:
		p.RiskLevel = RiskCritical
	case p.Frequency >= mediumFrequencyThreshold && p.RiskLevel != RiskCritical:
		if p.RiskLevel == RiskLow {
			p.RiskLevel = RiskMedium
		}
	}
	return p
}

// History returns a copy of the bounded history.
func (s *Store) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}

// Patterns returns a snapshot of the pattern aggregates.
func (s *Store) Patterns() []ErrorPattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ErrorPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		out = append(out, *p)
	}
	return out
}

// Pattern returns one aggregate by key.
func (s *Store) Pattern(key string) (ErrorPattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patterns[key]
	if !ok {
		return ErrorPattern{}, false
	}
	return *p, true
}

// SweepPatterns drops aggregates not seen since the cutoff. Returns the
// number removed. This is the only way a pattern shrinks.
func (s *Store) SweepPatterns(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for key, p := range s.patterns {
		if p.LastSeen.Before(cutoff) {
			delete(s.patterns, key)
			removed++
		}
	}
	return removed
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
