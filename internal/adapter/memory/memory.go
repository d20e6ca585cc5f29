// Package memory implements in-memory versions of the persistence, health
// source and notification sink ports for development and testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"healthtrack/internal/domain"
)

// Ensure interfaces are met.
var _ domain.KeyValueStore = (*KV)(nil)
var _ domain.NotificationSink = (*Sink)(nil)
var _ domain.HealthSource = (*Source)(nil)

// KV is an in-memory key-value store.
type KV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewKV creates an empty in-memory store.
func NewKV() *KV {
	return &KV{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *KV) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes key.
func (s *KV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Sink is an in-memory notification sink recording pending instructions.
// Submitting an id that is already pending replaces the previous
// instruction, matching the platform notification center.
type Sink struct {
	mu         sync.Mutex
	pending    []domain.ReminderInstruction
	authorized bool
}

// NewSink creates a Sink with the given authorization state.
func NewSink(authorized bool) *Sink {
	return &Sink{authorized: authorized}
}

// SetAuthorized flips the authorization state reported to callers.
func (s *Sink) SetAuthorized(authorized bool) {
	s.mu.Lock()
	s.authorized = authorized
	s.mu.Unlock()
}

// RequestAuthorization reports the configured authorization.
func (s *Sink) RequestAuthorization(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized, nil
}

// AuthorizationStatus reports the configured authorization.
func (s *Sink) AuthorizationStatus(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized, nil
}

// Submit adds or replaces the pending instruction with ins's id.
func (s *Sink) Submit(ctx context.Context, ins domain.ReminderInstruction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == ins.ID {
			s.pending[i] = ins
			return nil
		}
	}
	s.pending = append(s.pending, ins)
	return nil
}

// Cancel removes the pending instruction with the given id, if any.
func (s *Sink) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

// ClearAll removes every pending instruction.
func (s *Sink) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

// Pending returns a copy of the pending set in submission order.
func (s *Sink) Pending(ctx context.Context) ([]domain.ReminderInstruction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ReminderInstruction, len(s.pending))
	copy(out, s.pending)
	return out, nil
}

// Source is an in-memory health source with per-kind, per-day cumulative
// sums and injectable failures.
type Source struct {
	mu        sync.Mutex
	sums      map[domain.MetricKind]map[string]float64
	failing   map[domain.MetricKind]bool
	observers map[domain.MetricKind][]func()
}

// NewSource creates an empty Source.
func NewSource() *Source {
	return &Source{
		sums:      make(map[domain.MetricKind]map[string]float64),
		failing:   make(map[domain.MetricKind]bool),
		observers: make(map[domain.MetricKind][]func()),
	}
}

// SetSum records the cumulative sum reported for kind on the given day.
func (s *Source) SetSum(kind domain.MetricKind, day string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sums[kind] == nil {
		s.sums[kind] = make(map[string]float64)
	}
	s.sums[kind][day] = v
}

// Fail makes queries for kind return an error.
func (s *Source) Fail(kind domain.MetricKind, failing bool) {
	s.mu.Lock()
	s.failing[kind] = failing
	s.mu.Unlock()
}

// RequestAuthorization always grants.
func (s *Source) RequestAuthorization(ctx context.Context, kinds []domain.MetricKind) (bool, error) {
	return true, nil
}

// CumulativeSum returns the recorded sum for kind on start's day.
func (s *Source) CumulativeSum(ctx context.Context, kind domain.MetricKind, start, end time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[kind] {
		return 0, errors.New("health source unavailable")
	}
	return s.sums[kind][domain.DayKey(start)], nil
}

// Observe registers fn for push updates on kind.
func (s *Source) Observe(kind domain.MetricKind, fn func()) {
	s.mu.Lock()
	s.observers[kind] = append(s.observers[kind], fn)
	s.mu.Unlock()
}

// EnableBackgroundDelivery is a no-op.
func (s *Source) EnableBackgroundDelivery(kind domain.MetricKind) error {
	return nil
}

// Push fires the registered observers for kind, simulating a platform
// push update.
func (s *Source) Push(kind domain.MetricKind) {
	s.mu.Lock()
	fns := append([]func(){}, s.observers[kind]...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
