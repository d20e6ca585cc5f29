package app

import (
	"context"
	"encoding/json"
	"sync"

	"healthtrack/internal/domain"

	"go.uber.org/zap"
)

const historyKey = "waterHistory"

// HistoryService keeps the per-day water totals used by the calendar and
// weekly-chart lookups and by day-rollover archiving. The full map is
// persisted under a single key. Only today's entry may still change; past
// days are immutable.
type HistoryService struct {
	kv  domain.KeyValueStore
	log *zap.Logger

	mu      sync.Mutex
	entries map[string]float64
}

// NewHistoryService creates a HistoryService backed by the given store.
func NewHistoryService(kv domain.KeyValueStore, log *zap.Logger) *HistoryService {
	return &HistoryService{kv: kv, log: log, entries: make(map[string]float64)}
}

// Load reads the persisted history. A value outside [0, MaxWater] means the
// stored series is corrupt; recovery is a one-time full reset of the
// history rather than per-entry repair, and the caller must zero the
// running value as well. The reset return reports that this happened.
func (s *HistoryService) Load(ctx context.Context) (reset bool, err error) {
	raw, ok, err := s.kv.Get(ctx, historyKey)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var entries map[string]float64
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.log.Warn("water history unreadable, resetting", zap.Error(err))
		return true, s.Reset(ctx)
	}
	for day, v := range entries {
		if v < 0 || v > domain.MaxWater {
			s.log.Warn("water history value out of range, resetting",
				zap.String("day", day), zap.Float64("value", v))
			return true, s.Reset(ctx)
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return false, nil
}

// Reset drops every recorded entry and the persisted map.
func (s *HistoryService) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]float64)
	s.mu.Unlock()
	return s.kv.Delete(ctx, historyKey)
}

// Get returns the recorded amount for day, or 0 when absent.
func (s *HistoryService) Get(day string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[day]
}

// Set records the amount for day, clamped to the valid range, and persists
// the full map.
func (s *HistoryService) Set(ctx context.Context, day string, v float64) error {
	v = domain.ClampWater(v)

	s.mu.Lock()
	s.entries[day] = v
	buf, err := json.Marshal(s.entries)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, historyKey, string(buf))
}

// All returns a copy of the recorded series.
func (s *HistoryService) All() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]float64, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}
