package app

import (
	"context"
	"strconv"
	"sync"
	"time"

	"healthtrack/internal/domain"

	"go.uber.org/zap"
)

// Persisted key names, carried over from the original on-device store
// layout so existing data remains readable.
const (
	keyWaterIntake = "waterIntake"
	keyWaterGoal   = "waterGoal"
	keyStepGoal    = "stepGoal"
	keyLastUpdate  = "lastUpdateDate"
)

// MetricsService owns today's running totals and goals. All mutation goes
// through its setter methods, which validate, persist and notify as a
// single step. Steps and calories arrive in bursts from the platform
// source, so their change events are coalesced with a trailing-edge
// debounce; water and goal changes notify listeners immediately.
//
// Setters are safe to call from any goroutine.
type MetricsService struct {
	// DebounceWindow is the quiet period for steps/calories change
	// events. Zero means one second. Set before first use.
	DebounceWindow time.Duration
	// Now reports the current time; nil means time.Now. Set before
	// first use.
	Now func() time.Time

	kv      domain.KeyValueStore
	history *HistoryService
	log     *zap.Logger

	mu             sync.Mutex
	snap           domain.MetricSnapshot
	lastWaterDelta float64
	undoAvailable  bool
	timer          *time.Timer
	listeners      []func(domain.MetricSnapshot)
}

// NewMetricsService creates a MetricsService backed by the given store and
// history. Goals start at their defaults until Load or a setter replaces
// them.
func NewMetricsService(kv domain.KeyValueStore, history *HistoryService, log *zap.Logger) *MetricsService {
	return &MetricsService{
		kv:      kv,
		history: history,
		log:     log,
		snap: domain.MetricSnapshot{
			StepGoal:  domain.DefaultStepGoal,
			WaterGoal: domain.DefaultWaterGoal,
		},
	}
}

// OnChange registers a listener for metric change events. Registration is
// not safe concurrently with emission; wire listeners during startup.
func (s *MetricsService) OnChange(fn func(domain.MetricSnapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *MetricsService) Snapshot() domain.MetricSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

type storedFloat struct {
	value   float64
	present bool
	bad     bool
}

func (s *MetricsService) readFloat(ctx context.Context, key string) (storedFloat, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return storedFloat{}, err
	}
	if !ok {
		return storedFloat{}, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return storedFloat{present: true, bad: true}, nil
	}
	return storedFloat{value: v, present: true}, nil
}

// Load restores persisted state. A water value or water goal outside its
// valid range means the persisted water state is corrupt; recovery is a
// full reset of the water fields and the history to defaults, not a
// partial repair.
func (s *MetricsService) Load(ctx context.Context) error {
	histReset, err := s.history.Load(ctx)
	if err != nil {
		return err
	}

	water, err := s.readFloat(ctx, keyWaterIntake)
	if err != nil {
		return err
	}
	waterGoal, err := s.readFloat(ctx, keyWaterGoal)
	if err != nil {
		return err
	}
	stepGoal, err := s.readFloat(ctx, keyStepGoal)
	if err != nil {
		return err
	}

	var lastUpdate time.Time
	if raw, ok, err := s.kv.Get(ctx, keyLastUpdate); err != nil {
		return err
	} else if ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			lastUpdate = t
		}
	}

	corrupt := histReset
	if water.present && (water.bad || water.value < 0 || water.value > domain.MaxWater) {
		corrupt = true
	}
	if waterGoal.present && (waterGoal.bad || waterGoal.value < 0 || waterGoal.value > domain.MaxWaterGoal) {
		corrupt = true
	}

	s.mu.Lock()
	if water.present && !corrupt {
		s.snap.Water = water.value
	}
	if waterGoal.present && !corrupt && waterGoal.value > 0 {
		s.snap.WaterGoal = waterGoal.value
	}
	if stepGoal.present && !stepGoal.bad && stepGoal.value > 0 {
		s.snap.StepGoal = domain.ClampStepGoal(stepGoal.value)
	}
	s.snap.LastUpdate = lastUpdate
	if corrupt {
		s.snap.Water = 0
		s.snap.WaterGoal = domain.DefaultWaterGoal
	}
	s.mu.Unlock()

	if corrupt {
		s.log.Warn("persisted water state invalid, resetting to defaults")
		if err := s.history.Reset(ctx); err != nil {
			return err
		}
		if err := s.kv.Set(ctx, keyWaterIntake, formatFloat(0)); err != nil {
			return err
		}
		if err := s.kv.Set(ctx, keyWaterGoal, formatFloat(domain.DefaultWaterGoal)); err != nil {
			return err
		}
	}
	return nil
}

// SetSteps records the platform-sourced step total for today. Negative
// values are coerced to 0.
func (s *MetricsService) SetSteps(ctx context.Context, v float64) error {
	return s.setSourced(ctx, &s.snap.Steps, v)
}

// SetCalories records the platform-sourced calorie total for today.
// Negative values are coerced to 0.
func (s *MetricsService) SetCalories(ctx context.Context, v float64) error {
	return s.setSourced(ctx, &s.snap.Calories, v)
}

func (s *MetricsService) setSourced(ctx context.Context, field *float64, v float64) error {
	if v < 0 {
		v = 0
	}
	now := s.now()

	s.mu.Lock()
	*field = v
	s.snap.LastUpdate = now
	s.scheduleLocked()
	s.mu.Unlock()

	return s.kv.Set(ctx, keyLastUpdate, now.Format(time.RFC3339))
}

// AddWater applies a water intake delta. The delta and the resulting total
// are both clamped; a total that would go negative is coerced to 0. The
// new total is returned.
func (s *MetricsService) AddWater(ctx context.Context, delta float64) (float64, error) {
	delta = domain.ClampWaterDelta(delta)
	now := s.now()

	s.mu.Lock()
	prev := s.snap.Water
	total := domain.ClampWater(prev + delta)
	s.snap.Water = total
	s.snap.LastUpdate = now
	s.lastWaterDelta = total - prev
	s.undoAvailable = true
	s.mu.Unlock()

	if err := s.persistWater(ctx, total, now); err != nil {
		return total, err
	}
	s.notify()
	return total, nil
}

// UndoLastWater reverses the most recent AddWater. Only a single level of
// undo is kept; with nothing to undo this is a no-op.
func (s *MetricsService) UndoLastWater(ctx context.Context) (bool, float64, error) {
	now := s.now()

	s.mu.Lock()
	if !s.undoAvailable {
		total := s.snap.Water
		s.mu.Unlock()
		return false, total, nil
	}
	total := domain.ClampWater(s.snap.Water - s.lastWaterDelta)
	s.snap.Water = total
	s.snap.LastUpdate = now
	s.undoAvailable = false
	s.mu.Unlock()

	if err := s.persistWater(ctx, total, now); err != nil {
		return true, total, err
	}
	s.notify()
	return true, total, nil
}

// SetStepGoal clamps and persists the daily step goal, returning the
// applied value.
func (s *MetricsService) SetStepGoal(ctx context.Context, v float64) (float64, error) {
	goal := domain.ClampStepGoal(v)

	s.mu.Lock()
	s.snap.StepGoal = goal
	s.mu.Unlock()

	if err := s.kv.Set(ctx, keyStepGoal, formatFloat(goal)); err != nil {
		return goal, err
	}
	s.notify()
	return goal, nil
}

// SetWaterGoal clamps and persists the daily water goal, returning the
// applied value.
func (s *MetricsService) SetWaterGoal(ctx context.Context, v float64) (float64, error) {
	goal := domain.ClampWaterGoal(v)

	s.mu.Lock()
	s.snap.WaterGoal = goal
	s.mu.Unlock()

	if err := s.kv.Set(ctx, keyWaterGoal, formatFloat(goal)); err != nil {
		return goal, err
	}
	s.notify()
	return goal, nil
}

// RefreshFromSource queries today's cumulative sums from the health
// source. A failed query maps to "0 and log"; retries are left to the
// source's own observer mechanism.
func (s *MetricsService) RefreshFromSource(ctx context.Context, source domain.HealthSource) {
	now := s.now()
	start := domain.StartOfDay(now)

	for _, kind := range []domain.MetricKind{domain.MetricSteps, domain.MetricCalories} {
		v, err := source.CumulativeSum(ctx, kind, start, now)
		if err != nil {
			s.log.Warn("health source query failed",
				zap.String("kind", string(kind)), zap.Error(err))
			v = 0
		}
		var setErr error
		if kind == domain.MetricSteps {
			setErr = s.SetSteps(ctx, v)
		} else {
			setErr = s.SetCalories(ctx, v)
		}
		if setErr != nil {
			s.log.Warn("failed to record sourced value",
				zap.String("kind", string(kind)), zap.Error(setErr))
		}
	}
}

// RolloverIfNeeded compares now's calendar day against the persisted last
// update and, when the day has changed, archives the water total under the
// previous day's key, zeroes the running values and stamps the new date.
// Redundant calls within the same day are no-ops.
func (s *MetricsService) RolloverIfNeeded(ctx context.Context, now time.Time) (ResetResult, error) {
	s.mu.Lock()
	prev := s.snap.LastUpdate
	if !prev.IsZero() && domain.DayKey(prev) == domain.DayKey(now) {
		s.mu.Unlock()
		return ResetResult{PreviousDate: prev}, nil
	}
	if prev.IsZero() {
		// No recorded previous day: the stored total is stale and there
		// is no day key to archive it under. Zero and stamp.
		s.snap.Steps = 0
		s.snap.Calories = 0
		s.snap.Water = 0
		s.snap.LastUpdate = now
		s.undoAvailable = false
		s.mu.Unlock()
		if err := s.kv.Set(ctx, keyWaterIntake, formatFloat(0)); err != nil {
			return ResetResult{}, err
		}
		return ResetResult{}, s.kv.Set(ctx, keyLastUpdate, now.Format(time.RFC3339))
	}
	archived := s.snap.Water
	s.snap.Steps = 0
	s.snap.Calories = 0
	s.snap.Water = 0
	s.snap.LastUpdate = now
	s.undoAvailable = false
	s.mu.Unlock()

	if err := s.history.Set(ctx, domain.DayKey(prev), archived); err != nil {
		return ResetResult{}, err
	}
	if err := s.persistWater(ctx, 0, now); err != nil {
		return ResetResult{}, err
	}
	return ResetResult{DidReset: true, PreviousDate: prev}, nil
}

// Close stops the pending debounce timer, if any.
func (s *MetricsService) Close() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
}

func (s *MetricsService) persistWater(ctx context.Context, total float64, now time.Time) error {
	if err := s.kv.Set(ctx, keyWaterIntake, formatFloat(total)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, keyLastUpdate, now.Format(time.RFC3339)); err != nil {
		return err
	}
	return s.history.Set(ctx, domain.DayKey(now), total)
}

// scheduleLocked restarts the single debounce timer; a new qualifying
// update restarts the quiet-period countdown rather than queuing a second
// timer. Callers hold s.mu.
func (s *MetricsService) scheduleLocked() {
	window := s.DebounceWindow
	if window <= 0 {
		window = time.Second
	}
	if s.timer != nil {
		s.timer.Reset(window)
		return
	}
	s.timer = time.AfterFunc(window, s.emit)
}

func (s *MetricsService) emit() {
	s.mu.Lock()
	snap := s.snap
	fns := append([]func(domain.MetricSnapshot){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// notify emits immediately, bypassing the debounce. Used for user-paced
// changes (water, goals).
func (s *MetricsService) notify() {
	s.emit()
}

func (s *MetricsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
