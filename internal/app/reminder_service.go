package app

import (
	"context"
	"strconv"
	"sync"

	"healthtrack/internal/domain"

	"go.uber.org/zap"
)

// Persisted reminder settings keys, carried from the original store layout.
const (
	keyRemindersEnabled = "notificationsEnabled"
	keyReminderMode     = "notificationMode"
)

// ReminderService is the only path that mutates the notification sink's
// pending set. Every recompute performs a full replace: clear everything,
// then submit the freshly computed instruction set. Scheduling is gated by
// the permission state and the user-facing enabled flag.
//
// The metrics reference is a non-owning read handle; the service never
// mutates metric state.
type ReminderService struct {
	sink    domain.NotificationSink
	kv      domain.KeyValueStore
	gate    *PermissionGate
	metrics *MetricsService
	log     *zap.Logger

	mu       sync.Mutex
	mode     domain.ReminderMode
	enabled  bool
	onDenied func()
}

// NewReminderService creates a ReminderService. The mode defaults to rare
// until Load or SetMode replaces it.
func NewReminderService(sink domain.NotificationSink, kv domain.KeyValueStore, gate *PermissionGate, metrics *MetricsService, log *zap.Logger) *ReminderService {
	return &ReminderService{
		sink:    sink,
		kv:      kv,
		gate:    gate,
		metrics: metrics,
		log:     log,
		mode:    domain.ReminderRare,
	}
}

// OnDenied registers the callback invoked when a user-initiated enable is
// denied by the sink, for user-visible feedback.
func (s *ReminderService) OnDenied(fn func()) {
	s.mu.Lock()
	s.onDenied = fn
	s.mu.Unlock()
}

// Load restores the persisted mode and enabled flag and refreshes the
// authorization state. A previously enabled flag that the sink no longer
// authorizes snaps back to false.
func (s *ReminderService) Load(ctx context.Context) error {
	if raw, ok, err := s.kv.Get(ctx, keyReminderMode); err != nil {
		return err
	} else if ok {
		s.mu.Lock()
		s.mode = domain.ParseReminderMode(raw)
		s.mu.Unlock()
	}

	enabled := false
	if raw, ok, err := s.kv.Get(ctx, keyRemindersEnabled); err != nil {
		return err
	} else if ok {
		enabled, _ = strconv.ParseBool(raw)
	}

	granted, err := s.gate.Check(ctx)
	if err != nil {
		s.log.Warn("authorization status check failed", zap.Error(err))
	}
	if enabled && !granted {
		s.log.Info("notification authorization revoked, disabling reminders")
		enabled = false
		if err := s.kv.Set(ctx, keyRemindersEnabled, "false"); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
	return nil
}

// Mode returns the active reminder mode.
func (s *ReminderService) Mode() domain.ReminderMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Enabled reports the user-facing enabled flag.
func (s *ReminderService) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetMode persists the reminder mode; a change triggers an immediate
// recompute.
func (s *ReminderService) SetMode(ctx context.Context, mode domain.ReminderMode) error {
	s.mu.Lock()
	changed := s.mode != mode
	s.mode = mode
	s.mu.Unlock()

	if err := s.kv.Set(ctx, keyReminderMode, string(mode)); err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.log.Info("reminder mode changed", zap.String("mode", string(mode)))
	return s.Recompute(ctx)
}

// SetEnabled toggles the user-facing flag. Enabling is provisional until
// the sink confirms authorization; on denial the flag snaps back to false,
// pending instructions are cleared and the denial callback fires. The
// applied flag value is returned.
func (s *ReminderService) SetEnabled(ctx context.Context, enabled bool) (bool, error) {
	if !enabled {
		s.mu.Lock()
		s.enabled = false
		s.mu.Unlock()
		if err := s.kv.Set(ctx, keyRemindersEnabled, "false"); err != nil {
			return false, err
		}
		return false, s.sink.ClearAll(ctx)
	}

	granted, err := s.gate.Request(ctx)
	if err != nil {
		s.log.Warn("authorization request failed", zap.Error(err))
	}
	if !granted {
		s.mu.Lock()
		s.enabled = false
		denied := s.onDenied
		s.mu.Unlock()

		if err := s.kv.Set(ctx, keyRemindersEnabled, "false"); err != nil {
			return false, err
		}
		if err := s.sink.ClearAll(ctx); err != nil {
			return false, err
		}
		if denied != nil {
			denied()
		}
		return false, nil
	}

	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
	if err := s.kv.Set(ctx, keyRemindersEnabled, "true"); err != nil {
		return true, err
	}
	return true, s.Recompute(ctx)
}

// Recompute regenerates the full pending set from the current metrics.
// Without permission, or with the flag off, it clears the sink instead.
func (s *ReminderService) Recompute(ctx context.Context) error {
	s.mu.Lock()
	enabled := s.enabled
	mode := s.mode
	s.mu.Unlock()

	if !enabled || !s.gate.Granted() {
		return s.sink.ClearAll(ctx)
	}

	snap := s.metrics.Snapshot()
	instructions := domain.ComputeReminders(mode, snap.Steps, snap.StepGoal, snap.Water, snap.WaterGoal)

	if err := s.sink.ClearAll(ctx); err != nil {
		return err
	}
	for _, ins := range instructions {
		if err := s.sink.Submit(ctx, ins); err != nil {
			s.log.Warn("failed to submit reminder",
				zap.String("id", ins.ID), zap.Error(err))
		}
	}
	s.log.Debug("reminders scheduled",
		zap.String("mode", string(mode)), zap.Int("count", len(instructions)))
	return nil
}

// Pending returns the sink's pending set, for debug inspection.
func (s *ReminderService) Pending(ctx context.Context) ([]domain.ReminderInstruction, error) {
	return s.sink.Pending(ctx)
}
