package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"healthtrack/internal/adapter/memory"
	"healthtrack/internal/app"
	"healthtrack/internal/domain"

	"go.uber.org/zap"
)

func newMetrics(t *testing.T, kv *memory.KV) (*app.MetricsService, *app.HistoryService) {
	t.Helper()
	log := zap.NewNop()
	hist := app.NewHistoryService(kv, log)
	svc := app.NewMetricsService(kv, hist, log)
	t.Cleanup(svc.Close)
	return svc, hist
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAddWater_ClampsTotal(t *testing.T) {
	svc, _ := newMetrics(t, memory.NewKV())
	ctx := context.Background()

	total, err := svc.AddWater(ctx, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 500 {
		t.Fatalf("expected 500, got %v", total)
	}

	total, _ = svc.AddWater(ctx, 99999)
	if total != 10000 {
		t.Fatalf("expected clamp to 10000, got %v", total)
	}

	total, _ = svc.AddWater(ctx, -99999)
	if total != 0 {
		t.Fatalf("expected floor at 0, got %v", total)
	}
}

func TestUndoLastWater_RestoresTotal(t *testing.T) {
	svc, _ := newMetrics(t, memory.NewKV())
	ctx := context.Background()

	if _, err := svc.AddWater(ctx, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddWater(ctx, 250); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	undone, total, err := svc.UndoLastWater(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !undone || total != 300 {
		t.Fatalf("expected undone=true total=300, got undone=%v total=%v", undone, total)
	}

	// Only a single level of undo exists.
	undone, total, err = svc.UndoLastWater(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if undone || total != 300 {
		t.Fatalf("expected no-op undo, got undone=%v total=%v", undone, total)
	}
}

func TestUndoLastWater_AfterClampReversesEffectiveDelta(t *testing.T) {
	svc, _ := newMetrics(t, memory.NewKV())
	ctx := context.Background()

	if _, err := svc.AddWater(ctx, 9900); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total, _ := svc.AddWater(ctx, 500); total != 10000 {
		t.Fatalf("expected clamp to 10000, got %v", total)
	}

	_, total, err := svc.UndoLastWater(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 9900 {
		t.Fatalf("expected 9900 after undo, got %v", total)
	}
}

func TestGoalSetters_Clamp(t *testing.T) {
	svc, _ := newMetrics(t, memory.NewKV())
	ctx := context.Background()

	if goal, _ := svc.SetStepGoal(ctx, -5); goal != 0 {
		t.Errorf("expected step goal 0, got %v", goal)
	}
	if goal, _ := svc.SetStepGoal(ctx, 999999); goal != 50000 {
		t.Errorf("expected step goal 50000, got %v", goal)
	}
	if goal, _ := svc.SetWaterGoal(ctx, 50000); goal != 10000 {
		t.Errorf("expected water goal 10000, got %v", goal)
	}
}

func TestDebounce_CoalescesBursts(t *testing.T) {
	svc, _ := newMetrics(t, memory.NewKV())
	svc.DebounceWindow = 50 * time.Millisecond
	ctx := context.Background()

	var mu sync.Mutex
	var events []domain.MetricSnapshot
	svc.OnChange(func(s domain.MetricSnapshot) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	})

	if err := svc.SetSteps(ctx, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := svc.SetSteps(ctx, 250); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	if events[0].Steps != 250 {
		t.Fatalf("expected event to carry latest value 250, got %v", events[0].Steps)
	}
}

func TestRefreshFromSource_FailureZeroes(t *testing.T) {
	svc, _ := newMetrics(t, memory.NewKV())
	ctx := context.Background()

	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	svc.Now = fixedClock(now)

	source := memory.NewSource()
	source.SetSum(domain.MetricSteps, "2026-02-08", 4200)
	source.SetSum(domain.MetricCalories, "2026-02-08", 310)

	svc.RefreshFromSource(ctx, source)
	snap := svc.Snapshot()
	if snap.Steps != 4200 || snap.Calories != 310 {
		t.Fatalf("expected 4200/310, got %v/%v", snap.Steps, snap.Calories)
	}

	source.Fail(domain.MetricSteps, true)
	svc.RefreshFromSource(ctx, source)
	snap = svc.Snapshot()
	if snap.Steps != 0 {
		t.Fatalf("expected failed fetch to zero steps, got %v", snap.Steps)
	}
	if snap.Calories != 310 {
		t.Fatalf("expected calories untouched, got %v", snap.Calories)
	}
}

func TestLoad_RestoresState(t *testing.T) {
	kv := memory.NewKV()
	ctx := context.Background()

	last := time.Date(2026, 2, 8, 9, 30, 0, 0, time.UTC)
	_ = kv.Set(ctx, "waterIntake", "750")
	_ = kv.Set(ctx, "waterGoal", "2500")
	_ = kv.Set(ctx, "stepGoal", "12000")
	_ = kv.Set(ctx, "lastUpdateDate", last.Format(time.RFC3339))

	svc, _ := newMetrics(t, kv)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := svc.Snapshot()
	if snap.Water != 750 || snap.WaterGoal != 2500 || snap.StepGoal != 12000 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap.LastUpdate.Equal(last) {
		t.Fatalf("expected last update %v, got %v", last, snap.LastUpdate)
	}
}

func TestLoad_NegativeWaterGoalResets(t *testing.T) {
	kv := memory.NewKV()
	ctx := context.Background()

	_ = kv.Set(ctx, "waterGoal", "-500")
	_ = kv.Set(ctx, "waterIntake", "750")
	_ = kv.Set(ctx, "waterHistory", `{"2026-02-07":1500}`)

	svc, hist := newMetrics(t, kv)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := svc.Snapshot()
	if snap.Water != 0 {
		t.Fatalf("expected water reset to 0, got %v", snap.Water)
	}
	if snap.WaterGoal != 2000 {
		t.Fatalf("expected water goal reset to default, got %v", snap.WaterGoal)
	}
	if len(hist.All()) != 0 {
		t.Fatalf("expected history cleared, got %v", hist.All())
	}
}

func TestLoad_CorruptWaterResets(t *testing.T) {
	kv := memory.NewKV()
	ctx := context.Background()

	_ = kv.Set(ctx, "waterIntake", "20000")
	_ = kv.Set(ctx, "waterHistory", `{"2026-02-07":1500}`)

	svc, hist := newMetrics(t, kv)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := svc.Snapshot()
	if snap.Water != 0 {
		t.Fatalf("expected water reset to 0, got %v", snap.Water)
	}
	if snap.WaterGoal != 2000 {
		t.Fatalf("expected water goal reset to default, got %v", snap.WaterGoal)
	}
	if len(hist.All()) != 0 {
		t.Fatalf("expected history cleared, got %v", hist.All())
	}
	if raw, _, _ := kv.Get(ctx, "waterIntake"); raw != "0" {
		t.Fatalf("expected persisted water reset, got %q", raw)
	}
}
