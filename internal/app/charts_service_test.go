package app_test

import (
	"context"
	"testing"
	"time"

	"healthtrack/internal/adapter/memory"
	"healthtrack/internal/app"
	"healthtrack/internal/domain"

	"go.uber.org/zap"
)

func TestGetDaily_OldestFirst(t *testing.T) {
	kv := memory.NewKV()
	hist := app.NewHistoryService(kv, zap.NewNop())
	source := memory.NewSource()
	charts := app.NewChartsService(hist, source, zap.NewNop())
	ctx := context.Background()

	now := time.Date(2026, 2, 8, 14, 0, 0, 0, time.UTC)
	charts.Now = fixedClock(now)

	_ = hist.Set(ctx, "2026-02-07", 1800)
	_ = hist.Set(ctx, "2026-02-08", 600)
	source.SetSum(domain.MetricSteps, "2026-02-07", 9200)
	source.SetSum(domain.MetricSteps, "2026-02-08", 3100)

	points := charts.GetDaily(ctx, 3)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Day != "2026-02-06" || points[2].Day != "2026-02-08" {
		t.Fatalf("unexpected day order: %v .. %v", points[0].Day, points[2].Day)
	}
	if points[0].WaterMl != 0 || points[0].Steps != 0 {
		t.Fatalf("expected empty day to read as zeros, got %+v", points[0])
	}
	if points[1].WaterMl != 1800 || points[1].Steps != 9200 {
		t.Fatalf("unexpected point for 2026-02-07: %+v", points[1])
	}
	if points[2].WaterMl != 600 || points[2].Steps != 3100 {
		t.Fatalf("unexpected point for today: %+v", points[2])
	}
}

func TestGetDaily_DefaultsToWeek(t *testing.T) {
	hist := app.NewHistoryService(memory.NewKV(), zap.NewNop())
	charts := app.NewChartsService(hist, memory.NewSource(), zap.NewNop())
	charts.Now = fixedClock(time.Date(2026, 2, 8, 14, 0, 0, 0, time.UTC))

	if got := len(charts.GetDaily(context.Background(), 0)); got != 7 {
		t.Fatalf("expected 7 points by default, got %d", got)
	}
}

func TestGetDaily_SourceFailureYieldsZeroSteps(t *testing.T) {
	kv := memory.NewKV()
	hist := app.NewHistoryService(kv, zap.NewNop())
	source := memory.NewSource()
	charts := app.NewChartsService(hist, source, zap.NewNop())
	ctx := context.Background()

	charts.Now = fixedClock(time.Date(2026, 2, 8, 14, 0, 0, 0, time.UTC))
	_ = hist.Set(ctx, "2026-02-08", 900)
	source.Fail(domain.MetricSteps, true)

	points := charts.GetDaily(ctx, 1)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Steps != 0 {
		t.Fatalf("expected 0 steps on source failure, got %v", points[0].Steps)
	}
	if points[0].WaterMl != 900 {
		t.Fatalf("expected cached water unaffected, got %v", points[0].WaterMl)
	}
}
