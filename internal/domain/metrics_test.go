package domain_test

import (
	"testing"
	"time"

	"healthtrack/internal/domain"
)

func TestDayKey(t *testing.T) {
	d := time.Date(2026, 2, 8, 23, 59, 0, 0, time.UTC)
	if got := domain.DayKey(d); got != "2026-02-08" {
		t.Fatalf("expected 2026-02-08, got %s", got)
	}
}

func TestClamps(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) float64
		in   float64
		want float64
	}{
		{"water below", domain.ClampWater, -1, 0},
		{"water above", domain.ClampWater, 20000, 10000},
		{"water within", domain.ClampWater, 1500, 1500},
		{"delta below", domain.ClampWaterDelta, -99999, -10000},
		{"delta above", domain.ClampWaterDelta, 99999, 10000},
		{"step goal below", domain.ClampStepGoal, -5, 0},
		{"step goal above", domain.ClampStepGoal, 999999, 50000},
		{"water goal above", domain.ClampWaterGoal, 50000, 10000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fn(tc.in); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
