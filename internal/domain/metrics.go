package domain

import "time"

// Bounds for running values and goals. Water amounts are milliliters.
const (
	MaxWater     = 10000.0
	MaxStepGoal  = 50000.0
	MaxWaterGoal = 10000.0

	DefaultStepGoal  = 10000.0
	DefaultWaterGoal = 2000.0
)

// MetricSnapshot holds today's running totals and goals. It is owned by the
// metrics service; LastUpdate is the time of the most recent mutation to any
// running value.
type MetricSnapshot struct {
	Steps      float64   `json:"steps"`
	Calories   float64   `json:"calories"`
	Water      float64   `json:"waterMl"`
	StepGoal   float64   `json:"stepGoal"`
	WaterGoal  float64   `json:"waterGoal"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// DayKey formats t as a YYYY-MM-DD history key. The formatting is fixed
// Gregorian and independent of the device locale, so keys stay stable
// across locale changes.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ClampWater bounds a water running total to [0, MaxWater].
func ClampWater(v float64) float64 {
	return clamp(v, 0, MaxWater)
}

// ClampWaterDelta bounds a single intake delta to [-MaxWater, MaxWater].
func ClampWaterDelta(d float64) float64 {
	return clamp(d, -MaxWater, MaxWater)
}

// ClampStepGoal bounds a step goal to [0, MaxStepGoal].
func ClampStepGoal(v float64) float64 {
	return clamp(v, 0, MaxStepGoal)
}

// ClampWaterGoal bounds a water goal to [0, MaxWaterGoal].
func ClampWaterGoal(v float64) float64 {
	return clamp(v, 0, MaxWaterGoal)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
