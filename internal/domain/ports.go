package domain

import (
	"context"
	"time"
)

// MetricKind identifies a platform-sourced cumulative metric.
type MetricKind string

const (
	MetricSteps    MetricKind = "steps"
	MetricCalories MetricKind = "calories"
)

// KeyValueStore is the port for on-device key-value persistence. There is
// no transactional guarantee across keys; callers must tolerate partial
// persistence after a crash.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// HealthSource is the port for the platform health-data service. All calls
// are opaque async queries returning numeric sums.
type HealthSource interface {
	RequestAuthorization(ctx context.Context, kinds []MetricKind) (bool, error)
	CumulativeSum(ctx context.Context, kind MetricKind, start, end time.Time) (float64, error)
	Observe(kind MetricKind, fn func())
	EnableBackgroundDelivery(kind MetricKind) error
}

// NotificationSink is the port for the platform notification center.
// Pending is for debug inspection only.
type NotificationSink interface {
	RequestAuthorization(ctx context.Context) (bool, error)
	AuthorizationStatus(ctx context.Context) (bool, error)
	Submit(ctx context.Context, ins ReminderInstruction) error
	Cancel(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	Pending(ctx context.Context) ([]ReminderInstruction, error)
}
