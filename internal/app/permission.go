package app

import (
	"context"
	"sync"

	"healthtrack/internal/domain"
)

// PermissionGate tracks the notification sink's last known authorization
// and gates whether any instructions may be submitted.
type PermissionGate struct {
	sink domain.NotificationSink

	mu      sync.Mutex
	granted bool
}

// NewPermissionGate creates a gate over the given sink.
func NewPermissionGate(sink domain.NotificationSink) *PermissionGate {
	return &PermissionGate{sink: sink}
}

// Request asks the sink for authorization, a single round trip, and
// records the result.
func (g *PermissionGate) Request(ctx context.Context) (bool, error) {
	granted, err := g.sink.RequestAuthorization(ctx)
	if err != nil {
		granted = false
	}
	g.mu.Lock()
	g.granted = granted
	g.mu.Unlock()
	return granted, err
}

// Check polls the sink's current authorization status and records it.
func (g *PermissionGate) Check(ctx context.Context) (bool, error) {
	granted, err := g.sink.AuthorizationStatus(ctx)
	if err != nil {
		granted = false
	}
	g.mu.Lock()
	g.granted = granted
	g.mu.Unlock()
	return granted, err
}

// Granted reports the last known authorization.
func (g *PermissionGate) Granted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted
}
