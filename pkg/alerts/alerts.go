package alerts

import (
	"context"
	"time"
)

// LowBalanceEvent is published when a debit drops a tenant's balance below its
// configured threshold. Amounts are in the smallest currency unit.
type LowBalanceEvent struct {
	TenantID   string    `json:"tenant_id"`
	Balance    int64     `json:"balance"`
	Threshold  int64     `json:"threshold"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher defines the interface for a component that hands low balance
// events to the notification pipeline.
type Publisher interface {
	// PublishLowBalance enqueues the event for asynchronous delivery.
	PublishLowBalance(ctx context.Context, event LowBalanceEvent) error
}

// NoOpPublisher discards events. Used in tests and when no queue is configured.
type NoOpPublisher struct{}

// NewNoOpPublisher creates a new NoOpPublisher.
func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

// PublishLowBalance does nothing.
func (p *NoOpPublisher) PublishLowBalance(_ context.Context, _ LowBalanceEvent) error {
	return nil
}

// Make sure we conform to the interface
var _ Publisher = (*NoOpPublisher)(nil)
