package ports

import (
	"context"
	"time"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// BillingEvent is the DTO passed from the webhook handler to BillingService.
type BillingEvent struct {
	ID         string
	Type       string
	AccountID  string
	OccurredAt time.Time
}

// BillingService applies subscription changes to account profiles.
type BillingService interface {
	Process(ctx context.Context, event BillingEvent) error
	SetTier(ctx context.Context, accountID string, tier domain.Tier) error
}
