package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tradeworks/contractor-hub/internal/api/metrics"
	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type billingService struct {
	profiles ports.ProfileRepository
	dedup    DedupChecker
	log      zerolog.Logger
}

// NewBillingService returns a BillingService implementation.
func NewBillingService(profiles ports.ProfileRepository, dedup DedupChecker, log zerolog.Logger) ports.BillingService {
	return &billingService{profiles: profiles, dedup: dedup, log: log}
}

// Process deduplicates a billing event and applies the tier it implies.
func (s *billingService) Process(ctx context.Context, e ports.BillingEvent) error {
	tier, ok := tierFor(e.Type)
	if !ok {
		metrics.BillingEventsTotal.WithLabelValues(e.Type, "error").Inc()
		return fmt.Errorf("process billing event: %w (%s)", domain.ErrUnknownEvent, e.Type)
	}

	isDup, err := s.dedup.IsDuplicate(ctx, e.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", e.ID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.BillingEventsTotal.WithLabelValues(e.Type, "duplicate").Inc()
		s.log.Debug().Str("event_id", e.ID).Msg("duplicate billing event skipped")
		return nil
	}

	if err := s.SetTier(ctx, e.AccountID, tier); err != nil {
		metrics.BillingEventsTotal.WithLabelValues(e.Type, "error").Inc()
		return fmt.Errorf("process billing event %s: %w", e.ID, err)
	}

	// Marked only once the tier is written; a redelivery after a failed write
	// must still be applied.
	if err := s.dedup.Mark(ctx, e.ID); err != nil {
		s.log.Warn().Err(err).Str("event_id", e.ID).Msg("failed to set dedup key")
	}

	metrics.BillingEventsTotal.WithLabelValues(e.Type, "processed").Inc()
	s.log.Info().
		Str("event_id", e.ID).
		Str("account_id", e.AccountID).
		Str("tier", string(tier)).
		Msg("billing event processed")
	return nil
}

// SetTier writes the subscription tier of an account.
func (s *billingService) SetTier(ctx context.Context, accountID string, tier domain.Tier) error {
	if tier != domain.TierFree && tier != domain.TierPremium {
		return fmt.Errorf("%w: unknown tier %q", domain.ErrValidation, tier)
	}
	return s.profiles.SetTier(ctx, accountID, tier)
}

func tierFor(eventType string) (domain.Tier, bool) {
	switch eventType {
	case ports.EventSubscriptionActivated:
		return domain.TierPremium, true
	case ports.EventSubscriptionCancelled:
		return domain.TierFree, true
	}
	return "", false
}
