package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

type profileRepo struct{ s *Store }

func (r profileRepo) Get(ctx context.Context, accountID string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.s.requireCollection(ctx, domain.CollectionProfiles); err != nil {
		return nil, err
	}
	var p domain.Profile
	err := r.s.col(domain.CollectionProfiles).FindOne(ctx, bson.M{"_id": accountID}).Decode(&p)
	if err != nil {
		return nil, classify("get", domain.CollectionProfiles, err)
	}
	return &p, nil
}

// Save upserts the profile. Subscription tier and usage counters have their
// own writers and are only initialised on insert.
func (r profileRepo) Save(ctx context.Context, p *domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"company_name":      p.CompanyName,
			"contact_name":      p.ContactName,
			"email":             p.Email,
			"phone":             p.Phone,
			"address":           p.Address,
			"logo_url":          p.LogoURL,
			"theme":             p.Theme,
			"email_integration": p.EmailIntegration,
			"updated_at":        p.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"subscription_tier": domain.TierFree,
			"usage":             domain.Usage{},
		},
	}
	_, err := r.s.col(domain.CollectionProfiles).UpdateOne(ctx, bson.M{"_id": p.ID}, update, options.Update().SetUpsert(true))
	return classify("save", domain.CollectionProfiles, err)
}

func (r profileRepo) SetTier(ctx context.Context, accountID string, tier domain.Tier) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"subscription_tier": tier}}
	_, err := r.s.col(domain.CollectionProfiles).UpdateOne(ctx, bson.M{"_id": accountID}, update, options.Update().SetUpsert(true))
	return classify("set_tier", domain.CollectionProfiles, err)
}

func (r profileRepo) IncrementUsage(ctx context.Context, accountID string, documents, emails int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$inc": bson.M{
		"usage.documents_generated": documents,
		"usage.emails_sent":         emails,
	}}
	_, err := r.s.col(domain.CollectionProfiles).UpdateOne(ctx, bson.M{"_id": accountID}, update, options.Update().SetUpsert(true))
	return classify("increment_usage", domain.CollectionProfiles, err)
}
