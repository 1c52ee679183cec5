package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

type clientRepo struct{ s *Store }

func (r clientRepo) List(ctx context.Context, accountID string) ([]domain.Client, error) {
	return findAll[domain.Client](ctx, r.s, domain.CollectionClients, bson.M{"account_id": accountID}, byName)
}

func (r clientRepo) Insert(ctx context.Context, c *domain.Client) error {
	return insertOne(ctx, r.s, domain.CollectionClients, c)
}

// Update replaces contact fields. Portal key fields are left untouched.
func (r clientRepo) Update(ctx context.Context, c *domain.Client) error {
	update := bson.M{"$set": bson.M{
		"name":    c.Name,
		"email":   c.Email,
		"phone":   c.Phone,
		"address": c.Address,
		"notes":   c.Notes,
	}}
	return updateScoped(ctx, r.s, domain.CollectionClients, "update", c.AccountID, c.ID, update)
}

func (r clientRepo) Delete(ctx context.Context, accountID, id string) error {
	return deleteScoped(ctx, r.s, domain.CollectionClients, accountID, id)
}
