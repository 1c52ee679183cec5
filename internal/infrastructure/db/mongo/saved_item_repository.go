package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

type savedItemRepo struct{ s *Store }

func (r savedItemRepo) List(ctx context.Context, accountID string) ([]domain.SavedItem, error) {
	return findAll[domain.SavedItem](ctx, r.s, domain.CollectionSavedItems, bson.M{"account_id": accountID}, byName)
}

func (r savedItemRepo) Insert(ctx context.Context, si *domain.SavedItem) error {
	return insertOne(ctx, r.s, domain.CollectionSavedItems, si)
}

func (r savedItemRepo) Update(ctx context.Context, si *domain.SavedItem) error {
	update := bson.M{"$set": bson.M{
		"name":        si.Name,
		"description": si.Description,
		"unit":        si.Unit,
		"cost":        si.Cost,
		"rate":        si.Rate,
		"markup":      si.Markup,
		"category":    si.Category,
		"taxable":     si.Taxable,
		"images":      si.Images,
	}}
	return updateScoped(ctx, r.s, domain.CollectionSavedItems, "update", si.AccountID, si.ID, update)
}

func (r savedItemRepo) Delete(ctx context.Context, accountID, id string) error {
	return deleteScoped(ctx, r.s, domain.CollectionSavedItems, accountID, id)
}
