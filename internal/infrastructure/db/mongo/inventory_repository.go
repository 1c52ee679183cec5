package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) List(ctx context.Context, accountID string) ([]domain.InventoryItem, error) {
	return findAll[domain.InventoryItem](ctx, r.s, domain.CollectionInventory, bson.M{"account_id": accountID}, byName)
}

func (r inventoryRepo) Insert(ctx context.Context, item *domain.InventoryItem) error {
	return insertOne(ctx, r.s, domain.CollectionInventory, item)
}

func (r inventoryRepo) Update(ctx context.Context, item *domain.InventoryItem) error {
	update := bson.M{"$set": bson.M{
		"name":              item.Name,
		"sku":               item.SKU,
		"category":          item.Category,
		"quantity":          item.Quantity,
		"unit":              item.Unit,
		"unit_cost":         item.UnitCost,
		"reorder_threshold": item.ReorderThreshold,
		"supplier":          item.Supplier,
		"location":          item.Location,
		"updated_at":        item.UpdatedAt,
	}}
	return updateScoped(ctx, r.s, domain.CollectionInventory, "update", item.AccountID, item.ID, update)
}

func (r inventoryRepo) SetQuantity(ctx context.Context, accountID, id string, quantity float64) error {
	update := bson.M{"$set": bson.M{"quantity": quantity}, "$currentDate": bson.M{"updated_at": true}}
	return updateScoped(ctx, r.s, domain.CollectionInventory, "set_quantity", accountID, id, update)
}

func (r inventoryRepo) Delete(ctx context.Context, accountID, id string) error {
	return deleteScoped(ctx, r.s, domain.CollectionInventory, accountID, id)
}

// historyRecord carries the owning account so rows of deleted items stay
// visible to it.
type historyRecord struct {
	domain.InventoryHistoryEntry `bson:",inline"`
	AccountID                    string `bson:"account_id"`
}

type historyRepo struct{ s *Store }

func (r historyRepo) List(ctx context.Context, accountID string) ([]domain.InventoryHistoryEntry, error) {
	recs, err := findAll[historyRecord](ctx, r.s, domain.CollectionInventoryHistory, bson.M{"account_id": accountID}, newestFirst)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InventoryHistoryEntry, len(recs))
	for i := range recs {
		out[i] = recs[i].InventoryHistoryEntry
	}
	return out, nil
}

// Append refuses rows for items outside the account.
func (r historyRepo) Append(ctx context.Context, accountID string, e *domain.InventoryHistoryEntry) error {
	checkCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	n, err := r.s.col(domain.CollectionInventory).CountDocuments(checkCtx, bson.M{"_id": e.ItemID, "account_id": accountID})
	if err != nil {
		return classify("append", domain.CollectionInventoryHistory, err)
	}
	if n == 0 {
		return domain.NewStoreError(domain.KindAuthorization, "append", domain.CollectionInventoryHistory,
			fmt.Errorf("item %s not owned by account", e.ItemID))
	}
	return insertOne(ctx, r.s, domain.CollectionInventoryHistory, historyRecord{InventoryHistoryEntry: *e, AccountID: accountID})
}
