package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// SaveInventoryItem inserts or replaces an item. A new item with stock logs an
// add entry; an edit that changes the quantity logs an update entry with the
// delta. Quantity stays authoritative when the history entry cannot be
// written: the write succeeds and ErrHistoryNotRecorded is returned.
func (c *SyncController) SaveInventoryItem(ctx context.Context, item *domain.InventoryItem) error {
	create := item.ID == ""
	op := "update_inventory"
	if create {
		op = "create_inventory"
	}

	var histErr error
	err := c.write(ctx, op, func(ctx context.Context) error {
		item.AccountID = c.accountID
		item.UpdatedAt = c.now()

		if create {
			item.ID = c.newID()
			if err := c.validateEntity(item); err != nil {
				item.ID = ""
				return err
			}
			if err := c.remote.Inventory().Insert(ctx, item); err != nil {
				item.ID = ""
				return err
			}
			if item.Quantity > 0 {
				histErr = c.appendHistory(ctx, item.ID, "", item.Quantity, domain.ActionAdd, "initial stock")
			}
			return nil
		}

		if err := c.validateEntity(item); err != nil {
			return err
		}
		prev, known := c.publishedItem(item.ID)
		if err := c.remote.Inventory().Update(ctx, item); err != nil {
			return err
		}
		if known && prev.Quantity != item.Quantity {
			histErr = c.appendHistory(ctx, item.ID, "", item.Quantity-prev.Quantity, domain.ActionUpdate, "quantity edited")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return histErr
}

// DeleteInventoryItem removes an item. Its history rows are kept.
func (c *SyncController) DeleteInventoryItem(ctx context.Context, id string) error {
	return c.write(ctx, "delete_inventory", func(ctx context.Context) error {
		return c.remote.Inventory().Delete(ctx, c.accountID, id)
	})
}

// AllocateInventory takes n units of an item for a job. The resulting
// quantity is clamped at zero; the history entry always records -n.
func (c *SyncController) AllocateInventory(ctx context.Context, itemID, jobID string, n float64) error {
	if !positive(n) {
		return fmt.Errorf("allocate_inventory: %w: quantity must be positive", domain.ErrValidation)
	}
	return c.adjustInventory(ctx, "allocate_inventory", itemID, jobID, -n, domain.ActionJobAllocation, "")
}

// RestockInventory adds n units to an item.
func (c *SyncController) RestockInventory(ctx context.Context, itemID string, n float64, note string) error {
	if !positive(n) {
		return fmt.Errorf("restock_inventory: %w: quantity must be positive", domain.ErrValidation)
	}
	return c.adjustInventory(ctx, "restock_inventory", itemID, "", n, domain.ActionRestock, note)
}

// RecordInventoryHistory appends a free-form history entry without touching
// the item quantity.
func (c *SyncController) RecordInventoryHistory(ctx context.Context, e *domain.InventoryHistoryEntry) error {
	return c.write(ctx, "record_inventory_history", func(ctx context.Context) error {
		if e.ID == "" {
			e.ID = c.newID()
		}
		e.CreatedAt = c.now()
		if err := c.validateEntity(e); err != nil {
			return err
		}
		return c.remote.InventoryHistory().Append(ctx, c.accountID, e)
	})
}

func (c *SyncController) adjustInventory(ctx context.Context, op, itemID, jobID string, delta float64, action domain.HistoryAction, note string) error {
	var histErr error
	err := c.write(ctx, op, func(ctx context.Context) error {
		item, ok := c.publishedItem(itemID)
		if !ok {
			return domain.NewStoreError(domain.KindNotFound, "adjust", domain.CollectionInventory, fmt.Errorf("item %s", itemID))
		}

		quantity := item.Quantity + delta
		if delta < 0 {
			quantity = domain.AllocatedQuantity(item.Quantity, -delta)
		}
		if err := c.remote.Inventory().SetQuantity(ctx, c.accountID, itemID, quantity); err != nil {
			return err
		}
		c.patchQuantity(itemID, quantity)

		histErr = c.appendHistory(ctx, itemID, jobID, delta, action, note)
		return nil
	})
	if err != nil {
		return err
	}
	return histErr
}

func (c *SyncController) appendHistory(ctx context.Context, itemID, jobID string, delta float64, action domain.HistoryAction, note string) error {
	entry := &domain.InventoryHistoryEntry{
		ID:             c.newID(),
		ItemID:         itemID,
		JobID:          jobID,
		QuantityChange: delta,
		Action:         action,
		Note:           note,
		CreatedAt:      c.now(),
	}
	if err := c.remote.InventoryHistory().Append(ctx, c.accountID, entry); err != nil {
		c.log.Error().Err(err).
			Str("item_id", itemID).
			Str("action", string(action)).
			Float64("quantity_change", delta).
			Msg("inventory quantity written but history entry failed")
		if errors.Is(err, domain.ErrSchemaMismatch) {
			c.halt(err)
		}
		return fmt.Errorf("%w: %w", domain.ErrHistoryNotRecorded, err)
	}
	return nil
}

func positive(n float64) bool {
	return n > 0 && !math.IsInf(n, 1)
}

func (c *SyncController) publishedItem(id string) (domain.InventoryItem, bool) {
	for _, item := range c.state.Inventory() {
		if item.ID == id {
			return item, true
		}
	}
	return domain.InventoryItem{}, false
}

func (c *SyncController) patchQuantity(id string, quantity float64) {
	now := c.now()
	c.state.update(func(s *Snapshot) {
		for i := range s.Inventory {
			if s.Inventory[i].ID == id {
				s.Inventory[i].Quantity = quantity
				s.Inventory[i].UpdatedAt = now
				return
			}
		}
	})
}
