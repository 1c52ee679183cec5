package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryAction tags an inventory history row.
type HistoryAction string

const (
	ActionAdd           HistoryAction = "add"
	ActionRestock       HistoryAction = "restock"
	ActionJobAllocation HistoryAction = "job_allocation"
	ActionUpdate        HistoryAction = "update"
)

// InventoryItem is a stocked material. Quantity is the authoritative on-hand
// count; history rows are an audit trail and are never summed back into it.
type InventoryItem struct {
	ID               string          `json:"id" bson:"_id" validate:"required"`
	AccountID        string          `json:"account_id" bson:"account_id" validate:"required"`
	Name             string          `json:"name" bson:"name" validate:"required,max=200"`
	SKU              string          `json:"sku,omitempty" bson:"sku,omitempty"`
	Category         string          `json:"category,omitempty" bson:"category,omitempty"`
	Quantity         float64         `json:"quantity" bson:"quantity" validate:"gte=0"`
	Unit             string          `json:"unit,omitempty" bson:"unit,omitempty"`
	UnitCost         decimal.Decimal `json:"unit_cost" bson:"unit_cost"`
	ReorderThreshold float64         `json:"reorder_threshold" bson:"reorder_threshold" validate:"gte=0"`
	Supplier         string          `json:"supplier,omitempty" bson:"supplier,omitempty"`
	Location         string          `json:"location,omitempty" bson:"location,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at" bson:"updated_at"`
}

// NeedsReorder reports whether on-hand quantity is at or below the threshold.
func (i InventoryItem) NeedsReorder() bool {
	return i.ReorderThreshold > 0 && i.Quantity <= i.ReorderThreshold
}

// InventoryHistoryEntry is an immutable log row for a quantity change.
type InventoryHistoryEntry struct {
	ID             string        `json:"id" bson:"_id" validate:"required"`
	ItemID         string        `json:"item_id" bson:"item_id" validate:"required"`
	JobID          string        `json:"job_id,omitempty" bson:"job_id,omitempty"`
	QuantityChange float64       `json:"quantity_change" bson:"quantity_change"`
	Action         HistoryAction `json:"action" bson:"action" validate:"required,oneof=add restock job_allocation update"`
	Note           string        `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
}

// AllocatedQuantity returns the on-hand quantity left after taking n units,
// clamped at zero.
func AllocatedQuantity(current, n float64) float64 {
	return max(0, current-n)
}
