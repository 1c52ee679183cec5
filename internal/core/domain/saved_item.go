package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavedItem is a price book entry reused when building documents.
type SavedItem struct {
	ID          string          `json:"id" bson:"_id" validate:"required"`
	AccountID   string          `json:"account_id" bson:"account_id" validate:"required"`
	Name        string          `json:"name" bson:"name" validate:"required,max=200"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	Unit        string          `json:"unit,omitempty" bson:"unit,omitempty"`
	Cost        decimal.Decimal `json:"cost" bson:"cost"`
	Rate        decimal.Decimal `json:"rate" bson:"rate"`
	Markup      decimal.Decimal `json:"markup" bson:"markup"`
	Category    string          `json:"category,omitempty" bson:"category,omitempty"`
	Taxable     bool            `json:"taxable" bson:"taxable"`
	Images      []string        `json:"images,omitempty" bson:"images,omitempty" validate:"omitempty,dive,url"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
}

// CoreFields returns a copy carrying only the fields every price book schema
// accepts. It is the payload of the reduced-field retry.
func (s SavedItem) CoreFields() SavedItem {
	return SavedItem{
		ID:        s.ID,
		AccountID: s.AccountID,
		Name:      s.Name,
		Cost:      s.Cost,
		Rate:      s.Rate,
		Category:  s.Category,
		Taxable:   s.Taxable,
		CreatedAt: s.CreatedAt,
	}
}

// PriceWithMarkup returns cost increased by markup percent.
func (s SavedItem) PriceWithMarkup() decimal.Decimal {
	return s.Cost.Add(s.Cost.Mul(s.Markup).Div(decimal.NewFromInt(100)))
}
