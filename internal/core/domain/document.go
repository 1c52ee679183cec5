package domain

import (
	"encoding/json"
	"time"
)

// DocumentType tags the payload shape of a Document.
type DocumentType string

const (
	DocInvoice       DocumentType = "invoice"
	DocEstimate      DocumentType = "estimate"
	DocQuote         DocumentType = "quote"
	DocProposal      DocumentType = "proposal"
	DocContract      DocumentType = "contract"
	DocWorkOrder     DocumentType = "work_order"
	DocChangeOrder   DocumentType = "change_order"
	DocPurchaseOrder DocumentType = "purchase_order"
	DocReceipt       DocumentType = "receipt"
	DocCreditNote    DocumentType = "credit_note"
	DocLienWaiver    DocumentType = "lien_waiver"
	DocDailyLog      DocumentType = "daily_log"
)

// DocumentTypes lists the twelve supported document kinds.
var DocumentTypes = []DocumentType{
	DocInvoice, DocEstimate, DocQuote, DocProposal, DocContract, DocWorkOrder,
	DocChangeOrder, DocPurchaseOrder, DocReceipt, DocCreditNote, DocLienWaiver, DocDailyLog,
}

// Valid reports whether t is a known document kind.
func (t DocumentType) Valid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Document is a generated business record. Payload is opaque JSON whose
// shape depends on Type; it is never validated across types.
type Document struct {
	ID              string          `json:"id" bson:"_id" validate:"required"`
	AccountID       string          `json:"account_id" bson:"account_id" validate:"required"`
	JobID           string          `json:"job_id" bson:"job_id" validate:"required"`
	Type            DocumentType    `json:"type" bson:"type" validate:"required"`
	Payload         json.RawMessage `json:"payload" bson:"-"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	SignedAt        *time.Time      `json:"signed_at,omitempty" bson:"signed_at,omitempty"`
	PublicTokenID   string          `json:"public_token_id,omitempty" bson:"public_token_id,omitempty"`
	PublicTokenHash string          `json:"-" bson:"public_token_hash,omitempty"`
}

// Signed reports whether the document has been signed through the portal.
func (d *Document) Signed() bool {
	return d.SignedAt != nil
}
