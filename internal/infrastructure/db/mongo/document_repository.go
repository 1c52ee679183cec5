package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// documentRecord stores the JSON payload as an embedded BSON document so it
// stays queryable.
type documentRecord struct {
	ID              string              `bson:"_id"`
	AccountID       string              `bson:"account_id"`
	JobID           string              `bson:"job_id"`
	Type            domain.DocumentType `bson:"type"`
	Payload         bson.D              `bson:"payload"`
	CreatedAt       time.Time           `bson:"created_at"`
	SignedAt        *time.Time          `bson:"signed_at,omitempty"`
	PublicTokenID   string              `bson:"public_token_id,omitempty"`
	PublicTokenHash string              `bson:"public_token_hash,omitempty"`
}

func payloadToBSON(payload json.RawMessage) (bson.D, error) {
	if len(payload) == 0 {
		return bson.D{}, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(payload, false, &doc); err != nil {
		return nil, domain.NewStoreError(domain.KindValidation, "encode", domain.CollectionDocuments,
			fmt.Errorf("payload is not a JSON object: %w", err))
	}
	return doc, nil
}

func payloadToJSON(doc bson.D) (json.RawMessage, error) {
	if doc == nil {
		doc = bson.D{}
	}
	out, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

func toDocumentRecord(d *domain.Document) (*documentRecord, error) {
	payload, err := payloadToBSON(d.Payload)
	if err != nil {
		return nil, err
	}
	return &documentRecord{
		ID:              d.ID,
		AccountID:       d.AccountID,
		JobID:           d.JobID,
		Type:            d.Type,
		Payload:         payload,
		CreatedAt:       d.CreatedAt,
		SignedAt:        d.SignedAt,
		PublicTokenID:   d.PublicTokenID,
		PublicTokenHash: d.PublicTokenHash,
	}, nil
}

func (rec *documentRecord) toDomain() (domain.Document, error) {
	payload, err := payloadToJSON(rec.Payload)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:              rec.ID,
		AccountID:       rec.AccountID,
		JobID:           rec.JobID,
		Type:            rec.Type,
		Payload:         payload,
		CreatedAt:       rec.CreatedAt,
		SignedAt:        rec.SignedAt,
		PublicTokenID:   rec.PublicTokenID,
		PublicTokenHash: rec.PublicTokenHash,
	}, nil
}

func recordsToDocuments(recs []documentRecord) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(recs))
	for i := range recs {
		d, err := recs[i].toDomain()
		if err != nil {
			return nil, classify("list", domain.CollectionDocuments, err)
		}
		out = append(out, d)
	}
	return out, nil
}

type documentRepo struct{ s *Store }

func (r documentRepo) List(ctx context.Context, accountID string) ([]domain.Document, error) {
	recs, err := findAll[documentRecord](ctx, r.s, domain.CollectionDocuments, bson.M{"account_id": accountID}, newestFirst)
	if err != nil {
		return nil, err
	}
	return recordsToDocuments(recs)
}

func (r documentRepo) Insert(ctx context.Context, d *domain.Document) error {
	rec, err := toDocumentRecord(d)
	if err != nil {
		return err
	}
	return insertOne(ctx, r.s, domain.CollectionDocuments, rec)
}

// Update replaces job, type and payload. Signature and token fields are only
// written by the portal.
func (r documentRepo) Update(ctx context.Context, d *domain.Document) error {
	payload, err := payloadToBSON(d.Payload)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"job_id":  d.JobID,
		"type":    d.Type,
		"payload": payload,
	}}
	return updateScoped(ctx, r.s, domain.CollectionDocuments, "update", d.AccountID, d.ID, update)
}

func (r documentRepo) Delete(ctx context.Context, accountID, id string) error {
	return deleteScoped(ctx, r.s, domain.CollectionDocuments, accountID, id)
}
