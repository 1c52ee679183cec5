package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

func (s *Store) FindClientByPortalKeyID(ctx context.Context, keyID string) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Client
	err := s.col(domain.CollectionClients).FindOne(ctx, bson.M{"portal_key_id": keyID}).Decode(&c)
	if err != nil {
		return nil, classify("find_by_portal_key", domain.CollectionClients, err)
	}
	return &c, nil
}

func (s *Store) FindDocumentByTokenID(ctx context.Context, tokenID string) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec documentRecord
	err := s.col(domain.CollectionDocuments).FindOne(ctx, bson.M{"public_token_id": tokenID}).Decode(&rec)
	if err != nil {
		return nil, classify("find_by_token", domain.CollectionDocuments, err)
	}
	d, err := rec.toDomain()
	if err != nil {
		return nil, classify("find_by_token", domain.CollectionDocuments, err)
	}
	return &d, nil
}

// ListClientDocuments returns documents of every job linked to the client.
func (s *Store) ListClientDocuments(ctx context.Context, accountID, clientID string) ([]domain.Document, error) {
	jobCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw, err := s.col(domain.CollectionJobs).Distinct(jobCtx, "_id", bson.M{"account_id": accountID, "client_id": clientID})
	if err != nil {
		return nil, classify("list_client_documents", domain.CollectionJobs, err)
	}
	jobIDs := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			jobIDs = append(jobIDs, id)
		}
	}
	if len(jobIDs) == 0 {
		return []domain.Document{}, nil
	}

	filter := bson.M{"account_id": accountID, "job_id": bson.M{"$in": jobIDs}}
	recs, err := findAll[documentRecord](ctx, s, domain.CollectionDocuments, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	return recordsToDocuments(recs)
}

func (s *Store) GetProfile(ctx context.Context, accountID string) (*domain.Profile, error) {
	return s.Profiles().Get(ctx, accountID)
}

// SignDocument sets payload and signed_at only while signed_at is unset.
func (s *Store) SignDocument(ctx context.Context, accountID, documentID string, payload json.RawMessage, signedAt time.Time) error {
	doc, err := payloadToBSON(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	col := s.col(domain.CollectionDocuments)
	filter := bson.M{"_id": documentID, "account_id": accountID, "signed_at": nil}
	res, err := col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"payload": doc, "signed_at": signedAt}})
	if err != nil {
		return classify("sign", domain.CollectionDocuments, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := col.CountDocuments(ctx, bson.M{"_id": documentID, "account_id": accountID})
	if err != nil {
		return classify("sign", domain.CollectionDocuments, err)
	}
	if n > 0 {
		return domain.ErrAlreadySigned
	}
	return domain.NewStoreError(domain.KindNotFound, "sign", domain.CollectionDocuments, fmt.Errorf("id %s", documentID))
}

// SetClientPortalKey stores a key id and hash, or removes both when keyID is empty.
func (s *Store) SetClientPortalKey(ctx context.Context, accountID, clientID, keyID, hash string) error {
	return updateScoped(ctx, s, domain.CollectionClients, "set_portal_key", accountID, clientID,
		keyUpdate("portal_key_id", "portal_key_hash", keyID, hash))
}

func (s *Store) SetDocumentToken(ctx context.Context, accountID, documentID, tokenID, hash string) error {
	return updateScoped(ctx, s, domain.CollectionDocuments, "set_token", accountID, documentID,
		keyUpdate("public_token_id", "public_token_hash", tokenID, hash))
}

// keyUpdate unsets the fields on revoke so the sparse unique index ignores them.
func keyUpdate(idField, hashField, keyID, hash string) bson.M {
	if keyID == "" {
		return bson.M{"$unset": bson.M{idField: "", hashField: ""}}
	}
	return bson.M{"$set": bson.M{idField: keyID, hashField: hash}}
}
