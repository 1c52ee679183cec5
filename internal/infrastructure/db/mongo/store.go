package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

// Store implements ports.RemoteStore and ports.PortalRepository on one
// database, one collection per domain.Collection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	schemaMu        sync.Mutex
	known           map[string]bool
	knownAt         time.Time
	now             func() time.Time
	listCollections func(ctx context.Context) ([]string, error)
}

// schemaRecheck bounds how long a collection listing is trusted. A
// collection dropped mid-session is reported within this window.
const schemaRecheck = time.Minute

var (
	_ ports.RemoteStore      = (*Store)(nil)
	_ ports.PortalRepository = (*Store)(nil)
)

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	s := &Store{client: client, db: db, known: map[string]bool{}, now: time.Now}
	s.listCollections = func(ctx context.Context) ([]string, error) {
		return s.db.ListCollectionNames(ctx, bson.D{})
	}
	return s
}

func (s *Store) col(c domain.Collection) *mongo.Collection {
	return s.db.Collection(string(c))
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return classify("ping", "", s.client.Ping(ctx, nil))
}

func (s *Store) Profiles() ports.ProfileRepository                  { return profileRepo{s} }
func (s *Store) Jobs() ports.JobRepository                          { return jobRepo{s} }
func (s *Store) Documents() ports.DocumentRepository                { return documentRepo{s} }
func (s *Store) Clients() ports.ClientRepository                    { return clientRepo{s} }
func (s *Store) Inventory() ports.InventoryRepository               { return inventoryRepo{s} }
func (s *Store) InventoryHistory() ports.InventoryHistoryRepository { return historyRepo{s} }
func (s *Store) SavedItems() ports.SavedItemRepository              { return savedItemRepo{s} }

// requireCollection reports a schema mismatch when c does not exist. The
// collection listing is reused for schemaRecheck, then fetched again.
func (s *Store) requireCollection(ctx context.Context, c domain.Collection) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.known[string(c)] && s.now().Sub(s.knownAt) < schemaRecheck {
		return nil
	}
	names, err := s.listCollections(ctx)
	if err != nil {
		return classify("list_collections", c, err)
	}
	s.known = make(map[string]bool, len(names))
	for _, n := range names {
		s.known[n] = true
	}
	s.knownAt = s.now()
	if !s.known[string(c)] {
		return domain.NewStoreError(domain.KindSchemaMismatch, "list", c, fmt.Errorf("collection %q does not exist", c))
	}
	return nil
}

// CheckSchema verifies every collection exists.
func (s *Store) CheckSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	for _, c := range domain.Collections {
		if err := s.requireCollection(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// EnsureSchema creates missing collections and their indexes. It is the
// remediation for a schema mismatch.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return classify("list_collections", "", err)
	}
	existing := map[string]bool{}
	for _, n := range names {
		existing[n] = true
	}
	for _, c := range domain.Collections {
		if existing[string(c)] {
			continue
		}
		if err := s.db.CreateCollection(ctx, string(c)); err != nil {
			return classify("create_collection", c, err)
		}
	}

	s.schemaMu.Lock()
	s.known = map[string]bool{}
	s.knownAt = time.Time{}
	s.schemaMu.Unlock()
	return s.EnsureIndexes(ctx)
}

// EnsureIndexes creates the account-scoped query indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	byAccountNewest := mongo.IndexModel{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}}
	byAccountName := mongo.IndexModel{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "name", Value: 1}}}
	sparseUnique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		}
	}

	indexes := map[domain.Collection][]mongo.IndexModel{
		domain.CollectionJobs: {byAccountNewest, {Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "client_id", Value: 1}}}},
		domain.CollectionDocuments: {
			byAccountNewest,
			{Keys: bson.D{{Key: "job_id", Value: 1}}},
			sparseUnique("public_token_id"),
		},
		domain.CollectionClients:          {byAccountName, sparseUnique("portal_key_id")},
		domain.CollectionInventory:        {byAccountName},
		domain.CollectionInventoryHistory: {byAccountNewest, {Keys: bson.D{{Key: "item_id", Value: 1}}}},
		domain.CollectionSavedItems:       {byAccountName},
	}
	for c, models := range indexes {
		if _, err := s.col(c).Indexes().CreateMany(ctx, models); err != nil {
			return classify("create_indexes", c, err)
		}
	}
	return nil
}

// findAll decodes every document matching filter in the given order.
func findAll[T any](ctx context.Context, s *Store, c domain.Collection, filter any, sort bson.D) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := s.requireCollection(ctx, c); err != nil {
		return nil, err
	}
	cur, err := s.col(c).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, classify("list", c, err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, classify("list", c, err)
	}
	return out, nil
}

func insertOne(ctx context.Context, s *Store, c domain.Collection, doc any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := s.col(c).InsertOne(ctx, doc)
	return classify("insert", c, err)
}

// updateScoped applies update to the account's document id and reports
// not-found when nothing matched.
func updateScoped(ctx context.Context, s *Store, c domain.Collection, op, accountID, id string, update any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	res, err := s.col(c).UpdateOne(ctx, bson.M{"_id": id, "account_id": accountID}, update)
	if err != nil {
		return classify(op, c, err)
	}
	if res.MatchedCount == 0 {
		return domain.NewStoreError(domain.KindNotFound, op, c, fmt.Errorf("id %s", id))
	}
	return nil
}

func deleteScoped(ctx context.Context, s *Store, c domain.Collection, accountID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	res, err := s.col(c).DeleteOne(ctx, bson.M{"_id": id, "account_id": accountID})
	if err != nil {
		return classify("delete", c, err)
	}
	if res.DeletedCount == 0 {
		return domain.NewStoreError(domain.KindNotFound, "delete", c, fmt.Errorf("id %s", id))
	}
	return nil
}

var (
	newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	byName      = bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
)
