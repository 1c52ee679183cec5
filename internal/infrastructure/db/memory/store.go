// Package memory provides in-process implementations of the remote store, the
// portal repository and the local cache. It backs the "memory" drivers of the
// agent and the service tests.
package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

var errUnreachable = errors.New("memory store unreachable")

// Store keeps every collection in maps guarded by a single mutex.
type Store struct {
	mu        sync.RWMutex
	reachable bool
	failures  map[string]*injected
	calls     int

	profiles   map[string]domain.Profile
	jobs       map[string]domain.Job
	documents  map[string]domain.Document
	clients    map[string]domain.Client
	inventory  map[string]domain.InventoryItem
	history    map[string]domain.InventoryHistoryEntry
	savedItems map[string]domain.SavedItem

	// historyOwner maps history row ids to the account that wrote them.
	historyOwner map[string]string
}

var (
	_ ports.RemoteStore      = (*Store)(nil)
	_ ports.PortalRepository = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		reachable:  true,
		failures:   map[string]*injected{},
		profiles:   map[string]domain.Profile{},
		jobs:       map[string]domain.Job{},
		documents:  map[string]domain.Document{},
		clients:    map[string]domain.Client{},
		inventory:  map[string]domain.InventoryItem{},
		history:    map[string]domain.InventoryHistoryEntry{},
		savedItems: map[string]domain.SavedItem{},

		historyOwner: map[string]string{},
	}
}

// SetReachable simulates losing or regaining the network.
func (s *Store) SetReachable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reachable = ok
}

type injected struct {
	err       error
	remaining int // < 0 means unlimited
}

// Fail makes every call of op on collection return err until ResetFailures.
// An empty op matches all operations on the collection.
func (s *Store) Fail(op string, c domain.Collection, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+"/"+string(c)] = &injected{err: err, remaining: -1}
}

// FailOnce makes only the next call of op on collection return err.
func (s *Store) FailOnce(op string, c domain.Collection, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+"/"+string(c)] = &injected{err: err, remaining: 1}
}

// ResetFailures clears injected failures.
func (s *Store) ResetFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]*injected{}
}

// Calls returns the number of data operations served, successful or not.
func (s *Store) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.reachable {
		return domain.NewStoreError(domain.KindTransient, "ping", "", errUnreachable)
	}
	return nil
}

// begin counts a call and returns the injected or connectivity failure for
// it. Callers must hold s.mu for writing.
func (s *Store) begin(op string, c domain.Collection) error {
	s.calls++
	if !s.reachable {
		return domain.NewStoreError(domain.KindTransient, op, c, errUnreachable)
	}
	for _, key := range []string{op + "/" + string(c), "/" + string(c)} {
		f, ok := s.failures[key]
		if !ok {
			continue
		}
		if f.remaining > 0 {
			f.remaining--
			if f.remaining == 0 {
				delete(s.failures, key)
			}
		}
		return f.err
	}
	return nil
}

func notFound(op string, c domain.Collection, id string) error {
	return domain.NewStoreError(domain.KindNotFound, op, c, fmt.Errorf("id %s", id))
}

func duplicate(op string, c domain.Collection, id string) error {
	return domain.NewStoreError(domain.KindValidation, op, c, fmt.Errorf("duplicate id %s", id))
}

func (s *Store) Profiles() ports.ProfileRepository                  { return profileRepo{s} }
func (s *Store) Jobs() ports.JobRepository                          { return jobRepo{s} }
func (s *Store) Documents() ports.DocumentRepository                { return documentRepo{s} }
func (s *Store) Clients() ports.ClientRepository                    { return clientRepo{s} }
func (s *Store) Inventory() ports.InventoryRepository               { return inventoryRepo{s} }
func (s *Store) InventoryHistory() ports.InventoryHistoryRepository { return historyRepo{s} }
func (s *Store) SavedItems() ports.SavedItemRepository              { return savedItemRepo{s} }

// ── Profiles ──────────────────────────────────────────────────────────────────

type profileRepo struct{ s *Store }

func (r profileRepo) Get(_ context.Context, accountID string) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("get", domain.CollectionProfiles); err != nil {
		return nil, err
	}
	p, ok := r.s.profiles[accountID]
	if !ok {
		return nil, notFound("get", domain.CollectionProfiles, accountID)
	}
	return &p, nil
}

func (r profileRepo) Save(_ context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("save", domain.CollectionProfiles); err != nil {
		return err
	}
	saved := *p
	if existing, ok := r.s.profiles[p.ID]; ok {
		saved.SubscriptionTier = existing.SubscriptionTier
		saved.Usage = existing.Usage
	} else {
		saved.SubscriptionTier = domain.TierFree
		saved.Usage = domain.Usage{}
	}
	r.s.profiles[p.ID] = saved
	return nil
}

func (r profileRepo) SetTier(_ context.Context, accountID string, tier domain.Tier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("set_tier", domain.CollectionProfiles); err != nil {
		return err
	}
	p := r.s.profiles[accountID]
	p.ID = accountID
	p.SubscriptionTier = tier
	r.s.profiles[accountID] = p
	return nil
}

func (r profileRepo) IncrementUsage(_ context.Context, accountID string, documents, emails int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("increment_usage", domain.CollectionProfiles); err != nil {
		return err
	}
	p := r.s.profiles[accountID]
	p.ID = accountID
	p.Usage.DocumentsGenerated += documents
	p.Usage.EmailsSent += emails
	r.s.profiles[accountID] = p
	return nil
}

// ── Jobs ──────────────────────────────────────────────────────────────────────

type jobRepo struct{ s *Store }

func (r jobRepo) List(_ context.Context, accountID string) ([]domain.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("list", domain.CollectionJobs); err != nil {
		return nil, err
	}
	out := filter(r.s.jobs, func(j domain.Job) bool { return j.AccountID == accountID })
	slices.SortFunc(out, func(a, b domain.Job) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (r jobRepo) Insert(_ context.Context, j *domain.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("insert", domain.CollectionJobs); err != nil {
		return err
	}
	if _, ok := r.s.jobs[j.ID]; ok {
		return duplicate("insert", domain.CollectionJobs, j.ID)
	}
	r.s.jobs[j.ID] = *j
	return nil
}

func (r jobRepo) Update(_ context.Context, j *domain.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("update", domain.CollectionJobs); err != nil {
		return err
	}
	cur, ok := r.s.jobs[j.ID]
	if !ok || cur.AccountID != j.AccountID {
		return notFound("update", domain.CollectionJobs, j.ID)
	}
	j.CreatedAt = cur.CreatedAt
	r.s.jobs[j.ID] = *j
	return nil
}

func (r jobRepo) SetStatus(_ context.Context, accountID, id string, status domain.JobStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("set_status", domain.CollectionJobs); err != nil {
		return err
	}
	cur, ok := r.s.jobs[id]
	if !ok || cur.AccountID != accountID {
		return notFound("set_status", domain.CollectionJobs, id)
	}
	cur.Status = status
	r.s.jobs[id] = cur
	return nil
}

// Delete removes the job and its documents.
func (r jobRepo) Delete(_ context.Context, accountID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("delete", domain.CollectionJobs); err != nil {
		return err
	}
	cur, ok := r.s.jobs[id]
	if !ok || cur.AccountID != accountID {
		return notFound("delete", domain.CollectionJobs, id)
	}
	delete(r.s.jobs, id)
	for docID, d := range r.s.documents {
		if d.JobID == id {
			delete(r.s.documents, docID)
		}
	}
	return nil
}

// ── Documents ─────────────────────────────────────────────────────────────────

type documentRepo struct{ s *Store }

func (r documentRepo) List(_ context.Context, accountID string) ([]domain.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("list", domain.CollectionDocuments); err != nil {
		return nil, err
	}
	out := filter(r.s.documents, func(d domain.Document) bool { return d.AccountID == accountID })
	for i := range out {
		out[i].Payload = slices.Clone(out[i].Payload)
	}
	slices.SortFunc(out, func(a, b domain.Document) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (r documentRepo) Insert(_ context.Context, d *domain.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("insert", domain.CollectionDocuments); err != nil {
		return err
	}
	if _, ok := r.s.documents[d.ID]; ok {
		return duplicate("insert", domain.CollectionDocuments, d.ID)
	}
	doc := *d
	doc.Payload = slices.Clone(d.Payload)
	r.s.documents[d.ID] = doc
	return nil
}

// Update replaces type, job and payload. Signature and token fields are kept.
func (r documentRepo) Update(_ context.Context, d *domain.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("update", domain.CollectionDocuments); err != nil {
		return err
	}
	cur, ok := r.s.documents[d.ID]
	if !ok || cur.AccountID != d.AccountID {
		return notFound("update", domain.CollectionDocuments, d.ID)
	}
	cur.JobID = d.JobID
	cur.Type = d.Type
	cur.Payload = slices.Clone(d.Payload)
	r.s.documents[d.ID] = cur
	return nil
}

func (r documentRepo) Delete(_ context.Context, accountID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("delete", domain.CollectionDocuments); err != nil {
		return err
	}
	cur, ok := r.s.documents[id]
	if !ok || cur.AccountID != accountID {
		return notFound("delete", domain.CollectionDocuments, id)
	}
	delete(r.s.documents, id)
	return nil
}

// ── Clients ───────────────────────────────────────────────────────────────────

type clientRepo struct{ s *Store }

func (r clientRepo) List(_ context.Context, accountID string) ([]domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("list", domain.CollectionClients); err != nil {
		return nil, err
	}
	out := filter(r.s.clients, func(c domain.Client) bool { return c.AccountID == accountID })
	slices.SortFunc(out, func(a, b domain.Client) int { return byName(a.Name, b.Name, a.ID, b.ID) })
	return out, nil
}

func (r clientRepo) Insert(_ context.Context, c *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("insert", domain.CollectionClients); err != nil {
		return err
	}
	if _, ok := r.s.clients[c.ID]; ok {
		return duplicate("insert", domain.CollectionClients, c.ID)
	}
	r.s.clients[c.ID] = *c
	return nil
}

// Update replaces contact fields; portal key fields are kept.
func (r clientRepo) Update(_ context.Context, c *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("update", domain.CollectionClients); err != nil {
		return err
	}
	cur, ok := r.s.clients[c.ID]
	if !ok || cur.AccountID != c.AccountID {
		return notFound("update", domain.CollectionClients, c.ID)
	}
	next := *c
	next.PortalKeyID, next.PortalKeyHash = cur.PortalKeyID, cur.PortalKeyHash
	next.CreatedAt = cur.CreatedAt
	r.s.clients[c.ID] = next
	return nil
}

func (r clientRepo) Delete(_ context.Context, accountID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("delete", domain.CollectionClients); err != nil {
		return err
	}
	cur, ok := r.s.clients[id]
	if !ok || cur.AccountID != accountID {
		return notFound("delete", domain.CollectionClients, id)
	}
	delete(r.s.clients, id)
	return nil
}

// ── Inventory ─────────────────────────────────────────────────────────────────

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) List(_ context.Context, accountID string) ([]domain.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("list", domain.CollectionInventory); err != nil {
		return nil, err
	}
	out := filter(r.s.inventory, func(i domain.InventoryItem) bool { return i.AccountID == accountID })
	slices.SortFunc(out, func(a, b domain.InventoryItem) int { return byName(a.Name, b.Name, a.ID, b.ID) })
	return out, nil
}

func (r inventoryRepo) Insert(_ context.Context, item *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("insert", domain.CollectionInventory); err != nil {
		return err
	}
	if _, ok := r.s.inventory[item.ID]; ok {
		return duplicate("insert", domain.CollectionInventory, item.ID)
	}
	r.s.inventory[item.ID] = *item
	return nil
}

func (r inventoryRepo) Update(_ context.Context, item *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("update", domain.CollectionInventory); err != nil {
		return err
	}
	cur, ok := r.s.inventory[item.ID]
	if !ok || cur.AccountID != item.AccountID {
		return notFound("update", domain.CollectionInventory, item.ID)
	}
	r.s.inventory[item.ID] = *item
	return nil
}

func (r inventoryRepo) SetQuantity(_ context.Context, accountID, id string, quantity float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("set_quantity", domain.CollectionInventory); err != nil {
		return err
	}
	cur, ok := r.s.inventory[id]
	if !ok || cur.AccountID != accountID {
		return notFound("set_quantity", domain.CollectionInventory, id)
	}
	cur.Quantity = quantity
	r.s.inventory[id] = cur
	return nil
}

func (r inventoryRepo) Delete(_ context.Context, accountID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("delete", domain.CollectionInventory); err != nil {
		return err
	}
	cur, ok := r.s.inventory[id]
	if !ok || cur.AccountID != accountID {
		return notFound("delete", domain.CollectionInventory, id)
	}
	delete(r.s.inventory, id)
	return nil
}

// ── Inventory history ─────────────────────────────────────────────────────────

type historyRepo struct{ s *Store }

// List returns rows written for the account's items, including rows of items
// deleted since.
func (r historyRepo) List(_ context.Context, accountID string) ([]domain.InventoryHistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("list", domain.CollectionInventoryHistory); err != nil {
		return nil, err
	}
	out := make([]domain.InventoryHistoryEntry, 0)
	for _, e := range r.s.history {
		if r.s.historyOwner[e.ID] == accountID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b domain.InventoryHistoryEntry) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

func (r historyRepo) Append(_ context.Context, accountID string, e *domain.InventoryHistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("append", domain.CollectionInventoryHistory); err != nil {
		return err
	}
	item, ok := r.s.inventory[e.ItemID]
	if !ok || item.AccountID != accountID {
		return domain.NewStoreError(domain.KindAuthorization, "append", domain.CollectionInventoryHistory,
			fmt.Errorf("item %s not owned by account", e.ItemID))
	}
	if _, ok := r.s.history[e.ID]; ok {
		return duplicate("append", domain.CollectionInventoryHistory, e.ID)
	}
	r.s.history[e.ID] = *e
	r.s.historyOwner[e.ID] = accountID
	return nil
}

// ── Saved items ───────────────────────────────────────────────────────────────

type savedItemRepo struct{ s *Store }

func (r savedItemRepo) List(_ context.Context, accountID string) ([]domain.SavedItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("list", domain.CollectionSavedItems); err != nil {
		return nil, err
	}
	out := filter(r.s.savedItems, func(si domain.SavedItem) bool { return si.AccountID == accountID })
	for i := range out {
		out[i].Images = slices.Clone(out[i].Images)
	}
	slices.SortFunc(out, func(a, b domain.SavedItem) int { return byName(a.Name, b.Name, a.ID, b.ID) })
	return out, nil
}

func (r savedItemRepo) Insert(_ context.Context, si *domain.SavedItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("insert", domain.CollectionSavedItems); err != nil {
		return err
	}
	if _, ok := r.s.savedItems[si.ID]; ok {
		return duplicate("insert", domain.CollectionSavedItems, si.ID)
	}
	item := *si
	item.Images = slices.Clone(si.Images)
	r.s.savedItems[si.ID] = item
	return nil
}

func (r savedItemRepo) Update(_ context.Context, si *domain.SavedItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("update", domain.CollectionSavedItems); err != nil {
		return err
	}
	cur, ok := r.s.savedItems[si.ID]
	if !ok || cur.AccountID != si.AccountID {
		return notFound("update", domain.CollectionSavedItems, si.ID)
	}
	item := *si
	item.Images = slices.Clone(si.Images)
	item.CreatedAt = cur.CreatedAt
	r.s.savedItems[si.ID] = item
	return nil
}

func (r savedItemRepo) Delete(_ context.Context, accountID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin("delete", domain.CollectionSavedItems); err != nil {
		return err
	}
	cur, ok := r.s.savedItems[id]
	if !ok || cur.AccountID != accountID {
		return notFound("delete", domain.CollectionSavedItems, id)
	}
	delete(r.s.savedItems, id)
	return nil
}

func filter[T any](m map[string]T, keep func(T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func byName(a, b, idA, idB string) int {
	return cmp.Or(cmp.Compare(a, b), cmp.Compare(idA, idB))
}

func newestFirst(a, b time.Time, idA, idB string) int {
	return cmp.Or(b.Compare(a), cmp.Compare(idA, idB))
}
