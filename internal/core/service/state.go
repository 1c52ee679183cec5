package service

import (
	"slices"
	"sync"
	"time"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// Status is the sync state of the session.
type Status string

const (
	StatusOnlineSynced  Status = "online_synced"
	StatusOfflineCached Status = "offline_cached"
	StatusSyncing       Status = "syncing"
)

// Snapshot is a point-in-time copy of the published state.
type Snapshot struct {
	Status       Status
	Online       bool
	Halted       bool
	FatalReason  string
	LastError    string
	LastSyncedAt time.Time
	Version      uint64

	Profile          *domain.Profile
	Jobs             []domain.Job
	Documents        []domain.Document
	Clients          []domain.Client
	Inventory        []domain.InventoryItem
	InventoryHistory []domain.InventoryHistoryEntry
	SavedItems       []domain.SavedItem
}

// StateStore holds the in-memory view of every collection. Readers get
// copies; the SyncController is the only writer.
type StateStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

// Snapshot returns a copy of the whole state.
func (s *StateStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Profile = cloneProfile(s.snap.Profile)
	out.Jobs = slices.Clone(s.snap.Jobs)
	out.Documents = slices.Clone(s.snap.Documents)
	out.Clients = slices.Clone(s.snap.Clients)
	out.Inventory = slices.Clone(s.snap.Inventory)
	out.InventoryHistory = slices.Clone(s.snap.InventoryHistory)
	out.SavedItems = slices.Clone(s.snap.SavedItems)
	return out
}

func (s *StateStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Status
}

func (s *StateStore) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Online
}

// Halted reports whether the session stopped on a fatal condition and why.
func (s *StateStore) Halted() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Halted, s.snap.FatalReason
}

func (s *StateStore) Profile() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProfile(s.snap.Profile)
}

func (s *StateStore) Jobs() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Jobs)
}

func (s *StateStore) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Documents)
}

func (s *StateStore) Clients() []domain.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Clients)
}

func (s *StateStore) Inventory() []domain.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Inventory)
}

func (s *StateStore) InventoryHistory() []domain.InventoryHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.InventoryHistory)
}

func (s *StateStore) SavedItems() []domain.SavedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.SavedItems)
}

// update applies fn under the write lock and bumps the version.
func (s *StateStore) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	s.snap.Version++
}

func cloneProfile(p *domain.Profile) *domain.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.EmailIntegration != nil {
		ei := *p.EmailIntegration
		cp.EmailIntegration = &ei
	}
	return &cp
}
