package ports

import (
	"context"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// ProfileRepository persists the per-account profile.
type ProfileRepository interface {
	// Get returns a StoreError of KindNotFound when the account has no profile yet.
	Get(ctx context.Context, accountID string) (*domain.Profile, error)
	Save(ctx context.Context, p *domain.Profile) error
	SetTier(ctx context.Context, accountID string, tier domain.Tier) error
	IncrementUsage(ctx context.Context, accountID string, documents, emails int) error
}

// JobRepository persists jobs. Delete cascades to the job's documents.
type JobRepository interface {
	// List returns the account's jobs, newest first.
	List(ctx context.Context, accountID string) ([]domain.Job, error)
	Insert(ctx context.Context, j *domain.Job) error
	Update(ctx context.Context, j *domain.Job) error
	SetStatus(ctx context.Context, accountID, id string, status domain.JobStatus) error
	Delete(ctx context.Context, accountID, id string) error
}

// DocumentRepository persists generated documents.
type DocumentRepository interface {
	// List returns the account's documents, newest first.
	List(ctx context.Context, accountID string) ([]domain.Document, error)
	Insert(ctx context.Context, d *domain.Document) error
	Update(ctx context.Context, d *domain.Document) error
	Delete(ctx context.Context, accountID, id string) error
}

// ClientRepository persists clients. Update never touches portal key fields.
type ClientRepository interface {
	// List returns the account's clients ordered by name.
	List(ctx context.Context, accountID string) ([]domain.Client, error)
	Insert(ctx context.Context, c *domain.Client) error
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, accountID, id string) error
}

// InventoryRepository persists stocked items.
type InventoryRepository interface {
	// List returns the account's items ordered by name.
	List(ctx context.Context, accountID string) ([]domain.InventoryItem, error)
	Insert(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	SetQuantity(ctx context.Context, accountID, id string, quantity float64) error
	Delete(ctx context.Context, accountID, id string) error
}

// InventoryHistoryRepository is the append-only inventory log. Rows are
// scoped to an account through their item.
type InventoryHistoryRepository interface {
	// List returns history rows of the account's items, newest first.
	List(ctx context.Context, accountID string) ([]domain.InventoryHistoryEntry, error)
	Append(ctx context.Context, accountID string, e *domain.InventoryHistoryEntry) error
}

// SavedItemRepository persists price book entries.
type SavedItemRepository interface {
	// List returns the account's saved items ordered by name.
	List(ctx context.Context, accountID string) ([]domain.SavedItem, error)
	Insert(ctx context.Context, s *domain.SavedItem) error
	Update(ctx context.Context, s *domain.SavedItem) error
	Delete(ctx context.Context, accountID, id string) error
}

// RemoteStore is the hosted data store mirrored by the sync controller.
// Every method returns *domain.StoreError on failure.
type RemoteStore interface {
	Ping(ctx context.Context) error
	Profiles() ProfileRepository
	Jobs() JobRepository
	Documents() DocumentRepository
	Clients() ClientRepository
	Inventory() InventoryRepository
	InventoryHistory() InventoryHistoryRepository
	SavedItems() SavedItemRepository
}
