package domain

// Collection names a remote collection mirrored into the local cache.
type Collection string

const (
	CollectionProfiles         Collection = "profiles"
	CollectionJobs             Collection = "jobs"
	CollectionDocuments        Collection = "documents"
	CollectionClients          Collection = "clients"
	CollectionInventory        Collection = "inventory"
	CollectionInventoryHistory Collection = "inventory_history"
	CollectionSavedItems       Collection = "saved_items"
)

// Collections lists every tracked collection in refresh order.
var Collections = []Collection{
	CollectionProfiles,
	CollectionJobs,
	CollectionDocuments,
	CollectionClients,
	CollectionInventory,
	CollectionInventoryHistory,
	CollectionSavedItems,
}
