// Package storage provides the persistence interfaces for the match engine.
//
// The layer is split into two small interfaces, FeatureStore for item
// metadata plus opaque feature blobs and ClaimStore for the claim ledger,
// so backends (SQLite, PostgreSQL) can implement them independently.
package storage

import (
	"context"

	"github.com/retreivo/matchengine/pkg/types"
)

// FeatureStore persists item metadata together with an opaque serialized
// feature vector for later candidate retrieval.
type FeatureStore interface {
	// Upsert inserts or replaces a record keyed on item_id alone.
	// A second store of the same id overwrites the row, including its type.
	Upsert(ctx context.Context, record *FeatureRecord) error

	// ListByType returns all records of the given type, newest first.
	ListByType(ctx context.Context, itemType types.ItemType) ([]FeatureRecord, error)

	// CountByType returns the number of stored records of the given type.
	CountByType(ctx context.Context, itemType types.ItemType) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// VectorSearcher is an optional FeatureStore capability: backends that index
// feature vectors natively (pgvector) rank candidates in the database instead
// of loading every blob into memory. The engine falls back to in-process
// cosine ranking when the store does not implement it.
type VectorSearcher interface {
	// NearestByVector returns up to limit records of the given type ordered
	// by cosine distance to the query vector, nearest first.
	NearestByVector(ctx context.Context, itemType types.ItemType, query []float32, limit int) ([]FeatureRecord, error)
}

// ClaimStore is the persistent claim ledger. Implementations must enforce
// the UNIQUE(lost_item_id, found_item_id, claimer_user_id) constraint
// atomically; the Create pre-check only narrows the race window.
type ClaimStore interface {
	// GetPairStatus reports pending claims for an item pair, earliest first.
	GetPairStatus(ctx context.Context, lostItemID, foundItemID int64) (*PairStatus, error)

	// Create opens a new pending claim. Returns ErrConflict when a pending
	// claim already exists for the pair, or when the uniqueness constraint
	// rejects the insert.
	Create(ctx context.Context, claim *Claim) (*Claim, error)

	// UpdateStatus moves a claim to the given status unconditionally and
	// refreshes updated_at. Returns ErrNotFound for an unknown claim id.
	UpdateStatus(ctx context.Context, claimID int64, status ClaimStatus) (*Claim, error)

	// Get retrieves a claim by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, claimID int64) (*Claim, error)

	// Close releases any resources held by the store.
	Close() error
}
