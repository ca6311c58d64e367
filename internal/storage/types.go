package storage

import (
	"errors"
	"time"

	"github.com/retreivo/matchengine/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates that a pending claim already exists for the
	// (lost, found, claimer) triple. Raised both by the pre-check and by the
	// unique index when two creations race.
	ErrConflict = errors.New("duplicate pending claim")
)

// FeatureRecord is the persisted projection of an item report plus an opaque
// serialized feature vector. The storage layer never interprets the blob.
//
// Records are upserted by item_id alone: storing the same id again replaces
// the row, even when the item type changed. Callers that share one id space
// across lost and found reports will silently overwrite across types.
type FeatureRecord struct {
	ItemID        int64
	ItemType      types.ItemType
	Name          string
	Category      string
	Description   string
	Location      string
	Date          string
	ImageFeatures []byte // nil when no image features were extracted
	CreatedAt     time.Time

	// Vector is the decoded feature vector, supplied by the engine alongside
	// the opaque blob so backends with native vector indexing (pgvector) can
	// mirror it into an indexed column. Backends without such indexing
	// ignore it; it is never read back from storage.
	Vector []float32
}

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

// IsValid reports whether the status is one of the known values.
func (s ClaimStatus) IsValid() bool {
	switch s {
	case ClaimPending, ClaimApproved, ClaimRejected:
		return true
	}
	return false
}

// Claim is a user's assertion that a specific found item matches their
// specific lost item. Claims start pending; any status may move to any other
// status via UpdateStatus (approval policy lives outside the core).
type Claim struct {
	ID            int64
	LostItemID    int64
	FoundItemID   int64
	ClaimerUserID int64
	Status        ClaimStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	MatchScore    *float64 // nil when scoring was skipped at creation
	FraudScore    *float64
}

// PairStatus reports the claim state of a (lost, found) item pair. Only
// pending claims count; approved and rejected claims release the pair.
type PairStatus struct {
	// Claimed is true when at least one pending claim exists for the pair.
	Claimed bool

	// ClaimerUserID is the earliest pending claimer. Zero when unclaimed.
	ClaimerUserID int64

	// ClaimDate is when the earliest pending claim was created.
	ClaimDate time.Time

	// TotalPendingClaims is the number of pending claims on the pair.
	TotalPendingClaims int
}
