package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/retreivo/matchengine/internal/storage"
)

// GetPairStatus reports whether a lost/found pair already has pending claims.
// The earliest pending claimer wins the reported slot.
func (s *Store) GetPairStatus(ctx context.Context, lostItemID, foundItemID int64) (*storage.PairStatus, error) {
	status := &storage.PairStatus{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT claimer_user_id, created_at
		FROM item_claims
		WHERE lost_item_id = $1 AND found_item_id = $2 AND claim_status = 'pending'
		ORDER BY created_at ASC
	`, lostItemID, foundItemID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query pair status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var claimerID int64
		var createdAt time.Time
		if err := rows.Scan(&claimerID, &createdAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan pair status: %w", err)
		}
		if status.TotalPendingClaims == 0 {
			status.Claimed = true
			status.ClaimerUserID = claimerID
			status.ClaimDate = createdAt
		}
		status.TotalPendingClaims++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: error iterating pair status: %w", err)
	}

	return status, nil
}

// Create records a new pending claim on a lost/found pair.
// Returns ErrConflict when the pair already has a pending claim.
func (s *Store) Create(ctx context.Context, claim *storage.Claim) (*storage.Claim, error) {
	if claim == nil {
		return nil, storage.ErrInvalidInput
	}

	if claim.LostItemID == 0 || claim.FoundItemID == 0 || claim.ClaimerUserID == 0 {
		return nil, fmt.Errorf("%w: lost item, found item and claimer are required", storage.ErrInvalidInput)
	}

	pair, err := s.GetPairStatus(ctx, claim.LostItemID, claim.FoundItemID)
	if err != nil {
		return nil, err
	}
	if pair.Claimed {
		return nil, fmt.Errorf("%w: pair already has a pending claim", storage.ErrConflict)
	}

	var id int64
	var createdAt, updatedAt time.Time
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO item_claims
			(lost_item_id, found_item_id, claimer_user_id, claim_status, match_score, fraud_score)
		VALUES ($1, $2, $3, 'pending', $4, $5)
		RETURNING id, created_at, updated_at
	`,
		claim.LostItemID, claim.FoundItemID, claim.ClaimerUserID,
		nullableFloat(claim.MatchScore), nullableFloat(claim.FraudScore),
	).Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: claim already exists for this pair", storage.ErrConflict)
		}
		return nil, fmt.Errorf("postgres: failed to create claim: %w", err)
	}

	created := *claim
	created.ID = id
	created.Status = storage.ClaimPending
	created.CreatedAt = createdAt
	created.UpdatedAt = updatedAt
	return &created, nil
}

// UpdateStatus sets the status of an existing claim and returns the updated
// record. Returns ErrNotFound when no claim has the given ID.
func (s *Store) UpdateStatus(ctx context.Context, claimID int64, status storage.ClaimStatus) (*storage.Claim, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: status must be pending, approved or rejected", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE item_claims
		SET claim_status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, claimID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to update claim status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to check claim update: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: claim %d", storage.ErrNotFound, claimID)
	}

	return s.Get(ctx, claimID)
}

// Get returns a claim by ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, claimID int64) (*storage.Claim, error) {
	claim := &storage.Claim{}
	var matchScore, fraudScore sql.NullFloat64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, lost_item_id, found_item_id, claimer_user_id, claim_status,
		       match_score, fraud_score, created_at, updated_at
		FROM item_claims
		WHERE id = $1
	`, claimID).Scan(
		&claim.ID, &claim.LostItemID, &claim.FoundItemID, &claim.ClaimerUserID,
		&claim.Status, &matchScore, &fraudScore, &claim.CreatedAt, &claim.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: claim %d", storage.ErrNotFound, claimID)
		}
		return nil, fmt.Errorf("postgres: failed to get claim: %w", err)
	}

	if matchScore.Valid {
		claim.MatchScore = &matchScore.Float64
	}
	if fraudScore.Valid {
		claim.FraudScore = &fraudScore.Float64
	}

	return claim, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
