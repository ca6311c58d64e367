package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/retreivo/matchengine/internal/storage"
)

// GetPairStatus reports pending claims for an item pair, earliest first.
// Approved and rejected claims do not count against availability.
func (s *Store) GetPairStatus(ctx context.Context, lostItemID, foundItemID int64) (*storage.PairStatus, error) {
	query := `
		SELECT claimer_user_id, created_at
		FROM item_claims
		WHERE lost_item_id = ? AND found_item_id = ? AND claim_status = 'pending'
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, lostItemID, foundItemID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query claim status: %w", err)
	}
	defer rows.Close()

	status := &storage.PairStatus{}
	for rows.Next() {
		var claimerID int64
		var createdAt time.Time
		if err := rows.Scan(&claimerID, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan claim: %w", err)
		}
		if !status.Claimed {
			status.Claimed = true
			status.ClaimerUserID = claimerID
			status.ClaimDate = createdAt
		}
		status.TotalPendingClaims++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating claims: %w", err)
	}

	return status, nil
}

// Create opens a new pending claim. The pending-pair pre-check narrows the
// race window; the UNIQUE(lost, found, claimer) index is the source of truth
// and maps to ErrConflict when two creations race.
func (s *Store) Create(ctx context.Context, claim *storage.Claim) (*storage.Claim, error) {
	if claim == nil {
		return nil, storage.ErrInvalidInput
	}

	if claim.LostItemID == 0 || claim.FoundItemID == 0 || claim.ClaimerUserID == 0 {
		return nil, fmt.Errorf("%w: lost, found and claimer ids are required", storage.ErrInvalidInput)
	}

	status, err := s.GetPairStatus(ctx, claim.LostItemID, claim.FoundItemID)
	if err != nil {
		return nil, err
	}
	if status.Claimed {
		return nil, fmt.Errorf("%w: pair already has a pending claim", storage.ErrConflict)
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO item_claims
			(lost_item_id, found_item_id, claimer_user_id, claim_status,
			 created_at, updated_at, match_score, fraud_score)
		VALUES (?, ?, ?, 'pending', ?, ?, ?, ?)
	`,
		claim.LostItemID,
		claim.FoundItemID,
		claim.ClaimerUserID,
		now,
		now,
		nullableFloat(claim.MatchScore),
		nullableFloat(claim.FraudScore),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: claim already exists for this pair and user", storage.ErrConflict)
		}
		return nil, fmt.Errorf("sqlite: failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to read claim id: %w", err)
	}

	created := *claim
	created.ID = id
	created.Status = storage.ClaimPending
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// UpdateStatus moves a claim to the given status unconditionally and
// refreshes updated_at. Any state may move to any state; approval policy
// lives with the caller.
func (s *Store) UpdateStatus(ctx context.Context, claimID int64, status storage.ClaimStatus) (*storage.Claim, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: status must be pending, approved or rejected", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE item_claims SET claim_status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), claimID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to update claim status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, storage.ErrNotFound
	}

	return s.Get(ctx, claimID)
}

// Get retrieves a claim by id.
func (s *Store) Get(ctx context.Context, claimID int64) (*storage.Claim, error) {
	query := `
		SELECT id, lost_item_id, found_item_id, claimer_user_id, claim_status,
		       created_at, updated_at, match_score, fraud_score
		FROM item_claims
		WHERE id = ?
	`

	var claim storage.Claim
	var matchScore, fraudScore sql.NullFloat64

	err := s.db.QueryRowContext(ctx, query, claimID).Scan(
		&claim.ID,
		&claim.LostItemID,
		&claim.FoundItemID,
		&claim.ClaimerUserID,
		&claim.Status,
		&claim.CreatedAt,
		&claim.UpdatedAt,
		&matchScore,
		&fraudScore,
	)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get claim: %w", err)
	}

	if matchScore.Valid {
		claim.MatchScore = &matchScore.Float64
	}
	if fraudScore.Valid {
		claim.FraudScore = &fraudScore.Float64
	}

	return &claim, nil
}

// isUniqueViolation reports whether the error came from the UNIQUE index on
// (lost_item_id, found_item_id, claimer_user_id).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullableFloat converts a float pointer to sql.NullFloat64.
func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
