package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/retreivo/matchengine/internal/storage"
	"github.com/retreivo/matchengine/pkg/types"
)

// Upsert inserts or replaces a feature record keyed on item_id alone.
// When pgvector is available and the engine supplied a decoded vector, the
// vector is mirrored into the indexed feature_vec column; the opaque BYTEA
// blob stays the source of truth either way.
func (s *Store) Upsert(ctx context.Context, record *storage.FeatureRecord) error {
	if record == nil {
		return storage.ErrInvalidInput
	}

	if record.ItemID == 0 {
		return fmt.Errorf("%w: item ID is required", storage.ErrInvalidInput)
	}

	if !record.ItemType.IsValid() {
		return fmt.Errorf("%w: item type must be lost or found", storage.ErrInvalidInput)
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if s.pgvectorAvailable && len(record.Vector) > 0 {
		vec := pgvector.NewVector(record.Vector)
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO item_features
				(item_id, item_type, item_name, category, description, location, date,
				 image_features, feature_vec, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT(item_id) DO UPDATE SET
				item_type = excluded.item_type,
				item_name = excluded.item_name,
				category = excluded.category,
				description = excluded.description,
				location = excluded.location,
				date = excluded.date,
				image_features = excluded.image_features,
				feature_vec = excluded.feature_vec,
				created_at = excluded.created_at
		`,
			record.ItemID, record.ItemType, record.Name, record.Category,
			record.Description, record.Location, record.Date,
			record.ImageFeatures, vec, record.CreatedAt,
		)
		if err == nil {
			return nil
		}
		// Pgvector store failed. Fall back to the BYTEA-only path and log.
		log.Printf("postgres: failed to store feature_vec (falling back to BYTEA only): %v", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_features
			(item_id, item_type, item_name, category, description, location, date,
			 image_features, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(item_id) DO UPDATE SET
			item_type = excluded.item_type,
			item_name = excluded.item_name,
			category = excluded.category,
			description = excluded.description,
			location = excluded.location,
			date = excluded.date,
			image_features = excluded.image_features,
			created_at = excluded.created_at
	`,
		record.ItemID, record.ItemType, record.Name, record.Category,
		record.Description, record.Location, record.Date,
		record.ImageFeatures, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert feature record: %w", err)
	}

	return nil
}

// ListByType returns all feature records of the given type, newest first.
func (s *Store) ListByType(ctx context.Context, itemType types.ItemType) ([]storage.FeatureRecord, error) {
	if !itemType.IsValid() {
		return nil, fmt.Errorf("%w: item type must be lost or found", storage.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, item_type, item_name, category, description, location, date,
		       image_features, created_at
		FROM item_features
		WHERE item_type = $1
		ORDER BY created_at DESC
	`, itemType)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list feature records: %w", err)
	}
	defer rows.Close()

	return scanFeatureRecords(rows)
}

// CountByType returns the number of stored records of the given type.
func (s *Store) CountByType(ctx context.Context, itemType types.ItemType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM item_features WHERE item_type = $1", itemType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to count feature records: %w", err)
	}
	return count, nil
}

// NearestByVector returns up to limit records of the given type ordered by
// cosine distance to the query vector. Falls back to recency order when
// pgvector is unavailable, mirroring the degrade-never-fail policy.
func (s *Store) NearestByVector(ctx context.Context, itemType types.ItemType, query []float32, limit int) ([]storage.FeatureRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	if !s.pgvectorAvailable || len(query) == 0 {
		records, err := s.ListByType(ctx, itemType)
		if err != nil {
			return nil, err
		}
		if len(records) > limit {
			records = records[:limit]
		}
		return records, nil
	}

	vec := pgvector.NewVector(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, item_type, item_name, category, description, location, date,
		       image_features, created_at
		FROM item_features
		WHERE item_type = $1 AND feature_vec IS NOT NULL
		ORDER BY feature_vec <=> $2::vector
		LIMIT $3
	`, itemType, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: vector search failed: %w", err)
	}
	defer rows.Close()

	return scanFeatureRecords(rows)
}

// scanFeatureRecords scans item_features rows into records.
func scanFeatureRecords(rows *sql.Rows) ([]storage.FeatureRecord, error) {
	var records []storage.FeatureRecord

	for rows.Next() {
		var record storage.FeatureRecord
		var name, category, description, location, date sql.NullString
		var features []byte

		err := rows.Scan(
			&record.ItemID,
			&record.ItemType,
			&name,
			&category,
			&description,
			&location,
			&date,
			&features,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan feature record: %w", err)
		}

		record.Name = name.String
		record.Category = category.String
		record.Description = description.String
		record.Location = location.String
		record.Date = date.String
		record.ImageFeatures = features

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: error iterating feature records: %w", err)
	}

	return records, nil
}
