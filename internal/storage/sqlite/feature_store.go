package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/retreivo/matchengine/internal/storage"
	"github.com/retreivo/matchengine/pkg/types"
)

// Upsert inserts or replaces a feature record keyed on item_id alone.
// Storing the same item_id twice overwrites the row, even when the item type
// changed. Callers own the id-space discipline.
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

	query := `
		INSERT INTO item_features (
			item_id, item_type, item_name, category, description, location, date,
			image_features, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			item_type = excluded.item_type,
			item_name = excluded.item_name,
			category = excluded.category,
			description = excluded.description,
			location = excluded.location,
			date = excluded.date,
			image_features = excluded.image_features,
			created_at = excluded.created_at
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ItemID,
		record.ItemType,
		record.Name,
		record.Category,
		record.Description,
		record.Location,
		record.Date,
		record.ImageFeatures,
		record.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("sqlite: failed to upsert feature record: %w", err)
	}

	return nil
}

// ListByType returns all feature records of the given type, newest first.
func (s *Store) ListByType(ctx context.Context, itemType types.ItemType) ([]storage.FeatureRecord, error) {
	if !itemType.IsValid() {
		return nil, fmt.Errorf("%w: item type must be lost or found", storage.ErrInvalidInput)
	}

	query := `
		SELECT item_id, item_type, item_name, category, description, location, date,
		       image_features, created_at
		FROM item_features
		WHERE item_type = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, itemType)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list feature records: %w", err)
	}
	defer rows.Close()

	var records []storage.FeatureRecord
	for rows.Next() {
		record, err := scanFeatureRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating feature records: %w", err)
	}

	return records, nil
}

// CountByType returns the number of stored records of the given type.
func (s *Store) CountByType(ctx context.Context, itemType types.ItemType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM item_features WHERE item_type = ?", itemType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to count feature records: %w", err)
	}
	return count, nil
}

// scanFeatureRecord scans one item_features row.
func scanFeatureRecord(rows *sql.Rows) (*storage.FeatureRecord, error) {
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
		return nil, fmt.Errorf("sqlite: failed to scan feature record: %w", err)
	}

	record.Name = name.String
	record.Category = category.String
	record.Description = description.String
	record.Location = location.String
	record.Date = date.String
	record.ImageFeatures = features

	return &record, nil
}
