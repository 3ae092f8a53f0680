package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"potterylog/internal/domain"
)

// ErrNotFound is returned by mutating store operations when the target row
// does not exist (or is owned by another user).
var ErrNotFound = errors.New("not found")

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	id := uuid.NewString()

	measurements, err := marshalMeasurements(item.Measurements)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, user_id, name, clay_type, glaze, location, note, current_status, created_datetime, measurements)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, item.UserID, item.Name, item.ClayType, item.Glaze, item.Location, item.Note,
		item.CurrentStatus, item.CreatedDateTime.UTC(), measurements)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return s.GetByID(ctx, item.UserID, id)
}

func (s *ItemStore) GetByID(ctx context.Context, userID, id string) (*domain.Item, error) {
	item := &domain.Item{}
	var measurements sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, clay_type, glaze, location, note, current_status, created_datetime, measurements
		FROM items WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&item.ID, &item.UserID, &item.Name, &item.ClayType, &item.Glaze,
		&item.Location, &item.Note, &item.CurrentStatus, &item.CreatedDateTime, &measurements)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if item.Measurements, err = unmarshalMeasurements(measurements); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemStore) ListByUserID(ctx context.Context, userID string) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, clay_type, glaze, location, note, current_status, created_datetime, measurements
		FROM items WHERE user_id = ? ORDER BY created_datetime DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.Item
	for rows.Next() {
		item := &domain.Item{}
		var measurements sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.ClayType, &item.Glaze,
			&item.Location, &item.Note, &item.CurrentStatus, &item.CreatedDateTime, &measurements); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if item.Measurements, err = unmarshalMeasurements(measurements); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (s *ItemStore) Update(ctx context.Context, userID, id string, item *domain.Item) error {
	measurements, err := marshalMeasurements(item.Measurements)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET name = ?, clay_type = ?, glaze = ?, location = ?, note = ?,
			current_status = ?, created_datetime = ?, measurements = ?
		WHERE id = ? AND user_id = ?
	`, item.Name, item.ClayType, item.Glaze, item.Location, item.Note,
		item.CurrentStatus, item.CreatedDateTime.UTC(), measurements, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the item row. Photo rows go with it via ON DELETE CASCADE;
// callers are responsible for cleaning up stored photo binaries first.
func (s *ItemStore) Delete(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func marshalMeasurements(m *domain.Measurements) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal measurements: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalMeasurements(raw sql.NullString) (*domain.Measurements, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	m := &domain.Measurements{}
	if err := json.Unmarshal([]byte(raw.String), m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal measurements: %w", err)
	}
	return m, nil
}
