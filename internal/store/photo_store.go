package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"potterylog/internal/domain"
)

type PhotoStore struct {
	db *sql.DB
}

func NewPhotoStore(db *sql.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

func (s *PhotoStore) Create(ctx context.Context, photo *domain.Photo) (*domain.Photo, error) {
	uploadedAt := photo.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO photos (id, item_id, storage_key, stage, image_note, file_name, mime_type, is_primary, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, photo.ID, photo.ItemID, photo.StorageKey, photo.Stage, photo.ImageNote,
		photo.FileName, photo.MimeType, photo.IsPrimary, uploadedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create photo: %w", err)
	}

	return s.GetByID(ctx, photo.ItemID, photo.ID)
}

func (s *PhotoStore) GetByID(ctx context.Context, itemID, id string) (*domain.Photo, error) {
	photo := &domain.Photo{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, item_id, storage_key, stage, image_note, file_name, mime_type, is_primary, uploaded_at
		FROM photos WHERE id = ? AND item_id = ?
	`, id, itemID).Scan(&photo.ID, &photo.ItemID, &photo.StorageKey, &photo.Stage,
		&photo.ImageNote, &photo.FileName, &photo.MimeType, &photo.IsPrimary, &photo.UploadedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}

	return photo, nil
}

func (s *PhotoStore) ListByItemID(ctx context.Context, itemID string) ([]*domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, storage_key, stage, image_note, file_name, mime_type, is_primary, uploaded_at
		FROM photos WHERE item_id = ? ORDER BY uploaded_at ASC, id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var photos []*domain.Photo
	for rows.Next() {
		photo := &domain.Photo{}
		if err := rows.Scan(&photo.ID, &photo.ItemID, &photo.StorageKey, &photo.Stage,
			&photo.ImageNote, &photo.FileName, &photo.MimeType, &photo.IsPrimary, &photo.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

// Update changes stage and/or imageNote for a photo. Nil fields are left
// untouched.
func (s *PhotoStore) Update(ctx context.Context, itemID, id string, stage, imageNote *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE photos SET
			stage = COALESCE(?, stage),
			image_note = COALESCE(?, image_note)
		WHERE id = ? AND item_id = ?
	`, stage, imageNote, id, itemID)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
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

func (s *PhotoStore) Delete(ctx context.Context, itemID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM photos WHERE id = ? AND item_id = ?
	`, id, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
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

// HasPrimary reports whether the item already has a primary photo.
func (s *PhotoStore) HasPrimary(ctx context.Context, itemID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM photos WHERE item_id = ? AND is_primary = 1
	`, itemID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check primary photo: %w", err)
	}
	return count > 0, nil
}

// SetPrimary marks the given photo primary and unmarks every sibling. Only one
// photo per item may be primary, so both updates happen in one transaction.
func (s *PhotoStore) SetPrimary(ctx context.Context, itemID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("failed to roll back transaction", "error", err)
		}
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE photos SET is_primary = 1 WHERE id = ? AND item_id = ?
	`, id, itemID)
	if err != nil {
		return fmt.Errorf("failed to set primary photo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE photos SET is_primary = 0 WHERE item_id = ? AND id != ?
	`, itemID, id); err != nil {
		return fmt.Errorf("failed to unmark sibling photos: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
