package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"potterylog/internal/domain"
	"potterylog/internal/photostore"
	"potterylog/internal/store"
	"potterylog/internal/vision"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrPhotoNotFound = errors.New("photo not found")
)

// itemRepository is the subset of store.ItemStore that CatalogService requires.
type itemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Item, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.Item, error)
	Update(ctx context.Context, userID, id string, item *domain.Item) error
	Delete(ctx context.Context, userID, id string) error
}

// photoRepository is the subset of store.PhotoStore that CatalogService requires.
type photoRepository interface {
	Create(ctx context.Context, photo *domain.Photo) (*domain.Photo, error)
	GetByID(ctx context.Context, itemID, id string) (*domain.Photo, error)
	ListByItemID(ctx context.Context, itemID string) ([]*domain.Photo, error)
	Update(ctx context.Context, itemID, id string, stage, imageNote *string) error
	Delete(ctx context.Context, itemID, id string) error
	HasPrimary(ctx context.Context, itemID string) (bool, error)
	SetPrimary(ctx context.Context, itemID, id string) error
}

type CatalogService struct {
	itemStore  itemRepository
	photoStore photoRepository
	photoStg   photostore.PhotoStore
	captioner  vision.Captioner
	logger     *slog.Logger
}

func NewCatalogService(
	itemStore itemRepository,
	photoStore photoRepository,
	photoStg photostore.PhotoStore,
	captioner vision.Captioner,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		itemStore:  itemStore,
		photoStore: photoStore,
		photoStg:   photoStg,
		captioner:  captioner,
		logger:     logger,
	}
}

func (s *CatalogService) CreateItem(ctx context.Context, userID string, item *domain.Item) (*domain.Item, error) {
	item.UserID = userID
	if item.CurrentStatus == "" {
		item.CurrentStatus = domain.StageGreenware
	}

	created, err := s.itemStore.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	s.logger.Info("item created", "item_id", created.ID, "user_id", userID)
	return created, nil
}

// ListItems returns the caller's items with their photos attached.
func (s *CatalogService) ListItems(ctx context.Context, userID string) ([]*domain.Item, error) {
	items, err := s.itemStore.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		item.Photos, err = s.photoStore.ListByItemID(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list photos for item %s: %w", item.ID, err)
		}
	}
	return items, nil
}

func (s *CatalogService) GetItem(ctx context.Context, userID, itemID string) (*domain.Item, error) {
	item, err := s.itemStore.GetByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	item.Photos, err = s.photoStore.ListByItemID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return item, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, userID, itemID string, item *domain.Item) (*domain.Item, error) {
	if err := s.itemStore.Update(ctx, userID, itemID, item); err != nil {
		if isStoreNotFound(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return s.GetItem(ctx, userID, itemID)
}

// DeleteItem removes an item's photo binaries from storage, then the item
// itself (photo rows cascade). Objects already missing from storage do not
// fail the delete.
func (s *CatalogService) DeleteItem(ctx context.Context, userID, itemID string) error {
	item, err := s.GetItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	for _, photo := range item.Photos {
		if err := s.photoStg.Delete(ctx, photo.StorageKey); err != nil {
			if errors.Is(err, photostore.ErrNotFound) {
				s.logger.Warn("photo object already gone", "storage_key", photo.StorageKey)
				continue
			}
			return fmt.Errorf("failed to delete photo object %s: %w", photo.StorageKey, err)
		}
	}

	if err := s.itemStore.Delete(ctx, userID, itemID); err != nil {
		if isStoreNotFound(err) {
			return ErrItemNotFound
		}
		return err
	}

	s.logger.Info("item deleted", "item_id", itemID, "user_id", userID, "photos_removed", len(item.Photos))
	return nil
}

// PhotoUpload carries an uploaded photo through the service layer.
type PhotoUpload struct {
	Data     []byte
	MimeType string
	FileName string
	Stage    string
	Note     string
}

// UploadPhoto stores the binary, then the metadata row. The stored object is
// rolled back when the metadata write fails, so storage never holds orphans
// the catalog does not know about. The first photo of an item becomes its
// primary display photo.
func (s *CatalogService) UploadPhoto(ctx context.Context, userID, itemID string, upload PhotoUpload) (*domain.Photo, error) {
	item, err := s.itemStore.GetByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	photoID := uuid.NewString()
	storageKey := photostore.ObjectKey(itemID, photoID, upload.MimeType)

	note := upload.Note
	if note == "" && s.captioner != nil {
		if caption, err := s.captioner.Caption(ctx, bytes.NewReader(upload.Data), upload.MimeType); err != nil {
			s.logger.Warn("photo captioning failed", "item_id", itemID, "error", err)
		} else {
			note = caption.Note
		}
	}

	if err := s.photoStg.Save(ctx, storageKey, upload.MimeType, bytes.NewReader(upload.Data)); err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "item_id", itemID, "storage_key", storageKey)

	hasPrimary, err := s.photoStore.HasPrimary(ctx, itemID)
	if err != nil {
		_ = s.photoStg.Delete(ctx, storageKey)
		return nil, err
	}

	photo, err := s.photoStore.Create(ctx, &domain.Photo{
		ID:         photoID,
		ItemID:     itemID,
		StorageKey: storageKey,
		Stage:      upload.Stage,
		ImageNote:  note,
		FileName:   upload.FileName,
		MimeType:   upload.MimeType,
		IsPrimary:  !hasPrimary,
	})
	if err != nil {
		_ = s.photoStg.Delete(ctx, storageKey)
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	s.logger.Info("photo uploaded", "item_id", itemID, "photo_id", photoID, "bytes", len(upload.Data))
	return photo, nil
}

// UpdatePhoto changes stage and/or note of a photo. Nil fields stay untouched.
func (s *CatalogService) UpdatePhoto(ctx context.Context, userID, itemID, photoID string, stage, note *string) (*domain.Photo, error) {
	if err := s.requireItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	if err := s.photoStore.Update(ctx, itemID, photoID, stage, note); err != nil {
		if isStoreNotFound(err) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}

	photo, err := s.photoStore.GetByID(ctx, itemID, photoID)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, ErrPhotoNotFound
	}
	return photo, nil
}

// DeletePhoto removes the binary, then the metadata row. A binary already gone
// from storage is treated as deleted.
func (s *CatalogService) DeletePhoto(ctx context.Context, userID, itemID, photoID string) error {
	if err := s.requireItem(ctx, userID, itemID); err != nil {
		return err
	}

	photo, err := s.photoStore.GetByID(ctx, itemID, photoID)
	if err != nil {
		return err
	}
	if photo == nil {
		return ErrPhotoNotFound
	}

	if err := s.photoStg.Delete(ctx, photo.StorageKey); err != nil && !errors.Is(err, photostore.ErrNotFound) {
		return fmt.Errorf("failed to delete photo object: %w", err)
	}

	if err := s.photoStore.Delete(ctx, itemID, photoID); err != nil {
		if isStoreNotFound(err) {
			return ErrPhotoNotFound
		}
		return err
	}

	s.logger.Info("photo deleted", "item_id", itemID, "photo_id", photoID)
	return nil
}

// SetPrimaryPhoto marks a photo as the item's primary display photo and
// unmarks all its siblings.
func (s *CatalogService) SetPrimaryPhoto(ctx context.Context, userID, itemID, photoID string) (*domain.Photo, error) {
	if err := s.requireItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	if err := s.photoStore.SetPrimary(ctx, itemID, photoID); err != nil {
		if isStoreNotFound(err) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}

	photo, err := s.photoStore.GetByID(ctx, itemID, photoID)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, ErrPhotoNotFound
	}
	return photo, nil
}

// GetPhotoObject streams a stored photo binary by storage key. Used by the
// signed-URL media endpoint, which authenticates via signature rather than
// ownership.
func (s *CatalogService) GetPhotoObject(ctx context.Context, storageKey string) (io.ReadCloser, string, error) {
	return s.photoStg.Get(ctx, storageKey)
}

func (s *CatalogService) requireItem(ctx context.Context, userID, itemID string) error {
	item, err := s.itemStore.GetByID(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrItemNotFound
	}
	return nil
}

func isStoreNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
