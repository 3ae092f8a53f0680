package photostore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a storage key has no object behind it. Cleanup
// paths treat it as success so deletes stay idempotent.
var ErrNotFound = errors.New("photo object not found")

// PhotoStore stores photo binaries. Keys follow the items/{itemID}/{photoID}.ext
// layout so one item's photos can be enumerated and cleaned up together.
type PhotoStore interface {
	Save(ctx context.Context, storageKey, mimeType string, r io.Reader) error
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}

// ObjectKey builds the storage key for a photo binary.
func ObjectKey(itemID, photoID, mimeType string) string {
	return "items/" + itemID + "/" + photoID + extForMimeType(mimeType)
}

func extForMimeType(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
