package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/sukritx/roommatebase/internal/domain"
)

// ErrUnsupportedImage is returned for uploads that are not an accepted image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload is a listing photo received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// AssetStore turns uploaded images into durable URL and key pairs.
type AssetStore interface {
	Upload(ctx context.Context, ownerID string, upload Upload) (domain.Image, error)
	Delete(ctx context.Context, keys []string) error
}

// DetectImageType sniffs the payload and returns its MIME type and file extension.
func DetectImageType(data []byte) (string, string, error) {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return contentType, ext, nil
}

// ObjectKey places every image under its owner's prefix.
func ObjectKey(ownerID, ext string) string {
	return path.Join(ownerID, "rooms", uuid.NewString()+ext)
}
