package storage

import (
	"bytes"
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"

	"github.com/sukritx/roommatebase/internal/config"
	"github.com/sukritx/roommatebase/internal/domain"
)

// SupabaseStore keeps listing images in a Supabase Storage bucket.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
	logger *zap.Logger
}

// NewSupabaseStore builds a store bound to the configured bucket.
func NewSupabaseStore(cfg config.StorageConfig, logger *zap.Logger) *SupabaseStore {
	return &SupabaseStore{
		client: storage_go.NewClient(cfg.SupabaseURL+"/storage/v1", cfg.SupabaseKey, nil),
		bucket: cfg.Bucket,
		logger: logger,
	}
}

func (s *SupabaseStore) Upload(_ context.Context, ownerID string, upload Upload) (domain.Image, error) {
	contentType, ext, err := DetectImageType(upload.Data)
	if err != nil {
		return domain.Image{}, err
	}

	key := ObjectKey(ownerID, ext)
	upsert := false
	options := storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(upload.Data), options); err != nil {
		return domain.Image{}, fmt.Errorf("upload %s: %w", key, err)
	}

	publicURL := s.client.GetPublicUrl(s.bucket, key)
	s.logger.Debug("image uploaded", zap.String("key", key), zap.Int("bytes", len(upload.Data)))
	return domain.Image{URL: publicURL.SignedURL, Key: key}, nil
}

func (s *SupabaseStore) Delete(_ context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.client.RemoveFile(s.bucket, keys); err != nil {
		return fmt.Errorf("remove %d objects: %w", len(keys), err)
	}
	return nil
}
