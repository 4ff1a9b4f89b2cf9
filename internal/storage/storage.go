// Package storage provides object storage for uploaded avatars and resource
// files. Objects live in named buckets and resolve to public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"sharify/internal/config"
)

// Storage is implemented by every object store backend.
type Storage interface {
	// Put writes size bytes from r to bucket/key. size may be -1 when unknown.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*Object, error)
	Delete(ctx context.Context, bucket, key string) error
	// URL returns the public URL of bucket/key.
	URL(bucket, key string) string
	Provider() string
}

// Object describes a stored file.
type Object struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// New returns the backend selected by cfg.StorageProvider. The minio backend
// creates any missing buckets with public read access.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageProvider {
	case "", config.StorageFilesystem:
		base := strings.TrimRight(cfg.PublicBaseURL, "/") + "/media"
		return NewFilesystemAdapter(cfg.StorageDir, base)
	case config.StorageMinio:
		a, err := NewMinioAdapter(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioPublicURL)
		if err != nil {
			return nil, err
		}
		if err := a.EnsureBuckets(ctx, cfg.AvatarBucket, cfg.ResourceBucket); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}

// CleanKey normalises an object key and rejects keys that would escape the
// bucket.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, `\`, "/"))
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." || part == "." {
			return "", fmt.Errorf("invalid key %q", key)
		}
	}
	return cleaned, nil
}

func validBucket(bucket string) error {
	if bucket == "" || strings.ContainsAny(bucket, `/\.`) {
		return fmt.Errorf("invalid bucket %q", bucket)
	}
	return nil
}
