package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemAdapter stores objects under root/<bucket>/<key>. The API serves
// them back under baseURL.
type FilesystemAdapter struct {
	root    string
	baseURL string
}

// NewFilesystemAdapter creates root if needed.
func NewFilesystemAdapter(root, baseURL string) (*FilesystemAdapter, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemAdapter{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory objects are written under.
func (a *FilesystemAdapter) Root() string { return a.root }

func (a *FilesystemAdapter) Provider() string { return "filesystem" }

func (a *FilesystemAdapter) path(bucket, key string) (string, string, error) {
	if err := validBucket(bucket); err != nil {
		return "", "", err
	}
	key, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(a.root, bucket, filepath.FromSlash(key)), key, nil
}

func (a *FilesystemAdapter) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64, contentType string) (*Object, error) {
	if r == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	full, key, err := a.path(bucket, key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to move object into place: %w", err)
	}

	return &Object{Bucket: bucket, Key: key, Size: n, ContentType: contentType, URL: a.URL(bucket, key)}, nil
}

// Delete returns nil when the object does not exist.
func (a *FilesystemAdapter) Delete(_ context.Context, bucket, key string) error {
	full, _, err := a.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (a *FilesystemAdapter) URL(bucket, key string) string {
	return a.baseURL + "/" + bucket + "/" + strings.TrimPrefix(key, "/")
}
