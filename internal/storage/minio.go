package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// publicReadPolicy lets anonymous clients GET objects, matching the public
// URLs handed out for avatars and resource files.
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// MinioAdapter stores objects in MinIO or any S3-compatible service.
type MinioAdapter struct {
	client    *minio.Client
	publicURL string
}

// NewMinioAdapter connects to endpoint. publicURL is the externally visible
// base for object URLs and defaults to the endpoint itself.
func NewMinioAdapter(endpoint, accessKeyID, secretAccessKey string, useSSL bool, publicURL string) (*MinioAdapter, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}
	return &MinioAdapter{client: client, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (a *MinioAdapter) Provider() string { return "minio" }

// EnsureBuckets creates each missing bucket and makes it publicly readable.
func (a *MinioAdapter) EnsureBuckets(ctx context.Context, buckets ...string) error {
	for _, bucket := range buckets {
		if err := validBucket(bucket); err != nil {
			return err
		}
		exists, err := a.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := a.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		if err := a.client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
			return fmt.Errorf("failed to set policy on bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (a *MinioAdapter) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*Object, error) {
	if r == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	if err := validBucket(bucket); err != nil {
		return nil, err
	}
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := a.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put object: %w", err)
	}
	return &Object{Bucket: bucket, Key: key, Size: info.Size, ContentType: contentType, URL: a.URL(bucket, key)}, nil
}

func (a *MinioAdapter) Delete(ctx context.Context, bucket, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := a.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (a *MinioAdapter) URL(bucket, key string) string {
	return a.publicURL + "/" + bucket + "/" + strings.TrimPrefix(key, "/")
}
