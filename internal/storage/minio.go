// Package storage provides S3-compatible object storage for user media.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"voidline/internal/observability"
)

// Bucket names, one per media class.
const (
	BucketAvatars  = "avatars"
	BucketBanners  = "banners"
	BucketPosts    = "posts"
	BucketVoid     = "void"
	BucketStickers = "stickers"
	BucketAudio    = "audio"
)

// Buckets lists every bucket the service manages.
var Buckets = []string{BucketAvatars, BucketBanners, BucketPosts, BucketVoid, BucketStickers, BucketAudio}

// Client wraps the MinIO SDK with the application's bucket layout.
type Client struct {
	mc *minio.Client
}

// Config holds connection settings for the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewClient connects to the object store and ensures all buckets exist.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	c := &Client{mc: mc}
	if err := c.ensureBuckets(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureBuckets(ctx context.Context) error {
	for _, bucket := range Buckets {
		exists, err := c.mc.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %q: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
		}
		observability.Logger.Info("created storage bucket", "bucket", bucket)
	}
	return nil
}

// ObjectKey builds a per-user object key. The user ID prefix is what
// OwnsObject later checks, so uploads are namespaced by owner from the start.
func ObjectKey(userID uint, filename string) string {
	ext := path.Ext(filename)
	return fmt.Sprintf("%d/%s%s", userID, uuid.New().String(), ext)
}

// OwnsObject reports whether the object key lies inside the user's namespace.
func OwnsObject(userID uint, key string) bool {
	return strings.HasPrefix(key, fmt.Sprintf("%d/", userID))
}

// Upload stores an object and returns its key.
func (c *Client) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := c.mc.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s/%s: %w", bucket, key, err)
	}
	return key, nil
}

// Delete removes an object. Deleting an absent object is a no-op.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := c.mc.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PresignedGetURL returns a time-limited download URL for an object.
func (c *Client) PresignedGetURL(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error) {
	u, err := c.mc.PresignedGetObject(ctx, bucket, key, expiry, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to presign object %s/%s: %w", bucket, key, err)
	}
	return u, nil
}
