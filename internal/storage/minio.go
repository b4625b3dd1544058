package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/orbitlearn/orbit-server/internal/config"
)

// ErrNotConfigured is returned when object storage was not set up at boot.
var ErrNotConfigured = errors.New("storage: not configured")

// Client wraps a MinIO (S3-compatible) bucket holding uploaded resumes.
// A client built without an endpoint stays usable; every operation then
// returns ErrNotConfigured.
type Client struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
	configured    bool
}

func NewClient(cfg config.StorageConfig) (*Client, error) {
	if !cfg.Configured() {
		return &Client{}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}

	return &Client{
		client:        client,
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
		configured:    true,
	}, nil
}

func (c *Client) Configured() bool {
	return c != nil && c.configured
}

// EnsureBucket creates the bucket when it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket: %w", err)
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("storage: create bucket: %w", err)
		}
	}

	return nil
}

// UploadResume stores a resume file under resumes/<uuid>.<ext> and returns
// the object key.
func (c *Client) UploadResume(ctx context.Context, reader io.Reader, size int64, ext string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	key := fmt.Sprintf("resumes/%s.%s", uuid.NewString(), ext)
	_, err := c.client.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentTypeFor(ext),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload: %w", err)
	}

	return key, nil
}

// PresignedURL returns a time-limited download URL for an object.
func (c *Client) PresignedURL(ctx context.Context, key string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	url, err := c.client.PresignedGetObject(ctx, c.bucket, key, c.presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("storage: presign: %w", err)
	}

	return url.String(), nil
}

// Download reads an object fully into memory. Resume files are small.
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("storage: read object: %w", err)
	}

	return data, nil
}

func contentTypeFor(ext string) string {
	switch ext {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
