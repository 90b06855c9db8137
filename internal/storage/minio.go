package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docvault/internal/config"
	"docvault/internal/model"
)

const downloadPrefix = "downloads/"

// minioStorage implements FileStorage on an S3-compatible backend (MinIO, AWS S3, etc.).
// It is safe for concurrent use by multiple goroutines.
type minioStorage struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinIO creates a new S3-compatible storage client backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig, downloadExpiry time.Duration) (FileStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	if downloadExpiry <= 0 {
		downloadExpiry = 15 * time.Minute
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &minioStorage{client: cli, bucket: cfg.Bucket, expiry: downloadExpiry}, nil
}

func (m *minioStorage) PathFor(ownerID, name string, format model.Format) (string, error) {
	return ObjectName(ownerID, name, format)
}

// Upload streams the body to the bucket. Size may be -1 when unknown.
func (m *minioStorage) Upload(ctx context.Context, in UploadInput) (Object, error) {
	format, err := ResolveFormat(in.Format, in.ContentType)
	if err != nil {
		return Object{}, err
	}
	key, err := ObjectName(in.OwnerID, in.Name, format)
	if err != nil {
		return Object{}, err
	}
	if err := m.ensureAbsent(ctx, key); err != nil {
		return Object{}, err
	}

	size := in.Size
	if size == 0 {
		size = -1
	}
	info, err := m.client.PutObject(ctx, m.bucket, key, in.Body, size, minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("put object: %w", err)
	}
	return Object{Path: key, Format: format, Size: info.Size}, nil
}

// Rename copies the object server-side and removes the source.
func (m *minioStorage) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := m.ensureAbsent(ctx, newPath); err != nil {
		return err
	}
	if err := m.copy(ctx, oldPath, newPath); err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, oldPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove source object: %w", err)
	}
	return nil
}

func (m *minioStorage) Delete(ctx context.Context, path string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// CopyToDownloadArea copies the object under the downloads/ prefix and returns a
// pre-signed GET URL for the copy.
func (m *minioStorage) CopyToDownloadArea(ctx context.Context, path string) (string, error) {
	dst := downloadPrefix + path
	if err := m.copy(ctx, path, dst); err != nil {
		return "", err
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, dst, m.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return u.String(), nil
}

func (m *minioStorage) copy(ctx context.Context, src, dst string) error {
	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: m.bucket, Object: src},
	)
	if isNoSuchKey(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("copy object: %w", err)
	}
	return nil
}

func (m *minioStorage) ensureAbsent(ctx context.Context, key string) error {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return ErrAlreadyExists
	case isNoSuchKey(err):
		return nil
	default:
		return fmt.Errorf("stat object: %w", err)
	}
}

func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey"
	}
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
