// Package archive stores rendered review reports in S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/ericksa/contractreview/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignExpiry = 24 * time.Hour

// ObjectStore is the subset of *minio.Client the archive needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

type Archiver struct {
	store  ObjectStore
	bucket string
	prefix string

	mu          sync.Mutex
	bucketReady bool
}

// Object describes one archived report.
type Object struct {
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	URL          string    `json:"url,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`
}

// New connects to the endpoint in cfg.
func New(cfg config.ArchiveConfig) (*Archiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return NewWithStore(client, cfg.Bucket, cfg.Prefix), nil
}

func NewWithStore(store ObjectStore, bucket, prefix string) *Archiver {
	return &Archiver{store: store, bucket: bucket, prefix: prefix}
}

// ensureBucket creates the bucket on first use. Failures are retried on the
// next call.
func (a *Archiver) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bucketReady {
		return nil
	}

	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	a.bucketReady = true
	return nil
}

// Put uploads body under <prefix>YYYY/MM/DD/<uuid>.<ext> and returns a
// presigned download URL alongside the object key.
func (a *Archiver) Put(ctx context.Context, title, ext, contentType string, body []byte) (Object, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return Object{}, err
	}

	now := time.Now().UTC()
	key := a.prefix + path.Join(now.Format("2006/01/02"), uuid.NewString()+"."+strings.TrimPrefix(ext, "."))

	info, err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  contentType,
		// Metadata travels as an HTTP header, so non-ASCII titles are escaped.
		UserMetadata: map[string]string{"title": url.PathEscape(title)},
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload: %w", err)
	}

	obj := Object{
		Bucket:       a.bucket,
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: now,
	}
	if u, err := a.store.PresignedGetObject(ctx, a.bucket, key, presignExpiry, nil); err == nil {
		obj.URL = u.String()
	}
	return obj, nil
}

// List returns up to limit archived reports under the prefix.
func (a *Archiver) List(ctx context.Context, limit int) ([]Object, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := []Object{}
	for info := range a.store.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: a.prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", info.Err)
		}
		objects = append(objects, Object{
			Bucket:       a.bucket,
			Key:          info.Key,
			Size:         info.Size,
			ETag:         info.ETag,
			LastModified: info.LastModified,
		})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}
