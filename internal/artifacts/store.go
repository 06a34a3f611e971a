// Package artifacts mirrors model artifacts from an S3-compatible bucket into
// the local artifact directory.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object is one stored artifact file.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore lists and downloads objects of a single bucket.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	Download(ctx context.Context, key string, dst io.Writer) error
}

// S3Config locates the bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinioStore is an ObjectStore backed by minio-go.
type MinioStore struct {
	api    *minio.Client
	bucket string
}

var _ ObjectStore = (*MinioStore)(nil)

// NewMinioStore connects to cfg.Endpoint. No request is made until the
// first List or Download.
func NewMinioStore(cfg S3Config) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket are required")
	}
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &MinioStore{api: api, bucket: cfg.Bucket}, nil
}

// List returns every object under prefix, recursively. Directory markers are
// skipped.
func (s *MinioStore) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range s.api.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, Object{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	return out, nil
}

// Download streams the object named key into dst.
func (s *MinioStore) Download(ctx context.Context, key string, dst io.Writer) error {
	obj, err := s.api.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()
	if _, err := io.Copy(dst, obj); err != nil {
		return fmt.Errorf("read object %s: %w", key, err)
	}
	return nil
}
