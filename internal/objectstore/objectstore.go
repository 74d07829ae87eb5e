// Package objectstore reads Markdown sources out of S3-compatible buckets so
// uploads can point at s3://bucket/key instead of a local path.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/picktoss/internal/config"
)

// Scheme prefixes object locations.
const Scheme = "s3://"

// ErrNotConfigured is returned when an s3:// source is used without an endpoint.
var ErrNotConfigured = errors.New("object storage is not configured")

// Location names one object.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string { return Scheme + l.Bucket + "/" + l.Key }

// Name returns the last path element of the key.
func (l Location) Name() string { return path.Base(l.Key) }

// IsLocation reports whether src uses the s3:// scheme.
func IsLocation(src string) bool {
	return strings.HasPrefix(src, Scheme)
}

// ParseLocation splits s3://bucket/key.
func ParseLocation(src string) (Location, error) {
	u, err := url.Parse(src)
	if err != nil {
		return Location{}, fmt.Errorf("parse object location: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Location{}, fmt.Errorf("parse object location %q: expected s3://bucket/key", src)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return Location{}, fmt.Errorf("parse object location %q: missing object key", src)
	}
	return Location{Bucket: u.Host, Key: key}, nil
}

// Object is a downloaded object.
type Object struct {
	Location    Location
	ContentType string
	Data        []byte
}

// Storage wraps the MinIO client.
type Storage struct {
	client *minio.Client
	// maxSize bounds how much of an object is read.
	maxSize int64
}

// New creates a MinIO client from the Config. maxSize limits downloads; zero
// means unlimited.
func New(cfg *config.Config, maxSize int64) (*Storage, error) {
	if cfg.S3Endpoint == "" {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{client: client, maxSize: maxSize}, nil
}

// Fetch downloads the object at loc.
func (s *Storage) Fetch(ctx context.Context, loc Location) (Object, error) {
	obj, err := s.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return Object{}, fmt.Errorf("get object %s: %w", loc, err)
	}
	defer obj.Close()
	info, err := obj.Stat()
	if err != nil {
		return Object{}, fmt.Errorf("stat object %s: %w", loc, err)
	}
	var r io.Reader = obj
	if s.maxSize > 0 {
		if info.Size > s.maxSize {
			return Object{}, fmt.Errorf("object %s is %d bytes, limit is %d", loc, info.Size, s.maxSize)
		}
		r = io.LimitReader(obj, s.maxSize)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("read object %s: %w", loc, err)
	}
	return Object{Location: loc, ContentType: info.ContentType, Data: data}, nil
}

// List returns the Markdown objects under prefix in bucket.
func (s *Storage) List(ctx context.Context, bucket, prefix string) ([]Location, error) {
	var out []Location
	for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list objects %s/%s: %w", bucket, prefix, info.Err)
		}
		if strings.EqualFold(path.Ext(info.Key), ".md") {
			out = append(out, Location{Bucket: bucket, Key: info.Key})
		}
	}
	return out, nil
}
