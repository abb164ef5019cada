package widget

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrLogoNotFound is returned by LogoStore.Get for an unknown key.
var ErrLogoNotFound = errors.New("widget: logo not found")

// LogoStore holds uploaded widget logos.
type LogoStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the object bytes and content type.
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// MinioLogoStore stores logos in a MinIO (or S3-compatible) bucket.
type MinioLogoStore struct {
	client *minio.Client
	bucket string
}

// NewMinioLogoStore connects to endpoint and creates bucket if it does not exist yet.
func NewMinioLogoStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioLogoStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &MinioLogoStore{client: client, bucket: bucket}, nil
}

func (s *MinioLogoStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	return err
}

func (s *MinioLogoStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrLogoNotFound
		}
		return nil, "", err
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", err
	}
	return data, info.ContentType, nil
}

type memoryLogo struct {
	data        []byte
	contentType string
}

// MemoryLogoStore keeps logos in process.
type MemoryLogoStore struct {
	mu    sync.RWMutex
	logos map[string]memoryLogo
}

func NewMemoryLogoStore() *MemoryLogoStore {
	return &MemoryLogoStore{logos: make(map[string]memoryLogo)}
}

func (s *MemoryLogoStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	cp := append([]byte(nil), data...)
	s.mu.Lock()
	s.logos[key] = memoryLogo{data: cp, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *MemoryLogoStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	l, ok := s.logos[key]
	s.mu.RUnlock()
	if !ok {
		return nil, "", ErrLogoNotFound
	}
	return append([]byte(nil), l.data...), l.contentType, nil
}
