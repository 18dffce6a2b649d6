package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PutResult is the contract the engine logs into the audit trail for every
// produced artifact.
type PutResult struct {
	Bucket     string `json:"bucket"`
	StorageKey string `json:"storage_key"`
	Checksum   string `json:"checksum"`
	SizeBytes  int64  `json:"size_bytes"`
}

// ObjectStore is the artifact/report sink: outputs are handed over as opaque
// bytes and come back with a storage key and checksum.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*PutResult, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO (dev) or any S3-compatible endpoint and
// ensures the artifact bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	s := &minioStore{client: client, bucket: bucket}
	if err := s.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *minioStore) ensureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *minioStore) Put(ctx context.Context, key string, data []byte, contentType string) (*PutResult, error) {
	sum := sha256.Sum256(data)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	return &PutResult{
		Bucket:     s.bucket,
		StorageKey: key,
		Checksum:   hex.EncodeToString(sum[:]),
		SizeBytes:  int64(len(data)),
	}, nil
}

func (s *minioStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}
