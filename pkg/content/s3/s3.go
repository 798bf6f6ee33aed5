// Package s3 implements a content store backed by Amazon S3 or any
// S3-compatible object storage (MinIO, Localstack, ...).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/scopedfs/mediagate/pkg/content"
)

// S3ContentStore stores each content blob as one S3 object.
//
// Object keys are "<keyPrefix><content id>". There is no local
// caching: every read and write hits S3. Concurrent writes to the
// same ID are last-write-wins, which matches the content.Store
// contract.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// Config contains the settings for an S3 content store.
type Config struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys, e.g.
	// "mediagate/content/".
	KeyPrefix string
}

// NewS3ContentStore creates an S3-backed content store and verifies
// bucket access with a HeadBucket call.
func NewS3ContentStore(ctx context.Context, cfg Config) (*S3ContentStore, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey builds the S3 key for a content ID.
func (s *S3ContentStore) objectKey(id content.ID) string {
	return s.keyPrefix + string(id)
}

// Write implements content.Store using a single PutObject.
func (s *S3ContentStore) Write(ctx context.Context, id content.ID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object for content %s: %w", id, err)
	}
	return nil
}

// Read implements content.Store by downloading the whole object.
func (s *S3ContentStore) Read(ctx context.Context, id content.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to get object for content %s: %w", id, err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body for content %s: %w", id, err)
	}
	return data, nil
}

// Delete implements content.Store. S3 DeleteObject is idempotent, so
// deleting an unknown ID succeeds, matching the interface contract.
func (s *S3ContentStore) Delete(ctx context.Context, id content.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object for content %s: %w", id, err)
	}
	return nil
}

// Exists implements content.Store using HeadObject.
func (s *S3ContentStore) Exists(ctx context.Context, id content.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object for content %s: %w", id, err)
	}
	return true, nil
}

// Close implements content.Store. The S3 client holds no resources
// that need explicit release.
func (s *S3ContentStore) Close() error {
	return nil
}
