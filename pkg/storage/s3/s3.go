// Package s3 implements the storage.Store contract on Amazon S3 or any
// S3-compatible backend (MinIO, Localstack, Cubbit DS3, ...).
//
// Key Design:
//   - Storage keys are used directly as object keys, with an optional
//     configured prefix prepended
//   - A key ending in "/" is a zero-byte folder placeholder object
//   - The bucket therefore mirrors the virtual hierarchy and stays
//     human-readable and inspectable
//
// Thread Safety:
// The store is safe for concurrent use. Concurrent writes to the same key
// are last-write-wins under S3's consistency model.
package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bucketfm/bucketfm/pkg/storage"
)

// Store implements storage.Store backed by an S3 bucket.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// Config contains the settings for an S3-backed store.
type Config struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the bucket name. It must already exist; the store never
	// creates it.
	Bucket string

	// KeyPrefix is an optional prefix prepended to every object key,
	// allowing several logical roots to share one bucket.
	KeyPrefix string
}

// New creates an S3-backed store and verifies bucket access.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	if _, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey returns the full S3 object key for a storage key.
func (s *Store) objectKey(key string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}

	return key
}

// storageKey strips the configured prefix from a full S3 object key.
func (s *Store) storageKey(objectKey string) string {
	if s.keyPrefix != "" && len(objectKey) >= len(s.keyPrefix) {
		return objectKey[len(s.keyPrefix):]
	}

	return objectKey
}

// List queries objects under the given prefix.
//
// Non-recursive queries use the "/" delimiter so that S3 collapses deeper
// levels into common prefixes; recursive queries enumerate every key. Both
// paginate through the full result set.
func (s *Store) List(ctx context.Context, prefix string, recursive bool) (*storage.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	listing := &storage.Listing{}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}

			info := storage.ObjectInfo{Key: s.storageKey(*obj.Key)}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}

			listing.Objects = append(listing.Objects, info)
		}

		for _, cp := range page.CommonPrefixes {
			if cp.Prefix == nil {
				continue
			}

			listing.CommonPrefixes = append(listing.CommonPrefixes, s.storageKey(*cp.Prefix))
		}
	}

	return listing, nil
}

// isNotFound reports whether an S3 error indicates a missing object.
// GetObject reports NoSuchKey while HeadObject reports NotFound, so both
// shapes are checked.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound

	return errors.As(err, &notFound)
}
