package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bucketfm/bucketfm/pkg/storage"
)

// Get opens the object at key for streaming reads.
//
// The returned reader streams directly from S3 and must be closed by the
// caller. The accompanying ObjectInfo carries the size and modification
// time reported with the response.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, fmt.Errorf("object %s: %w", key, storage.ErrObjectNotFound)
		}

		return nil, nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	info := &storage.ObjectInfo{Key: key}
	if result.ContentLength != nil {
		info.Size = *result.ContentLength
	}
	if result.LastModified != nil {
		info.LastModified = *result.LastModified
	}

	return result.Body, info, nil
}

// Head returns object metadata without downloading the content.
func (s *Store) Head(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %s: %w", key, storage.ErrObjectNotFound)
		}

		return nil, fmt.Errorf("failed to head object %s: %w", key, err)
	}

	info := &storage.ObjectInfo{Key: key}
	if result.ContentLength != nil {
		info.Size = *result.ContentLength
	}
	if result.LastModified != nil {
		info.LastModified = *result.LastModified
	}

	return info, nil
}
