package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Put writes the full object at key, overwriting any existing object.
//
// The S3 SDK needs a seekable body so it can sign the request and compute
// the content length up front. When the supplied reader is not seekable the
// whole stream is buffered in memory first.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, seekable := body.(io.ReadSeeker); !seekable {
		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("failed to buffer upload for %s: %w", key, err)
		}

		body = bytes.NewReader(data)
		size = int64(len(data))
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

// Copy duplicates the object at srcKey to dstKey server-side.
//
// CopySource must be URL-encoded per the S3 API; keys routinely contain
// spaces and unicode.
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source := url.PathEscape(s.bucket + "/" + s.objectKey(srcKey))

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.objectKey(dstKey)),
		CopySource: aws.String(source),
	})
	if err != nil {
		return fmt.Errorf("failed to copy object %s to %s: %w", srcKey, dstKey, err)
	}

	return nil
}
