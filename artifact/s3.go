package artifact

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store writes artifacts to an S3 bucket under a key prefix.
type S3Store struct {
	bucket string
	prefix string
	s3     *s3.Client
}

// NewS3Store creates an S3-backed artifact store.
func NewS3Store(s3Client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		bucket: bucket,
		prefix: prefix,
		s3:     s3Client,
	}
}

// Save uploads the artifact as prefix/name.
func (s *S3Store) Save(ctx context.Context, name string, data []byte) error {
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path.Join(s.prefix, name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("failed to put artifact object to S3: %w", err)
	}
	return nil
}
