package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/taskforge/attachment-service/internal/config"
	"github.com/taskforge/attachment-service/internal/domain/storage"
	"go.uber.org/zap"
)

// Store implements storage.BlobStore on an S3 bucket. Objects live under a
// flat key prefix; S3 object writes are atomic by contract, and the
// conditional put gives the same fail-closed collision semantics as the disk
// backend.
type Store struct {
	client *awss3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// New creates an S3-backed blob store from the given configuration.
func New(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	return &Store{
		client: awss3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

// NewWithClient creates a store around an existing client, for tests and
// custom endpoints.
func NewWithClient(client *awss3.Client, bucket, prefix string, logger *zap.Logger) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

func (s *Store) key(storageName string) string {
	if s.prefix == "" {
		return storageName
	}
	return s.prefix + "/" + storageName
}

// Commit uploads the scratch file under storageName. If-None-Match makes the
// put conditional on the key being absent, so a collision fails closed
// instead of replacing the existing object.
func (s *Store) Commit(ctx context.Context, scratchPath string, storageName string) (int64, error) {
	f, err := os.Open(scratchPath)
	if err != nil {
		return 0, fmt.Errorf("s3: open scratch %q: %w", scratchPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("s3: stat scratch %q: %w", scratchPath, err)
	}

	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(storageName)),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		IfNoneMatch:   aws.String("*"),
		ACL:           s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			s.logger.Warn("Storage name collision at commit", zap.String("storage_name", storageName))
			return 0, storage.ErrExists
		}
		return 0, fmt.Errorf("s3: put object %q: %w", storageName, err)
	}

	return info.Size(), nil
}

// Open returns a reader over the object stored under storageName.
func (s *Store) Open(ctx context.Context, storageName string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(storageName)),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("s3: get object %q: %w", storageName, err)
	}
	return out.Body, nil
}

// Remove deletes the object stored under storageName. S3 deletes are
// idempotent, so a missing key is not an error.
func (s *Store) Remove(ctx context.Context, storageName string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(storageName)),
	})
	if err != nil {
		return fmt.Errorf("s3: delete object %q: %w", storageName, err)
	}
	return nil
}

// List returns the storage names of all committed objects under the prefix.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "/"
	}

	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			names = append(names, key[len(prefix):])
		}
	}
	return names, nil
}
