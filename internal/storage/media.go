package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/inkpress/backoffice/internal/config"
)

// MediaStore uploads and lists site media in an S3-compatible bucket.
type MediaStore struct {
	client *s3.Client
	bucket string
}

// ObjectInfo is one stored object, as shown to the admin UI.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// NewMediaStore builds a client for the configured endpoint. Returns
// nil when no endpoint is configured; a nil *MediaStore disables the
// media routes.
func NewMediaStore(cfg *config.Config) (*MediaStore, error) {
	if cfg.StorageEndpoint == "" || cfg.StorageBucket == "" {
		return nil, nil
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.StorageAccessKey, cfg.StorageSecretKey, "")
	client := s3.NewFromConfig(aws.Config{
		Region:      cfg.StorageRegion,
		Credentials: aws.NewCredentialsCache(creds),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		o.UsePathStyle = true
	})
	return &MediaStore{client: client, bucket: cfg.StorageBucket}, nil
}

// EnsureBucket creates the bucket if it does not exist (HeadBucket
// fails, then CreateBucket).
func (m *MediaStore) EnsureBucket(ctx context.Context) error {
	if m == nil {
		return nil
	}
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.bucket)})
	if err == nil {
		return nil
	}
	if _, createErr := m.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(m.bucket)}); createErr != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, createErr)
	}
	return nil
}

// Upload stores one object under key and returns nothing but the error;
// keys are date-prefixed by the caller so listings stay browsable.
func (m *MediaStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// List returns objects under prefix, newest page first up to 1000 keys.
func (m *MediaStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list objects %s: %w", prefix, err)
	}
	objects := make([]ObjectInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		info := ObjectInfo{Key: aws.ToString(obj.Key)}
		if obj.Size != nil {
			info.Size = *obj.Size
		}
		if obj.LastModified != nil {
			info.LastModified = *obj.LastModified
		}
		objects = append(objects, info)
	}
	return objects, nil
}
