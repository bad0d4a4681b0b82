package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config carries everything needed to reach an S3-compatible object store
// (AWS or MinIO).
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicBaseURL is the prefix objects are served from. Defaults to
	// Endpoint/Bucket when empty.
	PublicBaseURL string
}

// S3Store implements Store on top of an S3 bucket.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds a client with static credentials and an optional endpoint
// override for MinIO-style deployments.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("media: bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Store{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Upload stores the object under key and returns its reference.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) (Image, error) {
	if key == "" {
		return Image{}, errors.New("media: object key is required")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Image{}, fmt.Errorf("media: upload %s: %w", key, err)
	}
	return Image{ID: key, URL: s.baseURL + "/" + key}, nil
}

// Destroy removes the object. Deleting an already-absent object is not an
// error in S3, which keeps release paths idempotent.
func (s *S3Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("media: destroy %s: %w", id, err)
	}
	return nil
}
