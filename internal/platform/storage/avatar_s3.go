// Package storage uploads user avatars to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	infrahttp "contacts_backend/internal/platform/http"
)

// Config selects the bucket and how to reach it. Endpoint is set for
// MinIO and other S3-compatible hosts.
type Config struct {
	Bucket     string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	PublicBase string
	PathStyle  bool
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AvatarStore writes one object per user and returns its public URL.
type AvatarStore struct {
	client     putObjectAPI
	bucket     string
	publicBase string
	now        func() time.Time
}

// NewS3Client builds an S3 client from cfg. Static credentials are used when
// an access key is given, otherwise the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(infrahttp.NewHTTPClient(30 * time.Second)),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

// NewAvatarStore creates an AvatarStore.
func NewAvatarStore(client putObjectAPI, cfg Config) *AvatarStore {
	return &AvatarStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: PublicBase(cfg),
		now:        time.Now,
	}
}

// Upload stores data under the user's avatar key, replacing any previous
// image. The returned URL carries a version parameter so clients refetch it.
func (s *AvatarStore) Upload(ctx context.Context, userID uint, data []byte, contentType string) (string, error) {
	key := AvatarKey(userID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s?v=%d", s.publicBase, key, s.now().Unix()), nil
}

// AvatarKey is the object key of a user's avatar.
func AvatarKey(userID uint) string {
	return fmt.Sprintf("avatars/user_%d_avatar", userID)
}

// PublicBase returns the URL prefix objects are served from, without a
// trailing slash.
func PublicBase(cfg Config) string {
	switch {
	case cfg.PublicBase != "":
		return strings.TrimRight(cfg.PublicBase, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// ErrNotConfigured is returned by DisabledStore.
var ErrNotConfigured = errors.New("avatar storage is not configured")

// DisabledStore rejects every upload. It stands in when no bucket is configured.
type DisabledStore struct{}

// Upload implements the avatar store contract.
func (DisabledStore) Upload(context.Context, uint, []byte, string) (string, error) {
	return "", ErrNotConfigured
}
