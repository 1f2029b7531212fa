package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ProfileImagePrefix is where member profile and banner images live in the bucket.
const ProfileImagePrefix = "profile-images"

var (
	ErrNotConfigured    = errors.New("object storage not configured")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var imageTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicURL is the base address objects are served from. Defaults to
	// path-style <Endpoint>/<Bucket>.
	PublicURL string
}

func (c S3Config) configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Bucket stores uploaded files in the profiles bucket.
type Bucket struct {
	cfg    S3Config
	client s3Client
	newKey func() string
}

func NewBucket(cfg S3Config) *Bucket {
	b := &Bucket{cfg: cfg, newKey: uuid.NewString}
	if cfg.configured() {
		b.client = newS3Client(cfg)
	}
	return b
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (b *Bucket) Configured() bool {
	return b.client != nil
}

// ImageKey builds a fresh object key for an image with the given file name.
func (b *Bucket) ImageKey(filename string) (key, contentType string, err error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	contentType, ok := imageTypes[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedImage, filename)
	}
	return fmt.Sprintf("%s/%s.%s", ProfileImagePrefix, b.newKey(), ext), contentType, nil
}

// Upload writes body under key.
func (b *Bucket) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	if b.client == nil {
		return ErrNotConfigured
	}
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	if b.client == nil {
		return ErrNotConfigured
	}
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PublicURL resolves the address an uploaded object is served from.
func (b *Bucket) PublicURL(key string) string {
	base := b.cfg.PublicURL
	if base == "" {
		base = strings.TrimSuffix(b.cfg.Endpoint, "/") + "/" + b.cfg.Bucket
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}
