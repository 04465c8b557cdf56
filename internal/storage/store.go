package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrStorageDisabled is returned when no blob storage is configured.
var ErrStorageDisabled = errors.New("blob storage is not configured")

// Store is the blob storage surface the media services use.
type Store interface {
	// Upload stores the blob under a per-user, date-partitioned key and
	// returns the public URL.
	Upload(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, blobURL string) error
	// PresignUpload returns a short-lived URL a client can PUT a blob to
	// directly, plus the public URL the blob will have afterwards.
	PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (uploadURL, publicURL string, err error)
}

type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
	Prefix        string
}

type S3Store struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
}

func NewS3Store(cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("s3 public base url is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "media"
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	client := s3.New(options)

	return &S3Store{cfg: cfg, client: client, presign: s3.NewPresignClient(client)}, nil
}

var _ Store = (*S3Store)(nil)

func (s *S3Store) Upload(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no data to upload")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.generateKey(userID, contentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return s.publicURL(key), nil
}

func (s *S3Store) Delete(ctx context.Context, blobURL string) error {
	key, ok := s.keyFromURL(blobURL)
	if !ok {
		return fmt.Errorf("blob url %q is not under this store", blobURL)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete from s3: %w", err)
	}
	return nil
}

func (s *S3Store) PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (string, string, error) {
	key := s.generateKey(userID, contentType)
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", fmt.Errorf("presign upload: %w", err)
	}
	return req.URL, s.publicURL(key), nil
}

// generateKey partitions blobs by user and upload date so a bucket listing
// stays navigable: media/<user>/2026/08/31/<uuid>.jpg
func (s *S3Store) generateKey(userID uuid.UUID, contentType string) string {
	ext := extensionFromContentType(contentType)
	now := time.Now().UTC()
	prefix := strings.Trim(s.cfg.Prefix, "/")
	return path.Join(prefix, userID.String(), fmt.Sprintf("%04d/%02d/%02d", now.Year(), now.Month(), now.Day()), uuid.NewString()+ext)
}

func (s *S3Store) publicURL(key string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
}

func (s *S3Store) keyFromURL(blobURL string) (string, bool) {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/"
	if !strings.HasPrefix(blobURL, base) {
		return "", false
	}
	return strings.TrimPrefix(blobURL, base), true
}

func extensionFromContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}

// Disabled is the Store used when no bucket is configured; every call fails
// with ErrStorageDisabled so the API surfaces a clear message instead of
// panicking on a nil store.
type Disabled struct{}

var _ Store = Disabled{}

func (Disabled) Upload(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	return "", ErrStorageDisabled
}

func (Disabled) Delete(ctx context.Context, blobURL string) error {
	return ErrStorageDisabled
}

func (Disabled) PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (string, string, error) {
	return "", "", ErrStorageDisabled
}
