package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3-compatible storage configuration. Any S3-compatible
// provider works (AWS, Backblaze B2, Cloudflare R2, MinIO).
type S3Config struct {
	// Bucket is the bucket name (required).
	Bucket string `env:"STORAGE_S3_BUCKET"`

	// AccessKey is the access key id (required).
	AccessKey string `env:"STORAGE_S3_ACCESS_KEY"`

	// SecretKey is the secret access key (required).
	SecretKey string `env:"STORAGE_S3_SECRET_KEY"`

	// Endpoint is a custom S3 endpoint URL (optional, for non-AWS providers).
	Endpoint string `env:"STORAGE_S3_ENDPOINT"`

	// Region is the provider region (default: us-east-1).
	Region string `env:"STORAGE_S3_REGION"`

	// CDNBaseURL, when set, short-circuits signing for inline assets and
	// serves them from the CDN edge instead.
	CDNBaseURL string `env:"STORAGE_S3_CDN_BASE_URL"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `env:"STORAGE_S3_PATH_STYLE"`
}

// DefaultRegion is used when S3Config.Region is empty.
const DefaultRegion = "us-east-1"

// Configured reports whether the remote backend should be wired at startup.
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func (c *S3Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *S3Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// s3API is the slice of the S3 client used by the backend.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Presigner is the slice of the presign client used by SignedURL.
type s3Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 implements Backend and Signer over an S3-compatible object store.
type S3 struct {
	client    s3API
	presigner s3Presigner
	cfg       S3Config
}

// NewS3 creates an S3 backend with the given configuration.
func NewS3(cfg S3Config) (*S3, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	client := s3.New(s3.Options{}, opts...)
	return &S3{
		client:    client,
		presigner: s3.NewPresignClient(client),
		cfg:       cfg,
	}, nil
}

// Store uploads data under key. Unlike the local backend this overwrites:
// object-store keys already carry a caller-chosen random photo id, so an
// overwrite can only ever replace the same logical object.
func (s *S3) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if ct := strings.TrimSpace(contentType); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", wrapS3Error(err, ErrStoreFailed)
	}
	return key, nil
}

// Open retrieves the object body for key.
func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrReadFailed)
	}
	return out.Body, nil
}

// Size returns the object's content length without downloading it.
func (s *S3) Size(ctx context.Context, key string) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, wrapS3Error(err, ErrReadFailed)
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

// Delete removes the object at key. S3 DeleteObject succeeds for absent keys,
// so existence is checked first to report whether anything was deleted.
func (s *S3) Delete(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		wrapped := wrapS3Error(err, ErrReadFailed)
		if errors.Is(wrapped, ErrNotFound) {
			return false, nil
		}
		return false, wrapped
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return false, wrapS3Error(err, ErrDeleteFailed)
	}
	return true, nil
}

// CleanupTenantDir is a no-op: the object-store namespace is flat and has no
// per-tenant directories to remove.
func (s *S3) CleanupTenantDir(context.Context, string) error { return nil }

// SignedURL produces a time-boxed GET URL for key. When useCDN is true and a
// CDN base URL is configured, the asset is served from the edge instead of
// being signed; callers bypass the CDN for attachment downloads.
func (s *S3) SignedURL(ctx context.Context, key string, ttl time.Duration, useCDN bool) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: blank key", ErrInvalidKey)
	}
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}
	if useCDN && s.cfg.CDNBaseURL != "" {
		return s.cdnURL(key), nil
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = ttl
	})
	if err != nil {
		return "", wrapS3Error(err, ErrPresignFailed)
	}
	return req.URL, nil
}

// cdnURL joins the CDN base and the key, escaping each path segment.
func (s *S3) cdnURL(key string) string {
	base := strings.TrimSuffix(strings.TrimSpace(s.cfg.CDNBaseURL), "/")
	segments := strings.Split(key, "/")
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return base + "/" + strings.Join(escaped, "/")
}

// Ensure S3 implements both contracts.
var (
	_ Backend = (*S3)(nil)
	_ Signer  = (*S3)(nil)
)
