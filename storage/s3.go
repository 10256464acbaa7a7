package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mhpenta/tryon"
)

// DefaultPresignExpiry is how long returned download links stay valid.
const DefaultPresignExpiry = 24 * time.Hour

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Bucket string
	Prefix string // Key prefix, e.g. "tryon/"
	Region string

	// Endpoint overrides the AWS endpoint for R2, MinIO and the like.
	Endpoint string

	// Static credentials. When empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// PresignExpiry is the lifetime of returned links. Zero disables presigning
	// and SaveFile returns an s3:// URL instead.
	PresignExpiry time.Duration
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 uploads images to a bucket.
type S3 struct {
	bucket    string
	prefix    string
	expiry    time.Duration
	client    objectPutter
	presigner objectPresigner
}

// Ensure S3 implements tryon.Storage.
var _ tryon.Storage = (*S3)(nil)

// NewS3 loads the AWS configuration and creates an S3 backend.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		})
		opts = append(opts, config.WithEndpointResolverWithOptions(resolver))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})
	return newS3(client, s3.NewPresignClient(client), cfg), nil
}

func newS3(client objectPutter, presigner objectPresigner, cfg S3Config) *S3 {
	return &S3{
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		expiry:    cfg.PresignExpiry,
		client:    client,
		presigner: presigner,
	}
}

// SaveFile uploads data under prefix+path. It returns a presigned download
// link when presigning is enabled, or the object's s3:// URL otherwise.
func (s *S3) SaveFile(ctx context.Context, data []byte, p string, contentType string) (string, error) {
	key := s.key(p)
	if contentType == "" {
		contentType = tryon.GetMIMEType(p)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: int64(len(data)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if s.expiry <= 0 || s.presigner == nil {
		return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3) key(p string) string {
	return path.Join(s.prefix, strings.TrimLeft(p, "/"))
}
