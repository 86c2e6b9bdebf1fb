package theme

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// S3Config configures an S3Store
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	Prefix       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// objectGetter is the part of the S3 client the store uses
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads theme documents from {prefix}{tenant}/apim/defaultTheme.json
// in an S3 bucket
type S3Store struct {
	client objectGetter
	bucket string
	prefix string
}

// NewS3Store creates an S3 client from cfg
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	var awsConfig aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		// Static credentials (MinIO or AWS with explicit keys)
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(client objectGetter, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of a tenant theme
func (s *S3Store) Key(tenant string) string {
	return s.prefix + Path(tenant)
}

// Get downloads a tenant's theme document
func (s *S3Store) Get(ctx context.Context, tenant string) (data []byte, err error) {
	if !ValidTenant(tenant) {
		return nil, ErrInvalidTenant
	}

	key := s.Key(tenant)
	ctx, span := observability.StartSpan(ctx, "S3.GetObject",
		attribute.String("s3.bucket", s.bucket),
		attribute.String("s3.key", key),
	)
	defer func() { observability.EndSpan(span, err) }()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: tenant %s", ErrNotFound, tenant)
		}
		return nil, fmt.Errorf("failed to get theme from s3: %w", err)
	}
	defer result.Body.Close()

	data, err = io.ReadAll(io.LimitReader(result.Body, maxThemeSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read theme from s3: %w", err)
	}
	return data, nil
}

func isNotFoundError(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
