package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API the backend uses. It exists so tests
// can substitute a mock.
type S3Client interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3ListObjectsV2Paginator abstracts paginated listing for the same reason.
type S3ListObjectsV2Paginator interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config contains configuration for the S3 backend.
type S3Config struct {
	Region         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string // Optional: for S3-compatible services
	ForcePathStyle bool   // For S3-compatible services like MinIO
}

// S3Option configures optional S3 backend behavior.
type S3Option func(*s3Options)

type s3Options struct {
	httpClient       *http.Client
	s3Client         S3Client
	paginatorFactory func(client S3Client, params *s3.ListObjectsV2Input) S3ListObjectsV2Paginator
}

// WithS3Client sets a pre-configured S3 client. Useful for testing with mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.s3Client = client
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

// WithPaginatorFactory sets a custom paginator factory. Useful for testing
// pagination.
func WithPaginatorFactory(factory func(client S3Client, params *s3.ListObjectsV2Input) S3ListObjectsV2Paginator) S3Option {
	return func(o *s3Options) {
		o.paginatorFactory = factory
	}
}

// S3Backend browses Amazon S3 (or an S3-compatible service): buckets are the
// containers, keys are the objects. Safe for concurrent use.
type S3Backend struct {
	client           S3Client
	paginatorFactory func(client S3Client, params *s3.ListObjectsV2Input) S3ListObjectsV2Paginator
}

// NewS3Backend creates an S3 backend. Without explicit credentials the AWS
// SDK's default chain (env, shared config, instance role) applies.
func NewS3Backend(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Backend, error) {
	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	var client S3Client
	if options.s3Client != nil {
		client = options.s3Client
	} else {
		if cfg.Region == "" {
			return nil, ErrInvalidConfig
		}

		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}
		if options.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("could not load AWS configuration: %w", err)
		}

		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	paginatorFactory := options.paginatorFactory
	if paginatorFactory == nil {
		paginatorFactory = func(client S3Client, params *s3.ListObjectsV2Input) S3ListObjectsV2Paginator {
			return s3.NewListObjectsV2Paginator(client, params)
		}
	}

	return &S3Backend{
		client:           client,
		paginatorFactory: paginatorFactory,
	}, nil
}

func (b *S3Backend) ListContainers(ctx context.Context) ([]Container, error) {
	out, err := b.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("could not list buckets: %w", err)
	}

	var containers []Container
	for _, bucket := range out.Buckets {
		containers = append(containers, Container{Name: aws.ToString(bucket.Name)})
	}
	sort.Slice(containers, func(i, j int) bool { return containers[i].Name < containers[j].Name })
	return containers, nil
}

func (b *S3Backend) ListObjects(ctx context.Context, container, prefix string) ([]Object, error) {
	if container == "" {
		return nil, fmt.Errorf("%w: empty container name", ErrInvalidName)
	}

	params := &s3.ListObjectsV2Input{
		Bucket: aws.String(container),
	}
	if prefix != "" {
		params.Prefix = aws.String(prefix)
	}

	var objects []Object
	paginator := b.paginatorFactory(b.client, params)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not list objects in %q: %w", container, mapS3Error(err))
		}
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Name:         aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

func (b *S3Backend) Open(ctx context.Context, container, object string) (io.ReadCloser, error) {
	if container == "" || object == "" {
		return nil, fmt.Errorf("%w: empty container or object name", ErrInvalidName)
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(object),
	})
	if err != nil {
		return nil, fmt.Errorf("could not get object %s/%s: %w", container, object, mapS3Error(err))
	}
	return out.Body, nil
}

// mapS3Error translates the service's not-found responses into ErrNotFound so
// callers can branch without importing AWS error types.
func mapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}
