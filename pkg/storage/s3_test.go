package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// mockS3Client implements S3Client for tests.
type mockS3Client struct {
	listBuckets func(ctx context.Context, params *s3.ListBucketsInput) (*s3.ListBucketsOutput, error)
	listObjects func(ctx context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	getObject   func(ctx context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error)
}

func (m *mockS3Client) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	return m.listBuckets(ctx, params)
}

func (m *mockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return m.listObjects(ctx, params)
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.getObject(ctx, params)
}

// mockPaginator replays a fixed sequence of pages.
type mockPaginator struct {
	pages []*s3.ListObjectsV2Output
	idx   int
}

func (p *mockPaginator) HasMorePages() bool {
	return p.idx < len(p.pages)
}

func (p *mockPaginator) NextPage(_ context.Context, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := p.pages[p.idx]
	p.idx++
	return page, nil
}

func newMockBackend(tb testing.TB, client S3Client, pages ...*s3.ListObjectsV2Output) *S3Backend {
	tb.Helper()
	backend, err := NewS3Backend(context.Background(), S3Config{},
		WithS3Client(client),
		WithPaginatorFactory(func(_ S3Client, _ *s3.ListObjectsV2Input) S3ListObjectsV2Paginator {
			return &mockPaginator{pages: pages}
		}),
	)
	if err != nil {
		tb.Fatalf("NewS3Backend failed: %v", err)
	}
	return backend
}

func TestS3Backend_ListContainers(t *testing.T) {
	client := &mockS3Client{
		listBuckets: func(_ context.Context, _ *s3.ListBucketsInput) (*s3.ListBucketsOutput, error) {
			return &s3.ListBucketsOutput{
				Buckets: []types.Bucket{
					{Name: aws.String("zulu")},
					{Name: aws.String("alpha")},
				},
			}, nil
		},
	}
	backend := newMockBackend(t, client)

	containers, err := backend.ListContainers(context.Background())
	if err != nil {
		t.Fatalf("ListContainers failed: %v", err)
	}
	if len(containers) != 2 || containers[0].Name != "alpha" || containers[1].Name != "zulu" {
		t.Errorf("containers wrong or unsorted: %v", containers)
	}
}

func TestS3Backend_ListObjects(t *testing.T) {
	now := time.Now()
	pages := []*s3.ListObjectsV2Output{
		{Contents: []types.Object{
			{Key: aws.String("b.txt"), Size: aws.Int64(2), LastModified: aws.Time(now)},
		}},
		{Contents: []types.Object{
			{Key: aws.String("a.txt"), Size: aws.Int64(1), LastModified: aws.Time(now)},
		}},
	}
	backend := newMockBackend(t, &mockS3Client{}, pages...)

	objects, err := backend.ListObjects(context.Background(), "bucket", "")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects across pages, got %d", len(objects))
	}
	if objects[0].Name != "a.txt" || objects[1].Name != "b.txt" {
		t.Errorf("objects unsorted: %v", objects)
	}

	if _, err = backend.ListObjects(context.Background(), "", ""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName for empty container, got %v", err)
	}
}

func TestS3Backend_Open(t *testing.T) {
	client := &mockS3Client{
		getObject: func(_ context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			if aws.ToString(params.Key) == "missing" {
				return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "no such key"}
			}
			return &s3.GetObjectOutput{
				Body: io.NopCloser(strings.NewReader("object-data")),
			}, nil
		},
	}
	backend := newMockBackend(t, client)
	ctx := context.Background()

	rc, err := backend.Open(ctx, "bucket", "key")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "object-data" {
		t.Errorf("object content = %q", data)
	}

	if _, err = backend.Open(ctx, "bucket", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for NoSuchKey, got %v", err)
	}
}
