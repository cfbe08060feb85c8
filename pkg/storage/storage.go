package storage

import (
	"context"
	"io"
	"time"
)

// Container is a top-level namespace holding objects: a bucket on S3, a
// directory on the local filesystem.
type Container struct {
	Name string
}

// Object is a stored blob within a container.
type Object struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// Backend is the read-only view of an object store that the browser renders.
// Implementations must be safe for concurrent use.
type Backend interface {
	// ListContainers returns all containers, sorted by name.
	ListContainers(ctx context.Context) ([]Container, error)

	// ListObjects returns the objects in a container whose names start with
	// prefix, sorted by name. An empty prefix lists the whole container.
	ListObjects(ctx context.Context, container, prefix string) ([]Object, error)

	// Open returns a reader over one object's content. The caller closes it.
	Open(ctx context.Context, container, object string) (io.ReadCloser, error)
}
