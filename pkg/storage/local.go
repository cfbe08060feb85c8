package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBackend serves containers and objects from a directory tree. The first
// directory level under the base path is the container namespace; everything
// below a container directory is an object, named by its slash-separated
// relative path. All operations are confined to the base directory.
type LocalBackend struct {
	baseDir string
}

// NewLocalBackend creates a backend rooted at baseDir, which must exist.
// The path is resolved to an absolute path so traversal checks have a stable
// anchor.
func NewLocalBackend(baseDir string) (*LocalBackend, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve base directory: %w", err)
	}

	info, err := os.Stat(absBaseDir)
	if err != nil {
		return nil, fmt.Errorf("could not stat base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidConfig, baseDir)
	}

	return &LocalBackend{baseDir: absBaseDir}, nil
}

// resolve maps a container (and optional object path) onto an absolute
// filesystem path, rejecting anything that would escape the base directory.
func (l *LocalBackend) resolve(container, object string) (string, error) {
	if container == "" || strings.ContainsAny(container, `/\`) {
		return "", fmt.Errorf("%w: container %q", ErrInvalidName, container)
	}
	p := filepath.Join(l.baseDir, container, filepath.FromSlash(object))
	// filepath.Join cleans ".." segments, but a cleaned path that lands
	// outside the requested container is still an escape.
	containerDir := filepath.Join(l.baseDir, container)
	if p != containerDir && !strings.HasPrefix(p, containerDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, object)
	}
	return p, nil
}

func (l *LocalBackend) ListContainers(ctx context.Context) ([]Container, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	entries, err := os.ReadDir(l.baseDir)
	if err != nil {
		return nil, fmt.Errorf("could not read base directory: %w", err)
	}

	var containers []Container
	for _, e := range entries {
		if e.IsDir() {
			containers = append(containers, Container{Name: e.Name()})
		}
	}
	sort.Slice(containers, func(i, j int) bool { return containers[i].Name < containers[j].Name })
	return containers, nil
}

func (l *LocalBackend) ListObjects(ctx context.Context, container, prefix string) ([]Object, error) {
	root, err := l.resolve(container, "")
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: container %q", ErrNotFound, container)
	}

	var objects []Object
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{
			Name:         name,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk container %q: %w", container, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

func (l *LocalBackend) Open(ctx context.Context, container, object string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if object == "" {
		return nil, fmt.Errorf("%w: empty object name", ErrInvalidName)
	}
	path, err := l.resolve(container, object)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, container, object)
		}
		return nil, fmt.Errorf("could not open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not stat object: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s/%s is a directory", ErrInvalidName, container, object)
	}

	return f, nil
}
