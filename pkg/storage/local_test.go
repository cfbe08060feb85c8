package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// setupTestTree builds a two-container directory tree for a single test.
func setupTestTree(tb testing.TB) *LocalBackend {
	tb.Helper()

	baseDir := tb.TempDir()
	files := map[string]string{
		"photos/cats/grumpy.jpg": "jpegdata",
		"photos/dogs/rex.jpg":    "jpegdata2",
		"photos/readme.txt":      "hello",
		"backups/db.tar.gz":      "tarball",
	}
	for name, content := range files {
		path := filepath.Join(baseDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			tb.Fatalf("failed to create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			tb.Fatalf("failed to write %s: %v", name, err)
		}
	}
	// A stray top-level file must not show up as a container.
	if err := os.WriteFile(filepath.Join(baseDir, "notes.txt"), []byte("x"), 0644); err != nil {
		tb.Fatalf("failed to write stray file: %v", err)
	}

	backend, err := NewLocalBackend(baseDir)
	if err != nil {
		tb.Fatalf("NewLocalBackend failed: %v", err)
	}
	return backend
}

func TestNewLocalBackend(t *testing.T) {
	if _, err := NewLocalBackend(""); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty base dir: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewLocalBackend(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected an error for a nonexistent base dir")
	}
}

func TestLocalBackend_ListContainers(t *testing.T) {
	backend := setupTestTree(t)
	containers, err := backend.ListContainers(context.Background())
	if err != nil {
		t.Fatalf("ListContainers failed: %v", err)
	}
	if len(containers) != 2 {
		t.Fatalf("expected 2 containers, got %d", len(containers))
	}
	if containers[0].Name != "backups" || containers[1].Name != "photos" {
		t.Errorf("containers not sorted by name: %v", containers)
	}
}

func TestLocalBackend_ListObjects(t *testing.T) {
	backend := setupTestTree(t)
	ctx := context.Background()

	t.Run("All", func(t *testing.T) {
		objects, err := backend.ListObjects(ctx, "photos", "")
		if err != nil {
			t.Fatalf("ListObjects failed: %v", err)
		}
		want := []string{"cats/grumpy.jpg", "dogs/rex.jpg", "readme.txt"}
		if len(objects) != len(want) {
			t.Fatalf("expected %d objects, got %d", len(want), len(objects))
		}
		for i, name := range want {
			if objects[i].Name != name {
				t.Errorf("object %d = %q, want %q", i, objects[i].Name, name)
			}
		}
		if objects[2].Size != int64(len("hello")) {
			t.Errorf("readme.txt size = %d, want %d", objects[2].Size, len("hello"))
		}
	})

	t.Run("Prefix", func(t *testing.T) {
		objects, err := backend.ListObjects(ctx, "photos", "cats/")
		if err != nil {
			t.Fatalf("ListObjects with prefix failed: %v", err)
		}
		if len(objects) != 1 || objects[0].Name != "cats/grumpy.jpg" {
			t.Errorf("prefix listing wrong: %v", objects)
		}
	})

	t.Run("MissingContainer", func(t *testing.T) {
		if _, err := backend.ListObjects(ctx, "nope", ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("BadContainerName", func(t *testing.T) {
		if _, err := backend.ListObjects(ctx, "../photos", ""); !errors.Is(err, ErrInvalidName) {
			t.Errorf("expected ErrInvalidName, got %v", err)
		}
	})
}

func TestLocalBackend_Open(t *testing.T) {
	backend := setupTestTree(t)
	ctx := context.Background()

	rc, err := backend.Open(ctx, "backups", "db.tar.gz")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading object failed: %v", err)
	}
	if string(data) != "tarball" {
		t.Errorf("object content = %q, want %q", data, "tarball")
	}

	if _, err = backend.Open(ctx, "backups", "missing.bin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing object, got %v", err)
	}

	// Traversal out of the container must be rejected, not resolved.
	if _, err = backend.Open(ctx, "backups", "../photos/readme.txt"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName for traversal, got %v", err)
	}
	if _, err = backend.Open(ctx, "backups", "../../etc/passwd"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName for deep traversal, got %v", err)
	}
}
