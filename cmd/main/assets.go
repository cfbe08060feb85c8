package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Default templates and static media, written into the data directory on
// first run so the template manager and the media route always have files to
// serve. Files already on disk are left alone, so deployments can customize
// them freely.
//
//go:embed templates media
var defaultAssets embed.FS

func ensureDefaultAssets(dataDir string) error {
	return fs.WalkDir(defaultAssets, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dataDir, filepath.FromSlash(path))
		if d.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create asset directory %s: %w", target, err)
			}
			return nil
		}
		if _, err := os.Stat(target); err == nil {
			return nil
		}
		data, err := defaultAssets.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded asset %s: %w", path, err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("failed to write default asset %s: %w", target, err)
		}
		return nil
	})
}
