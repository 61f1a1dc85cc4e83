package site

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to path through a temp file in the same
// directory and a rename, so readers never see a half-written page.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("site: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cartelera-*.tmp")
	if err != nil {
		return fmt.Errorf("site: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("site: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("site: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("site: close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("site: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("site: rename: %w", err)
	}
	return nil
}
