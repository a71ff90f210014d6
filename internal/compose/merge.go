package compose

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// MergeTree copies src into dest without overwriting anything. Directories
// are merged recursively; a file is copied only if its destination does
// not exist. It returns the created files as slash-separated paths
// relative to base, in walk order. A missing src is not an error.
func MergeTree(src, dest, base string) ([]string, error) {
	info, err := os.Stat(src)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", src)
	}

	var created []string
	if err := mergeDir(src, dest, base, &created); err != nil {
		return created, err
	}
	return created, nil
}

func mergeDir(src, dest, base string, created *[]string) error {
	if existing, err := os.Lstat(dest); err == nil && !existing.IsDir() {
		// A file already occupies this directory's place.
		return nil
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())

		if entry.IsDir() {
			if err := mergeDir(srcPath, destPath, base, created); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		if _, err := os.Lstat(destPath); err == nil {
			continue
		} else if !stderrors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", destPath, err)
		}

		if err := copyFile(srcPath, destPath); err != nil {
			return fmt.Errorf("copying %s: %w", srcPath, err)
		}

		rel, err := filepath.Rel(base, destPath)
		if err != nil {
			rel = destPath
		}
		*created = append(*created, filepath.ToSlash(rel))
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}
