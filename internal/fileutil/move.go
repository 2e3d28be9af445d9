package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// MoveFile renames src to dst, falling back to a verified copy+remove when
// the rename crosses a filesystem boundary.
func MoveFile(src, dst string) error {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if err := CopyFileVerified(src, dst); err != nil {
			return fmt.Errorf("copy across filesystems: %w", err)
		}
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("remove source after copy: %w", err)
		}
		return nil
	}
	return renameErr
}

// NextAvailablePath returns filepath.Join(dir, name) when that path is free,
// otherwise the first free "{stem}_{n}{ext}" variant with n counting from 1.
func NextAvailablePath(dir, name string) (string, error) {
	const maxAttempts = 10000
	candidate := filepath.Join(dir, name)
	taken, err := pathExists(candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, attempt, ext))
		taken, err := pathExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted filename slots for %s in %s", name, dir)
}

func pathExists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
