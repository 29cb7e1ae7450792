package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copyBundledDatabase copies the packaged database to dbPath on first
// launch. It does nothing when dbPath already exists or no bundle is set.
func copyBundledDatabase(bundledPath, dbPath string) (bool, error) {
	if bundledPath == "" {
		return false, nil
	}
	if _, err := os.Stat(dbPath); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat database: %w", err)
	}

	src, err := os.Open(bundledPath)
	if err != nil {
		return false, fmt.Errorf("open bundled database: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return false, fmt.Errorf("create db directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dbPath), filepath.Base(dbPath)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("create temp database: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return false, fmt.Errorf("copy bundled database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close temp database: %w", err)
	}
	if err := os.Rename(tmpName, dbPath); err != nil {
		return false, fmt.Errorf("install bundled database: %w", err)
	}
	return true, nil
}
