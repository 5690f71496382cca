// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fsutil holds file helpers shared by the checkpoint store and the
// report writer.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// rename is swapped in tests to simulate a failure between write and rename.
var rename = os.Rename

// WriteFileAtomic writes data to a temporary file in the same directory as
// path, syncs it, and renames it over path. Readers see either the previous
// content or the new content, never a partial write. The directory is
// created with 0700 when missing.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tmpFile, err := os.CreateTemp(dir, "."+base+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := tmpFile.Chmod(perm); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	_, writeErr := tmpFile.Write(data)
	syncErr := tmpFile.Sync()
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if syncErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", syncErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
