// Package ioutils provides file system utilities for the gr-downloader.
//
// This package contains functions for:
//   - Filename sanitization
//   - Path validation
//   - Directory creation
//   - Existence checks and partial file cleanup
//
// Every string that ends up in a filesystem path or a camera URL passes
// through SanitizeFileName or ValidatePath before any I/O happens.
package ioutils

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// MaxPathLength is the longest base or directory path accepted by ValidatePath.
	MaxPathLength = 512

	// MaxNameLength is the longest file name or tag accepted after sanitization.
	MaxNameLength = 255
)

// ErrInvalidPath is returned by ValidatePath for unsafe or oversized paths.
var ErrInvalidPath = errors.New("invalid path")

// SanitizeFileName removes every character that is not safe in a file name
// or a URL path segment.
//
// Only ASCII letters, digits, '.', '-' and '_' survive; everything else is
// dropped and the relative order of the kept characters is preserved. The
// function is idempotent.
//
// Example:
//
//	SanitizeFileName("R0001.JPG")        // Returns "R0001.JPG"
//	SanitizeFileName("../etc/passwd")    // Returns "..etcpasswd"
//	SanitizeFileName("IMG 01 (copy).dng") // Returns "IMG01copy.dng"
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ValidatePath checks that path is safe to hand to the filesystem.
//
// Returns an error wrapping ErrInvalidPath if:
//   - The path is empty
//   - It contains a ".." traversal sequence
//   - It contains "//"
//   - It contains a NUL byte
//   - It is MaxPathLength bytes or longer
func ValidatePath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	case strings.Contains(path, ".."):
		return fmt.Errorf("%w: %q contains \"..\"", ErrInvalidPath, path)
	case strings.Contains(path, "//"):
		return fmt.Errorf("%w: %q contains \"//\"", ErrInvalidPath, path)
	case strings.IndexByte(path, 0) >= 0:
		return fmt.Errorf("%w: contains NUL byte", ErrInvalidPath)
	case len(path) >= MaxPathLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidPath, MaxPathLength-1)
	}
	return nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/home/me/Pictures/RicohGRII/2024-05-01")
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists reports whether anything exists at path.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// RemovePartial deletes a partially written file. A missing file is not an error.
func RemovePartial(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
