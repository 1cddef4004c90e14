// Package ioutils provides file system utilities shared by the catalog
// parser, the download pipeline and the CLI.
//
// # Filename Sanitization
//
// Names and tags reported by the camera are untrusted. SanitizeFileName keeps
// only ASCII letters, digits, '.', '-' and '_':
//
//	safe := ioutils.SanitizeFileName("R00/01.JPG") // Returns "R0001.JPG"
//
// # Path Validation
//
// ValidatePath rejects empty paths, traversal sequences, doubled separators,
// NUL bytes and paths of MaxPathLength bytes or more:
//
//	if err := ioutils.ValidatePath(userPath); err != nil {
//	    return err // wraps ioutils.ErrInvalidPath
//	}
//
// # Directory Handling
//
//	err := ioutils.EnsureDir("/photos/2024-05-01")
//
//	lock, err := ioutils.LockDir("/photos")
//	defer lock.Unlock()
package ioutils
