package model

import (
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the time layout of a Photo's Date and of the date folders
// created under the download path.
const DateLayout = "2006-01-02"

// Photo represents one file available on the camera.
//
// Photo contains everything needed to download and place a single file:
//   - Name and Tag for building the camera download URL
//   - Date for choosing the local date folder
//
// Name and Tag are already sanitized when a Photo is built by the catalog
// parser; they contain only ASCII letters, digits, '.', '-' and '_'.
//
// Example:
//
//	photo := NewPhoto("R0001.JPG", "100RICOH", captured)
//	photo.URL("http://192.168.0.1")     // "http://192.168.0.1/v1/photos/100RICOH/R0001.JPG"
//	photo.FilePath("/home/me/Pictures") // "/home/me/Pictures/2024-05-01/R0001.JPG"
type Photo struct {
	// Name is the sanitized file name on the camera, e.g. "R0001234.DNG".
	Name string

	// Tag is the sanitized camera directory the file lives in, e.g. "100RICOH".
	Tag string

	// Date is the capture date formatted with DateLayout.
	Date string
}

// NewPhoto creates a Photo for a file captured at the given time.
//
// The date is taken from the wall clock fields of captured, so a timestamp
// without a zone keeps the day the camera reported.
func NewPhoto(name, tag string, captured time.Time) *Photo {
	return &Photo{
		Name: name,
		Tag:  tag,
		Date: captured.Format(DateLayout),
	}
}

// Valid reports whether the photo can be downloaded. A Photo whose name
// sanitized to the empty string is never valid.
func (p *Photo) Valid() bool {
	return p != nil && p.Name != ""
}

// Extension returns the lower-cased text after the last '.' in Name, or the
// empty string when Name has no '.'.
func (p *Photo) Extension() string {
	return extension(p.Name)
}

// DirPath returns the date folder for the photo under basePath.
func (p *Photo) DirPath(basePath string) string {
	return filepath.Join(basePath, p.Date)
}

// FilePath returns the local destination of the photo under basePath.
func (p *Photo) FilePath(basePath string) string {
	return filepath.Join(p.DirPath(basePath), p.Name)
}

// URL returns the camera download URL for the photo.
//
// Tag and Name are used as-is; they are already restricted to characters
// that need no escaping.
func (p *Photo) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/v1/photos/" + p.Tag + "/" + p.Name
}

func extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
