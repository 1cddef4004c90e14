package model

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects which photos are downloaded by file type.
type Format string

const (
	// FormatAll matches every file.
	FormatAll Format = "all"

	// FormatJPG matches .jpg and .jpeg files, case-insensitively.
	FormatJPG Format = "jpg"

	// FormatDNG matches .dng raw files, case-insensitively.
	FormatDNG Format = "dng"
)

// ErrInvalidFormat is returned by ParseFormat for unknown format names.
var ErrInvalidFormat = errors.New("invalid format")

// ParseFormat converts a user supplied format name into a Format.
//
// Only "dng", "jpg" and "all" are accepted, and the match is exact.
//
// Example:
//
//	f, err := ParseFormat("jpg") // FormatJPG, nil
//	f, err = ParseFormat("png")  // "", ErrInvalidFormat
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatAll, FormatJPG, FormatDNG:
		return f, nil
	}
	return "", fmt.Errorf("%w %q: use 'dng', 'jpg', or 'all'", ErrInvalidFormat, s)
}

// String implements fmt.Stringer and pflag.Value.
func (f Format) String() string {
	return string(f)
}

// Set implements pflag.Value so a Format can be bound directly to a flag.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

// Matches reports whether filename is selected by format.
//
// Rules:
//   - FormatAll matches everything
//   - FormatJPG matches an extension of "jpg" or "jpeg"
//   - FormatDNG matches an extension of "dng"
//
// The extension is the text after the last '.', compared case-insensitively.
// A filename without '.' never matches FormatJPG or FormatDNG.
func Matches(filename string, format Format) bool {
	switch format {
	case FormatAll:
		return true
	case FormatJPG:
		ext := extension(filename)
		return ext == "jpg" || ext == "jpeg"
	case FormatDNG:
		return extension(filename) == "dng"
	}
	return false
}

// Filter selects photos for download.
//
// When FileName is set it overrides Format: only the photo whose Name equals
// FileName exactly (case-sensitive) is selected.
type Filter struct {
	Format   Format
	FileName string
}

// Match reports whether a single photo passes the filter.
func (f Filter) Match(p *Photo) bool {
	if !p.Valid() {
		return false
	}
	if f.FileName != "" {
		return p.Name == f.FileName
	}
	format := f.Format
	if format == "" {
		format = FormatAll
	}
	return Matches(p.Name, format)
}

// Select returns the photos that pass the filter, preserving order.
func (f Filter) Select(photos []*Photo) []*Photo {
	selected := make([]*Photo, 0, len(photos))
	for _, p := range photos {
		if f.Match(p) {
			selected = append(selected, p)
		}
	}
	return selected
}

// Describe returns a short human readable description of the filter.
func (f Filter) Describe() string {
	if f.FileName != "" {
		return "file " + f.FileName
	}
	if f.Format == "" || f.Format == FormatAll {
		return "all files"
	}
	return strings.ToUpper(string(f.Format)) + " files"
}
