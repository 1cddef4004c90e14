package camera

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/handiism/gr-downloader/internal/camera/dto"
	ioutils "github.com/handiism/gr-downloader/internal/io"
	"github.com/handiism/gr-downloader/internal/logging"
	"github.com/handiism/gr-downloader/internal/model"
)

// ErrMalformedCatalog is returned when the catalog is not valid JSON or has
// no top-level "dirs" array.
var ErrMalformedCatalog = errors.New("malformed catalog")

// Parser converts the camera's catalog document into Photo records.
//
// The camera lists its storage as directories ("tags") holding files. Every
// name and tag is untrusted and is sanitized before it is kept; entries that
// cannot be used are skipped rather than failing the whole catalog.
//
// Example usage:
//
//	parser := NewParser(logger)
//
//	body, _ := client.Get(ctx, "http://192.168.0.1/_gr/objs")
//	photos, err := parser.ParseCatalog(body)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, p := range photos {
//	    fmt.Printf("%s/%s taken %s\n", p.Tag, p.Name, p.Date)
//	}
type Parser struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewParser creates a new Parser. A nil logger discards diagnostics.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{
		logger: logging.OrDiscard(logger),
		now:    time.Now,
	}
}

// WithClock returns a copy of the parser that uses now as the fallback date
// source for entries with an unusable timestamp.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	cp := *p
	cp.now = now
	return &cp
}

// ParseCatalog parses a catalog document.
//
// The document must be a JSON object with a "dirs" array. For each directory:
//   - a missing or non-string "name" skips the directory and all its files
//   - a missing or non-array "files" skips the directory
//
// For each file:
//   - a missing or non-string "n", or one that sanitizes to nothing, drops the file
//   - "d" gives the capture date; when it is missing or unparseable the
//     current local date is used
//
// Photos are returned in directory order, then file order.
//
// Returns an error wrapping ErrMalformedCatalog if:
//   - The data is not valid JSON
//   - The document has no "dirs" array
func (p *Parser) ParseCatalog(data []byte) ([]*model.Photo, error) {
	var catalog dto.JSONCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	if catalog.Dirs == nil {
		return nil, fmt.Errorf("%w: no 'dirs' array found", ErrMalformedCatalog)
	}

	var photos []*model.Photo
	for i, rawDir := range *catalog.Dirs {
		photos = append(photos, p.parseDir(i, rawDir)...)
	}
	return photos, nil
}

func (p *Parser) parseDir(index int, raw json.RawMessage) []*model.Photo {
	var dir dto.JSONDir
	if err := json.Unmarshal(raw, &dir); err != nil {
		p.logger.Debug("skipping directory: not an object", "index", index)
		return nil
	}

	rawTag, ok := dto.StringValue(dir.Name)
	if !ok {
		p.logger.Debug("skipping directory: name is not a string", "index", index)
		return nil
	}
	tag := ioutils.SanitizeFileName(rawTag)
	if len(tag) > ioutils.MaxNameLength {
		p.logger.Debug("skipping directory: name too long", "index", index, "length", len(tag))
		return nil
	}

	files, ok := dto.ArrayValue(dir.Files)
	if !ok {
		p.logger.Debug("skipping directory: files is not an array", "tag", tag)
		return nil
	}

	photos := make([]*model.Photo, 0, len(files))
	for _, rawFile := range files {
		if photo := p.parseFile(tag, rawFile); photo != nil {
			photos = append(photos, photo)
		}
	}
	return photos
}

func (p *Parser) parseFile(tag string, raw json.RawMessage) *model.Photo {
	var file dto.JSONFile
	if err := json.Unmarshal(raw, &file); err != nil {
		p.logger.Debug("skipping file: not an object", "tag", tag)
		return nil
	}

	rawName, _ := dto.StringValue(file.Name)
	name := ioutils.SanitizeFileName(rawName)
	if name == "" {
		p.logger.Debug("skipping file: empty name after sanitization", "tag", tag, "raw", rawName)
		return nil
	}
	if len(name) > ioutils.MaxNameLength {
		p.logger.Debug("skipping file: name too long", "tag", tag, "length", len(name))
		return nil
	}

	captured := p.now()
	if rawDate, ok := dto.StringValue(file.Date); ok {
		if t, ok := dto.ParseCaptureTime(rawDate); ok {
			captured = t
		} else {
			p.logger.Debug("unparseable capture date, using today", "name", name, "d", rawDate)
		}
	}

	return model.NewPhoto(name, tag, captured)
}

// ParseCatalog parses a catalog document with a default Parser.
func ParseCatalog(data []byte) ([]*model.Photo, error) {
	return NewParser(nil).ParseCatalog(data)
}

// Tags returns the distinct tags of photos in first-seen order.
func Tags(photos []*model.Photo) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, p := range photos {
		if _, ok := seen[p.Tag]; ok {
			continue
		}
		seen[p.Tag] = struct{}{}
		tags = append(tags, p.Tag)
	}
	return tags
}
