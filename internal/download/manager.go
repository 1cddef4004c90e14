package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/handiism/gr-downloader/internal/camera"
	"github.com/handiism/gr-downloader/internal/config"
	"github.com/handiism/gr-downloader/internal/http"
	ioutils "github.com/handiism/gr-downloader/internal/io"
	"github.com/handiism/gr-downloader/internal/logging"
	"github.com/handiism/gr-downloader/internal/model"
)

// CatalogPath is the camera endpoint listing all directories and files.
const CatalogPath = "/_gr/objs"

var (
	// ErrCatalogFetch is returned when the catalog cannot be retrieved.
	ErrCatalogFetch = errors.New("catalog fetch failed")

	// ErrDirectoryCreate is returned when a date folder cannot be created.
	ErrDirectoryCreate = errors.New("cannot create directory")

	// ErrDownload is returned when a file transfer fails.
	ErrDownload = errors.New("download failed")
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// FileProgress reports bytes received for the photo currently downloading.
// Total is -1 when the camera did not declare a size.
type FileProgress struct {
	Index    int // 1-based position among the selected photos
	Count    int
	Name     string
	Received int64
	Total    int64
}

// Result is the outcome of downloading one photo.
type Result int

const (
	ResultSuccess Result = iota
	ResultSkipped
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultSkipped:
		return "skipped"
	case ResultFailed:
		return "failed"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Summary aggregates the outcome of a run.
type Summary struct {
	Found      int // photos in the catalog
	Selected   int // photos passing the filter
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Manager coordinates photo downloads from the camera.
//
// Photos are processed strictly one at a time in catalog order; a failure
// only affects the photo being processed.
type Manager struct {
	baseURL    string
	httpClient *http.Client
	parser     *camera.Parser
	logger     *slog.Logger

	receivedBytes int64

	onProgress     func(ProgressEvent)
	onFileProgress func(FileProgress)
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.OrDiscard(logger)
	}
}

// WithFileProgress registers a callback for byte-level progress. It is
// called synchronously from the downloading goroutine.
func WithFileProgress(fn func(FileProgress)) Option {
	return func(m *Manager) {
		m.onFileProgress = fn
	}
}

// WithClient replaces the HTTP client built from settings.
func WithClient(c *http.Client) Option {
	return func(m *Manager) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) *Manager {
	m := &Manager{
		baseURL: settings.BaseURL,
		httpClient: http.NewClient(
			http.WithUserAgent(settings.UserAgent),
			http.WithTimeouts(settings.CatalogTimeoutDuration(), settings.DownloadTimeoutDuration()),
		),
		logger:     logging.Discard(),
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.parser = camera.NewParser(m.logger)
	return m
}

// FetchCatalog retrieves and parses the camera catalog.
//
// Returns an error wrapping ErrCatalogFetch when the request fails or the
// camera answers with a non-2xx status, and one wrapping
// camera.ErrMalformedCatalog when the body cannot be parsed.
func (m *Manager) FetchCatalog(ctx context.Context) ([]*model.Photo, error) {
	url := m.baseURL + CatalogPath
	m.logger.Debug("fetching catalog", "url", url)

	start := time.Now()
	body, err := m.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogFetch, url, err)
	}
	m.logger.Debug("catalog received", "bytes", len(body), "elapsed", time.Since(start))

	return m.parser.ParseCatalog(body)
}

// Run fetches the catalog, applies filter and downloads every selected photo
// into basePath.
//
// Catalog errors are returned and nothing is downloaded. Per-photo failures
// are reported through the progress callback and counted in the Summary.
// The returned error is otherwise only non-nil when ctx is cancelled.
func (m *Manager) Run(ctx context.Context, filter model.Filter, basePath string) (Summary, error) {
	photos, err := m.FetchCatalog(ctx)
	if err != nil {
		return Summary{}, err
	}

	selected := filter.Select(photos)
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Found %d photos, %d matching %s", len(photos), len(selected), filter.Describe()),
		Level:   LevelInfo,
	})

	summary, err := m.Download(ctx, selected, basePath)
	summary.Found = len(photos)
	return summary, err
}

// Download processes photos sequentially into basePath.
func (m *Manager) Download(ctx context.Context, photos []*model.Photo, basePath string) (Summary, error) {
	summary := Summary{Found: len(photos), Selected: len(photos)}
	start := m.receivedBytes

	for i, photo := range photos {
		if err := ctx.Err(); err != nil {
			summary.Bytes = m.receivedBytes - start
			return summary, err
		}

		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Photo %d: %s, date=%s", i+1, photo.Name, photo.Date),
			Level:   LevelInfo,
		})

		index, count := i+1, len(photos)
		result, err := m.DownloadOne(ctx, photo, basePath, func(received, total int64) {
			if m.onFileProgress != nil {
				m.onFileProgress(FileProgress{Index: index, Count: count, Name: photo.Name, Received: received, Total: total})
			}
		})

		switch result {
		case ResultSuccess:
			summary.Downloaded++
		case ResultSkipped:
			summary.Skipped++
		case ResultFailed:
			summary.Failed++
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", photo.Name, err), Level: LevelError})
		}
	}

	summary.Bytes = m.receivedBytes - start
	return summary, nil
}

// DownloadOne downloads a single photo into its date folder under basePath.
//
// Steps:
//  1. basePath and the date folder are validated (ioutils.ErrInvalidPath)
//  2. the date folder is created if missing (ErrDirectoryCreate)
//  3. an existing destination file yields ResultSkipped without any request
//  4. one GET of {baseURL}/v1/photos/{tag}/{name} is streamed to disk
//
// onProgress, when non-nil, receives (bytesReceived, totalBytes) after each
// chunk. A failed transfer removes the partial file and yields ResultFailed
// with an error wrapping ErrDownload. Nothing is retried.
func (m *Manager) DownloadOne(ctx context.Context, photo *model.Photo, basePath string, onProgress func(received, total int64)) (Result, error) {
	if err := ioutils.ValidatePath(basePath); err != nil {
		return ResultFailed, fmt.Errorf("base path: %w", err)
	}
	if !photo.Valid() {
		return ResultFailed, fmt.Errorf("%w: photo has no name", ioutils.ErrInvalidPath)
	}
	if photo.Name == "." || photo.Name == ".." {
		return ResultFailed, fmt.Errorf("%w: photo name %q", ioutils.ErrInvalidPath, photo.Name)
	}

	dir := photo.DirPath(basePath)
	if err := ioutils.ValidatePath(dir); err != nil {
		return ResultFailed, fmt.Errorf("directory: %w", err)
	}
	if err := ioutils.EnsureDir(dir); err != nil {
		return ResultFailed, fmt.Errorf("%w %s: %w", ErrDirectoryCreate, dir, err)
	}

	dest := photo.FilePath(basePath)
	if ioutils.FileExists(dest) {
		m.logger.Debug("destination exists", "path", dest)
		m.progress(ProgressEvent{Message: fmt.Sprintf("File already exists, skipping: %s", dest), Level: LevelInfo})
		return ResultSkipped, nil
	}

	url := photo.URL(m.baseURL)
	m.logger.Debug("downloading", "url", url, "dest", dest)

	start := time.Now()
	n, err := m.httpClient.DownloadFile(ctx, url, dest, onProgress)
	if err != nil {
		return ResultFailed, fmt.Errorf("%w for %s: %w", ErrDownload, photo.Name, err)
	}
	m.receivedBytes += n

	m.logger.Debug("download complete", "path", dest, "bytes", n, "elapsed", time.Since(start))
	m.progress(ProgressEvent{Message: fmt.Sprintf("Completed: %s", dest), Level: LevelSuccess})
	return ResultSuccess, nil
}

// ReceivedBytes returns the number of bytes written by successful downloads.
func (m *Manager) ReceivedBytes() int64 {
	return m.receivedBytes
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
