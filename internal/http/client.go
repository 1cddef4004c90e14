package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	ioutils "github.com/handiism/gr-downloader/internal/io"
)

const (
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "gr-downloader"

	// DefaultCatalogTimeout bounds the catalog request.
	DefaultCatalogTimeout = 30 * time.Second

	// DefaultDownloadTimeout bounds a single file download, body included.
	DefaultDownloadTimeout = 60 * time.Second
)

// StatusError is returned when the camera answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
}

// Client wraps HTTP operations against the camera's Wi-Fi API.
//
// Client provides:
//   - Configured User-Agent header
//   - Per-request timeouts for catalog fetches and file downloads
//   - File download with progress tracking and partial file cleanup
//
// Redirects are followed by the underlying http.Client.
//
// Example usage:
//
//	client := NewClient()
//
//	// Fetch the catalog
//	body, err := client.Get(ctx, "http://192.168.0.1/_gr/objs")
//
//	// Download file with progress
//	err = client.DownloadFile(ctx, photoURL, "/path/to/R0001.JPG", func(written, total int64) {
//	    percent := float64(written) / float64(total) * 100
//	    fmt.Printf("%.1f%%\n", percent)
//	})
type Client struct {
	httpClient      *http.Client
	userAgent       string
	catalogTimeout  time.Duration
	downloadTimeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeouts overrides the catalog and download timeouts. Zero values keep
// the defaults.
func WithTimeouts(catalog, download time.Duration) Option {
	return func(c *Client) {
		if catalog > 0 {
			c.catalogTimeout = catalog
		}
		if download > 0 {
			c.downloadTimeout = download
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new HTTP client configured for the camera.
//
// The client is configured with:
//   - 30 second catalog timeout
//   - 60 second download timeout
//   - "gr-downloader" User-Agent header
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		userAgent:       DefaultUserAgent,
		catalogTimeout:  DefaultCatalogTimeout,
		downloadTimeout: DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	// It is -1 when the server did not declare a length.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Get performs a GET request bounded by the catalog timeout and returns the
// response body.
//
// The body is read into a buffer owned by this call.
//
// Returns an error if:
//   - The request fails or times out
//   - The response status is not 2xx (a *StatusError)
//   - Reading the body fails
//
// Example:
//
//	data, err := client.Get(ctx, "http://192.168.0.1/_gr/objs")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()

	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return buf.Bytes(), nil
}

// DownloadFile downloads a file to the specified path with optional progress callback.
//
// A single GET is issued, bounded by the download timeout. The destination
// file is only created once a 2xx response has arrived, and the body is
// streamed directly to disk. If anything fails after the file was created
// (transport error, timeout, short body, write error) the partial file is
// removed before returning, so a failed download never leaves a truncated
// file behind.
//
// Parameters:
//   - ctx: Context for cancellation
//   - url: URL to download from
//   - destPath: Local file path to save to
//   - onProgress: Optional callback called with (bytesWritten, totalBytes)
//     Pass nil to disable progress tracking
//
// Returns the number of bytes written.
//
// Example:
//
//	n, err := client.DownloadFile(ctx, photoURL, "/photos/2024-05-01/R0001.JPG", func(written, total int64) {
//	    if total > 0 {
//	        fmt.Printf("%.1f%%\r", float64(written)/float64(total)*100)
//	    }
//	})
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	resp, err := c.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	file, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}

	pw := &ProgressWriter{
		Writer:   file,
		Total:    resp.ContentLength,
		OnUpdate: onProgress,
	}

	written, err := io.Copy(pw, resp.Body)
	if err == nil && resp.ContentLength >= 0 && written != resp.ContentLength {
		err = fmt.Errorf("short body: got %d of %d bytes: %w", written, resp.ContentLength, io.ErrUnexpectedEOF)
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := ioutils.RemovePartial(destPath); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("remove partial file: %w", rmErr))
		}
		return 0, err
	}
	return written, nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	return resp, nil
}
