// Package http provides an HTTP client configured for the camera's Wi-Fi API.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Catalog fetches bounded by a 30 second timeout
//   - File downloads bounded by a 60 second timeout, with progress tracking
//   - Removal of partially written files when a download fails
//
// # Basic Usage
//
//	client := http.NewClient()
//
//	// Fetch the catalog
//	body, err := client.Get(ctx, "http://192.168.0.1/_gr/objs")
//
//	// Download file with progress callback
//	n, err := client.DownloadFile(ctx, photoURL, "/path/to/R0001.JPG", func(written, total int64) {
//	    fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
